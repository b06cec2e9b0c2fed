package ledger

import "math/big"

// MaxMetadataChunk 元数据中单个文本 / 字节串的最大长度
const MaxMetadataChunk = 64

// Metadatum 交易元数据节点（封闭的和类型）
type Metadatum interface {
	isMetadatum()
}

// MetadatumInt 整数
type MetadatumInt struct {
	Value *big.Int
}

// MetadatumText 文本（UTF-8，≤ 64 字节）
type MetadatumText string

// MetadatumBytes 字节串（≤ 64 字节）
type MetadatumBytes []byte

// MetadatumList 列表
type MetadatumList []Metadatum

// MetadatumPair 映射中的一项
type MetadatumPair struct {
	Key   Metadatum
	Value Metadatum
}

// MetadatumMap 映射（保留插入顺序）
type MetadatumMap []MetadatumPair

func (MetadatumInt) isMetadatum()   {}
func (MetadatumText) isMetadatum()  {}
func (MetadatumBytes) isMetadatum() {}
func (MetadatumList) isMetadatum()  {}
func (MetadatumMap) isMetadatum()   {}

// NewMetadatumInt 由 int64 构造
func NewMetadatumInt(v int64) MetadatumInt {
	return MetadatumInt{Value: big.NewInt(v)}
}
