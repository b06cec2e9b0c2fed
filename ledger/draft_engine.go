package ledger

import (
	"bytes"
	"math"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"

	"github.com/weisyn/ledger-sdk-go/types"
)

const (
	// 平衡迭代上限；手续费通常在两三轮内收敛
	maxBalanceRounds = 16
	// 抵押品下限（lovelace）
	minCollateralCoin = 5_000_000
	// 输出最小 lovelace 计算中的固定开销字节
	utxoEntryOverhead = 160
)

type inputEntry struct {
	utxo    Utxo
	witness *ScriptWitness
}

type certEntry struct {
	cert    Certificate
	witness *ScriptWitness
}

type withdrawalEntry struct {
	account Address
	amount  uint64
	witness *ScriptWitness
}

type redeemerKey struct {
	tag   RedeemerTag
	index uint32
}

// EngineOption DraftEngine 配置项
type EngineOption func(*DraftEngine)

// WithScriptEvaluator 配置脚本执行预算评估器
func WithScriptEvaluator(ev ScriptEvaluator) EngineOption {
	return func(e *DraftEngine) {
		e.evaluator = ev
	}
}

// DraftEngine 内置的参考序列化引擎
//
// **功能**：
//   - Babbage 格式的交易体 / 见证集编码（post-alonzo 输出、内联 datum、引用脚本）
//   - 最大优先（largest-first）输入选择，含找零最小 ADA 缓冲
//   - 迭代平衡直到手续费不动点；不足最小 ADA 的纯 ADA 找零并入手续费
//   - 脚本交易自动选择抵押品，可选接入 ScriptEvaluator 重算执行预算
//
// 签名不在此完成；尺寸估算按所需 vkey 见证数量加入占位见证。
// DraftEngine 不是并发安全的，与一个 txbuilder.Tx 一一对应。
type DraftEngine struct {
	params    ProtocolParams
	evaluator ScriptEvaluator

	inputs      []inputEntry
	refInputs   []Utxo
	outputs     []TransactionOutput
	mints       map[ScriptHash]MintAssets
	mintWitness map[ScriptHash]*ScriptWitness
	certs       []certEntry
	withdrawals []withdrawalEntry
	signers     []KeyHash
	validFrom   *uint64
	ttl         *uint64
	metadata    map[uint64]Metadatum
	scripts     []Script
	plutusData  []PlutusData

	available   []Utxo
	collateral  []Utxo
	exUnits     map[redeemerKey]ExUnits
	balanced    bool
	fee         uint64
	change      *TransactionOutput
	changeAddr  Address
	changeDatum *Datum
}

// NewDraftEngine 创建参考引擎
func NewDraftEngine(params ProtocolParams, opts ...EngineOption) *DraftEngine {
	e := &DraftEngine{
		params:      params,
		mints:       make(map[ScriptHash]MintAssets),
		mintWitness: make(map[ScriptHash]*ScriptWitness),
		metadata:    make(map[uint64]Metadatum),
		exUnits:     make(map[redeemerKey]ExUnits),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *DraftEngine) hasInput(in TransactionInput) bool {
	for _, it := range e.inputs {
		if it.utxo.Input == in {
			return true
		}
	}
	return false
}

// AddInput 添加花费输入
func (e *DraftEngine) AddInput(utxo Utxo, witness *ScriptWitness) error {
	if e.hasInput(utxo.Input) {
		return types.Errorf(types.ErrCodeInvalidParams, "input %s#%d already added", utxo.Input.TxID, utxo.Input.Index)
	}
	e.inputs = append(e.inputs, inputEntry{utxo: utxo, witness: witness})
	if witness != nil && len(witness.Datum) > 0 {
		e.addData(witness.Datum)
	}
	e.balanced = false
	return nil
}

// AddReferenceInput 添加只读引用输入；重复引用被忽略
func (e *DraftEngine) AddReferenceInput(utxo Utxo) error {
	for _, r := range e.refInputs {
		if r.Input == utxo.Input {
			return nil
		}
	}
	e.refInputs = append(e.refInputs, utxo)
	e.balanced = false
	return nil
}

// AddOutput 添加输出；lovelace 低于最小值时自动补足
func (e *DraftEngine) AddOutput(out TransactionOutput) error {
	if len(out.Address) == 0 {
		return types.NewError(types.ErrCodeInvalidAddress, "output address is empty")
	}
	out.Amount = out.Amount.Clone()
	e.topUpMinCoin(&out)
	e.outputs = append(e.outputs, out)
	e.balanced = false
	return nil
}

func (e *DraftEngine) topUpMinCoin(out *TransactionOutput) {
	// 抬高 coin 可能增加编码长度，重复到稳定
	for i := 0; i < 3; i++ {
		min := e.MinUTxO(*out)
		if out.Amount.Coin >= min {
			return
		}
		out.Amount.Coin = min
	}
}

// MinUTxO 输出所需的最小 lovelace
func (e *DraftEngine) MinUTxO(out TransactionOutput) uint64 {
	return (utxoEntryOverhead + uint64(len(encodeOutput(out)))) * e.params.CoinsPerUTxOByte
}

// AddMint 铸造 / 销毁；同一 policy 多次调用会累加
func (e *DraftEngine) AddMint(policy ScriptHash, assets MintAssets, witness *ScriptWitness) error {
	if len(assets) == 0 {
		return types.NewError(types.ErrCodeInvalidParams, "mint without assets").WithDetail("policy", policy.String())
	}
	cur := e.mints[policy]
	if cur == nil {
		cur = make(MintAssets)
		e.mints[policy] = cur
	}
	for name, qty := range assets {
		cur[name] += qty
		if cur[name] == 0 {
			delete(cur, name)
		}
	}
	if witness != nil {
		e.mintWitness[policy] = witness
	}
	e.balanced = false
	return nil
}

// AddCertificate 添加证书
func (e *DraftEngine) AddCertificate(cert Certificate, witness *ScriptWitness) error {
	if cert == nil {
		return types.NewError(types.ErrCodeInvalidParams, "nil certificate")
	}
	e.certs = append(e.certs, certEntry{cert: cert, witness: witness})
	e.balanced = false
	return nil
}

// AddWithdrawal 添加奖励提取；同一奖励账户只能提取一次
func (e *DraftEngine) AddWithdrawal(account Address, amount uint64, witness *ScriptWitness) error {
	if kind, err := account.Kind(); err != nil || kind != AddressReward {
		return types.NewError(types.ErrCodeInvalidAddress, "withdrawal requires a reward address").
			WithDetail("address", account.Hex())
	}
	for _, w := range e.withdrawals {
		if bytes.Equal(w.account, account) {
			return types.NewError(types.ErrCodeInvalidParams, "duplicate withdrawal").
				WithDetail("address", account.Hex())
		}
	}
	e.withdrawals = append(e.withdrawals, withdrawalEntry{account: account, amount: amount, witness: witness})
	e.balanced = false
	return nil
}

// AddRequiredSigner 添加必需签名者；重复添加被忽略
func (e *DraftEngine) AddRequiredSigner(keyHash KeyHash) error {
	for _, s := range e.signers {
		if s == keyHash {
			return nil
		}
	}
	e.signers = append(e.signers, keyHash)
	e.balanced = false
	return nil
}

// SetValidityStart 设置有效期起点（slot）
func (e *DraftEngine) SetValidityStart(slot uint64) {
	e.validFrom = &slot
	e.balanced = false
}

// SetTTL 设置有效期终点（slot）
func (e *DraftEngine) SetTTL(slot uint64) {
	e.ttl = &slot
	e.balanced = false
}

// AddMetadatum 设置标签下的元数据；同一标签后写覆盖
func (e *DraftEngine) AddMetadatum(label uint64, value Metadatum) error {
	if _, err := encodeMetadatum(value); err != nil {
		return types.WrapError(types.ErrCodeInvalidParams, "invalid metadata", err)
	}
	e.metadata[label] = value
	e.balanced = false
	return nil
}

// AddScript 附加见证脚本；按脚本哈希去重
func (e *DraftEngine) AddScript(script Script) error {
	if script.Language > LanguagePlutusV2 {
		return types.Errorf(types.ErrCodeUnknownScriptVariant, "unsupported script language %d", script.Language)
	}
	h := script.Hash()
	for _, s := range e.scripts {
		if s.Hash() == h {
			return nil
		}
	}
	e.scripts = append(e.scripts, script)
	e.balanced = false
	return nil
}

// AddPlutusData 附加见证 datum；按 datum hash 去重
func (e *DraftEngine) AddPlutusData(data PlutusData) error {
	if err := cbor.Wellformed(data); err != nil {
		return types.MalformedEncoding("plutus data", err)
	}
	e.addData(data)
	e.balanced = false
	return nil
}

func (e *DraftEngine) addData(data PlutusData) {
	h := data.Hash()
	for _, d := range e.plutusData {
		if d.Hash() == h {
			return
		}
	}
	e.plutusData = append(e.plutusData, data)
}

func (e *DraftEngine) deposits() (paid, refunded uint64) {
	for _, c := range e.certs {
		switch cert := c.cert.(type) {
		case StakeRegistration:
			paid += e.params.KeyDeposit
		case StakeDeregistration:
			refunded += e.params.KeyDeposit
		case PoolRegistration:
			if !cert.IsUpdate {
				paid += e.params.PoolDeposit
			}
		}
	}
	return paid, refunded
}

// consumed 输入侧：输入 + 提取 + 押金退还 + 铸造
func (e *DraftEngine) consumed() (Value, error) {
	total := Value{}
	var err error
	for _, in := range e.inputs {
		if total, err = total.Add(in.utxo.Output.Amount); err != nil {
			return Value{}, err
		}
	}
	for _, w := range e.withdrawals {
		if total, err = total.Add(NewValue(w.amount)); err != nil {
			return Value{}, err
		}
	}
	_, refunded := e.deposits()
	if total, err = total.Add(NewValue(refunded)); err != nil {
		return Value{}, err
	}
	for policy, assets := range e.mints {
		for name, qty := range assets {
			if qty > 0 {
				if err := total.AddAsset(policy, name, uint64(qty)); err != nil {
					return Value{}, err
				}
			}
		}
	}
	return total, nil
}

// produced 输出侧：输出（不含找零）+ 押金 + 销毁 + 手续费
func (e *DraftEngine) produced(fee uint64) (Value, error) {
	total := NewValue(fee)
	var err error
	for _, out := range e.outputs {
		if total, err = total.Add(out.Amount); err != nil {
			return Value{}, err
		}
	}
	paid, _ := e.deposits()
	if total, err = total.Add(NewValue(paid)); err != nil {
		return Value{}, err
	}
	for policy, assets := range e.mints {
		for name, qty := range assets {
			if qty < 0 {
				if err := total.AddAsset(policy, name, uint64(-qty)); err != nil {
					return Value{}, err
				}
			}
		}
	}
	return total, nil
}

// AddInputsFrom 从 available 中按最大优先补足输入
func (e *DraftEngine) AddInputsFrom(available []Utxo, change Address) error {
	e.available = available
	candidates := make([]Utxo, 0, len(available))
	for _, u := range available {
		if e.hasInput(u.Input) || !spendableByKey(u) {
			continue
		}
		candidates = append(candidates, u)
	}

	for {
		consumed, err := e.consumed()
		if err != nil {
			return err
		}
		fee, err := e.minFee(math.MaxUint32, &TransactionOutput{Address: change, Amount: consumed})
		if err != nil {
			return err
		}
		need, err := e.produced(fee)
		if err != nil {
			return err
		}
		missing := consumed.Missing(need)
		if missing.IsZero() {
			surplus, _ := consumed.Sub(need)
			switch {
			case len(e.inputs) == 0:
				// 交易至少需要一个输入（仅靠提取或押金退还即可平衡时也一样）
				missing = NewValue(1)
			case !surplus.HasAssets():
				return nil
			default:
				// 找零携带资产时，必须留足找零输出的最小 ADA
				min := e.MinUTxO(TransactionOutput{Address: change, Amount: surplus})
				if surplus.Coin >= min {
					return nil
				}
				missing = NewValue(min - surplus.Coin)
			}
		}

		idx := pickLargestFirst(candidates, missing)
		if idx < 0 {
			return insufficient(missing)
		}
		if err := e.AddInput(candidates[idx], nil); err != nil {
			return err
		}
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}
}

func spendableByKey(u Utxo) bool {
	if kind, err := u.Output.Address.Kind(); err == nil && kind == AddressByron {
		return true
	}
	cred := u.Output.Address.PaymentCredential()
	return cred != nil && cred.IsKey()
}

// pickLargestFirst 先补足缺口中的资产（按 policy、资产名顺序），再补 lovelace
func pickLargestFirst(candidates []Utxo, missing Value) int {
	for _, policy := range missing.Policies() {
		for _, name := range sortedNames(missing.Assets[policy]) {
			best, bestQty := -1, uint64(0)
			for i, u := range candidates {
				if q := u.Output.Amount.Quantity(policy, name); q > bestQty {
					best, bestQty = i, q
				}
			}
			if best >= 0 {
				return best
			}
		}
	}
	if missing.HasAssets() {
		return -1
	}
	best, bestCoin := -1, uint64(0)
	for i, u := range candidates {
		if c := u.Output.Amount.Coin; c > bestCoin {
			best, bestCoin = i, c
		}
	}
	return best
}

// Balance 计算找零与手续费
func (e *DraftEngine) Balance(change Address, changeDatum *Datum) error {
	if len(change) == 0 {
		return types.NewError(types.ErrCodeInvalidAddress, "change address is empty")
	}
	e.changeAddr = change
	e.changeDatum = changeDatum

	if len(e.redeemers()) > 0 && len(e.collateral) == 0 {
		if err := e.selectCollateral(); err != nil {
			return err
		}
	}

	consumed, err := e.consumed()
	if err != nil {
		return err
	}
	fee, err := e.minFee(0, nil)
	if err != nil {
		return err
	}
	for round := 0; round < maxBalanceRounds; round++ {
		need, err := e.produced(fee)
		if err != nil {
			return err
		}
		surplus, err := consumed.Sub(need)
		if err != nil {
			return err
		}

		actualFee := fee
		var out *TransactionOutput
		if !surplus.IsZero() {
			candidate := TransactionOutput{Address: change, Amount: surplus, Datum: changeDatum}
			if min := e.MinUTxO(candidate); surplus.Coin < min {
				if surplus.HasAssets() {
					return insufficient(NewValue(min - surplus.Coin))
				}
				// 零头不足以成为找零输出，并入手续费
				actualFee += surplus.Coin
			} else {
				out = &candidate
			}
		}

		required, err := e.minFee(actualFee, out)
		if err != nil {
			return err
		}
		if required <= actualFee {
			if err := e.checkCollateral(actualFee); err != nil {
				return err
			}
			e.fee = actualFee
			e.change = out
			e.balanced = true
			return nil
		}
		fee = required
	}
	return types.NewError(types.ErrCodeInsufficientFunds, "fee did not converge while balancing")
}

func (e *DraftEngine) selectCollateral() error {
	pool := make([]Utxo, 0, len(e.available)+len(e.inputs))
	pool = append(pool, e.available...)
	for _, in := range e.inputs {
		pool = append(pool, in.utxo)
	}
	var best *Utxo
	for i := range pool {
		u := pool[i]
		if !spendableByKey(u) || u.Output.Amount.HasAssets() || u.Output.Amount.Coin < minCollateralCoin {
			continue
		}
		if best == nil || u.Output.Amount.Coin > best.Output.Amount.Coin {
			best = &pool[i]
		}
	}
	if best == nil {
		return types.NewError(types.ErrCodeInsufficientFunds, "no ADA-only UTxO available for collateral").
			WithDetail("collateral", map[string]interface{}{types.Lovelace: minCollateralCoin})
	}
	e.collateral = []Utxo{*best}
	return nil
}

func (e *DraftEngine) checkCollateral(fee uint64) error {
	if len(e.collateral) == 0 {
		return nil
	}
	var total uint64
	for _, c := range e.collateral {
		total += c.Output.Amount.Coin
	}
	required := (fee*e.params.CollateralPercent + 99) / 100
	if total < required {
		return types.NewError(types.ErrCodeInsufficientFunds, "collateral does not cover script fee").
			WithDetail("collateral", map[string]interface{}{types.Lovelace: required - total})
	}
	return nil
}

// minFee 按当前草稿尺寸与执行预算计算最低手续费
func (e *DraftEngine) minFee(fee uint64, change *TransactionOutput) (uint64, error) {
	_, tx, err := e.assemble(fee, change, e.vkeyWitnessCount())
	if err != nil {
		return 0, err
	}
	total := e.params.MinFeeA*uint64(len(tx)) + e.params.MinFeeB

	var mem, steps int64
	for _, r := range e.redeemers() {
		mem += int64(r.ExUnits.Mem)
		steps += int64(r.ExUnits.Steps)
	}
	if mem > 0 || steps > 0 {
		scriptFee := e.params.PriceMem.Mul(decimal.NewFromInt(mem)).
			Add(e.params.PriceStep.Mul(decimal.NewFromInt(steps))).
			Ceil()
		total += uint64(scriptFee.IntPart())
	}
	return total, nil
}

func (e *DraftEngine) vkeyWitnessCount() int {
	keys := make(map[[Hash28Size]byte]struct{})
	byron := 0
	spend := func(u Utxo) {
		if kind, err := u.Output.Address.Kind(); err == nil && kind == AddressByron {
			byron++
			return
		}
		if cred := u.Output.Address.PaymentCredential(); cred != nil && cred.IsKey() {
			keys[cred.Hash] = struct{}{}
		}
	}
	for _, in := range e.inputs {
		spend(in.utxo)
	}
	for _, c := range e.collateral {
		spend(c)
	}
	for _, s := range e.signers {
		keys[s] = struct{}{}
	}
	for _, c := range e.certs {
		for _, k := range RequiredKeyHashes(c.cert) {
			keys[k] = struct{}{}
		}
	}
	for _, w := range e.withdrawals {
		if cred := w.account.StakeCredential(); cred != nil && cred.IsKey() {
			keys[cred.Hash] = struct{}{}
		}
	}
	return len(keys) + byron
}

func (e *DraftEngine) sortedWithdrawals() []withdrawalEntry {
	out := append([]withdrawalEntry(nil), e.withdrawals...)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].account) != len(out[j].account) {
			return len(out[i].account) < len(out[j].account)
		}
		return bytes.Compare(out[i].account, out[j].account) < 0
	})
	return out
}

func (e *DraftEngine) mintPolicies() []ScriptHash {
	out := make([]ScriptHash, 0, len(e.mints))
	for p, assets := range e.mints {
		if len(assets) > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func (e *DraftEngine) redeemer(tag RedeemerTag, index int, data PlutusData) Redeemer {
	key := redeemerKey{tag: tag, index: uint32(index)}
	units, ok := e.exUnits[key]
	if !ok {
		units = e.params.DefaultExUnits
	}
	return Redeemer{Tag: tag, Index: uint32(index), Data: data, ExUnits: units}
}

// redeemers 按账本规则计算索引：花费按排序后的输入位置，铸造按排序后的 policy，
// 证书按出现顺序，提取按奖励账户的规范键序
func (e *DraftEngine) redeemers() []Redeemer {
	var out []Redeemer
	witnesses := make(map[TransactionInput]*ScriptWitness, len(e.inputs))
	ins := make([]TransactionInput, len(e.inputs))
	for i, in := range e.inputs {
		witnesses[in.utxo.Input] = in.witness
		ins[i] = in.utxo.Input
	}
	for i, in := range sortInputs(ins) {
		if w := witnesses[in]; w != nil && len(w.Redeemer) > 0 {
			out = append(out, e.redeemer(RedeemerSpend, i, w.Redeemer))
		}
	}
	for i, p := range e.mintPolicies() {
		if w := e.mintWitness[p]; w != nil && len(w.Redeemer) > 0 {
			out = append(out, e.redeemer(RedeemerMint, i, w.Redeemer))
		}
	}
	for i, c := range e.certs {
		if c.witness != nil && len(c.witness.Redeemer) > 0 {
			out = append(out, e.redeemer(RedeemerCert, i, c.witness.Redeemer))
		}
	}
	for i, w := range e.sortedWithdrawals() {
		if w.witness != nil && len(w.witness.Redeemer) > 0 {
			out = append(out, e.redeemer(RedeemerReward, i, w.witness.Redeemer))
		}
	}
	return out
}

func (e *DraftEngine) auxData() ([]byte, error) {
	entries := make([]cborEntry, 0, len(e.metadata))
	for label, value := range e.metadata {
		enc, err := encodeMetadatum(value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cborEntry{key: cborUint(label), value: enc})
	}
	return cborMap(entries), nil
}

func (e *DraftEngine) languageViews() []byte {
	used := make(map[ScriptLanguage]bool)
	for _, s := range e.scripts {
		if s.IsPlutus() {
			used[s.Language] = true
		}
	}
	for _, r := range e.refInputs {
		if s := r.Output.ScriptRef; s != nil && s.IsPlutus() {
			used[s.Language] = true
		}
	}
	entries := make([]cborEntry, 0, len(used))
	for lang := range used {
		model := e.params.CostModels[lang]
		ints := make([][]byte, len(model))
		for i, v := range model {
			ints[i] = cborInt(v)
		}
		if lang == LanguagePlutusV1 {
			// PlutusV1 的历史编码：键与值都再包一层 bytes，值为不定长数组
			indef := []byte{0x9f}
			for _, it := range ints {
				indef = append(indef, it...)
			}
			indef = append(indef, 0xff)
			entries = append(entries, cborEntry{key: cborBytes(cborUint(0)), value: cborBytes(indef)})
			continue
		}
		entries = append(entries, cborEntry{key: cborUint(uint64(lang) - 1), value: cborArray(ints...)})
	}
	return cborMap(entries)
}

func (e *DraftEngine) scriptDataHash(redeemers []Redeemer) []byte {
	items := make([][]byte, len(redeemers))
	for i, r := range redeemers {
		items[i] = encodeRedeemer(r)
	}
	buf := cborArray(items...)
	if len(e.plutusData) > 0 {
		datums := make([][]byte, len(e.plutusData))
		for i, d := range e.plutusData {
			datums[i] = d
		}
		buf = append(buf, cborArray(datums...)...)
	}
	buf = append(buf, e.languageViews()...)
	h := Blake2b256(buf)
	return h[:]
}

func (e *DraftEngine) witnessSet(redeemers []Redeemer, placeholders int) witnessSet {
	ws := witnessSet{VKeyWitnesses: placeholderVKeyWitnesses(placeholders)}
	var native, v1, v2 [][]byte
	for _, s := range e.scripts {
		switch s.Language {
		case LanguageNative:
			native = append(native, s.Bytes)
		case LanguagePlutusV1:
			v1 = append(v1, cborBytes(s.Bytes))
		case LanguagePlutusV2:
			v2 = append(v2, cborBytes(s.Bytes))
		}
	}
	if len(native) > 0 {
		ws.NativeScripts = cborArray(native...)
	}
	if len(v1) > 0 {
		ws.PlutusV1Scripts = cborArray(v1...)
	}
	if len(v2) > 0 {
		ws.PlutusV2Scripts = cborArray(v2...)
	}
	if len(e.plutusData) > 0 {
		datums := make([][]byte, len(e.plutusData))
		for i, d := range e.plutusData {
			datums[i] = d
		}
		ws.PlutusData = cborArray(datums...)
	}
	if len(redeemers) > 0 {
		items := make([][]byte, len(redeemers))
		for i, r := range redeemers {
			items[i] = encodeRedeemer(r)
		}
		ws.Redeemers = cborArray(items...)
	}
	return ws
}

func utxoInputs(utxos []Utxo) []TransactionInput {
	out := make([]TransactionInput, len(utxos))
	for i, u := range utxos {
		out[i] = u.Input
	}
	return out
}

// assemble 编码交易体与完整交易；placeholders 为占位 vkey 见证数量
func (e *DraftEngine) assemble(fee uint64, change *TransactionOutput, placeholders int) (body, tx []byte, err error) {
	ins := make([]TransactionInput, len(e.inputs))
	for i, in := range e.inputs {
		ins[i] = in.utxo.Input
	}
	b := txBody{
		Inputs:        encodeInputs(ins),
		Fee:           fee,
		TTL:           e.ttl,
		ValidityStart: e.validFrom,
	}

	outs := make([][]byte, 0, len(e.outputs)+1)
	for _, o := range e.outputs {
		outs = append(outs, encodeOutput(o))
	}
	if change != nil {
		outs = append(outs, encodeOutput(*change))
	}
	b.Outputs = cborArray(outs...)

	if len(e.certs) > 0 {
		certs := make([][]byte, len(e.certs))
		for i, c := range e.certs {
			if certs[i], err = encodeCertificate(c.cert); err != nil {
				return nil, nil, types.WrapError(types.ErrCodeInvalidParams, "encode certificate", err)
			}
		}
		b.Certificates = cborArray(certs...)
	}
	if len(e.withdrawals) > 0 {
		entries := make([]cborEntry, len(e.withdrawals))
		for i, w := range e.withdrawals {
			entries[i] = cborEntry{key: cborBytes(w.account), value: cborUint(w.amount)}
		}
		b.Withdrawals = cborMap(entries)
	}

	aux := cborNull
	if len(e.metadata) > 0 {
		if aux, err = e.auxData(); err != nil {
			return nil, nil, types.WrapError(types.ErrCodeInvalidParams, "encode metadata", err)
		}
		h := Blake2b256(aux)
		b.AuxDataHash = h[:]
	}

	if policies := e.mintPolicies(); len(policies) > 0 {
		mint := make(map[ScriptHash]MintAssets, len(policies))
		for _, p := range policies {
			mint[p] = e.mints[p]
		}
		b.Mint = encodeMint(mint)
	}

	redeemers := e.redeemers()
	if len(redeemers) > 0 || len(e.plutusData) > 0 {
		b.ScriptDataHash = e.scriptDataHash(redeemers)
	}
	if len(e.collateral) > 0 {
		b.Collateral = encodeInputs(utxoInputs(e.collateral))
	}
	if len(e.signers) > 0 {
		signers := make([][]byte, len(e.signers))
		for i, s := range e.signers {
			s := s
			signers[i] = cborBytes(s[:])
		}
		b.RequiredSigners = cborArray(signers...)
	}
	if len(e.refInputs) > 0 {
		b.ReferenceInputs = encodeInputs(utxoInputs(e.refInputs))
	}

	if body, err = cbor.Marshal(b); err != nil {
		return nil, nil, types.WrapError(types.ErrCodeMalformedEncoding, "encode transaction body", err)
	}
	ws, err := cbor.Marshal(e.witnessSet(redeemers, placeholders))
	if err != nil {
		return nil, nil, types.WrapError(types.ErrCodeMalformedEncoding, "encode witness set", err)
	}
	return body, cborArray(body, ws, cborTrue, aux), nil
}

func (e *DraftEngine) resolved() []Utxo {
	out := make([]Utxo, 0, len(e.inputs)+len(e.refInputs)+len(e.collateral))
	for _, in := range e.inputs {
		out = append(out, in.utxo)
	}
	out = append(out, e.refInputs...)
	return append(out, e.collateral...)
}

// Construct 产出最终交易
//
// 未平衡时先以 change 平衡；opts.EvaluateScripts 且配置了评估器时，
// 以评估得到的执行预算替换默认值后重新平衡。
func (e *DraftEngine) Construct(available []Utxo, change Address, opts ConstructOptions) (*Transaction, error) {
	if e.available == nil {
		e.available = available
	}
	if len(e.changeAddr) == 0 {
		e.changeAddr = change
	}
	if !e.balanced {
		if err := e.Balance(e.changeAddr, e.changeDatum); err != nil {
			return nil, err
		}
	}

	if opts.EvaluateScripts && e.evaluator != nil && len(e.redeemers()) > 0 {
		_, draft, err := e.assemble(e.fee, e.change, 0)
		if err != nil {
			return nil, err
		}
		evaluated, err := e.evaluator.Evaluate(draft, e.resolved())
		if err != nil {
			return nil, types.WrapError(types.ErrCodeInvalidParams, "script evaluation failed", err)
		}
		for _, r := range evaluated {
			e.exUnits[redeemerKey{tag: r.Tag, index: r.Index}] = r.ExUnits
		}
		if err := e.Balance(e.changeAddr, e.changeDatum); err != nil {
			return nil, err
		}
	}

	body, tx, err := e.assemble(e.fee, e.change, 0)
	if err != nil {
		return nil, err
	}
	if max := e.params.MaxTxSize; max > 0 && uint64(len(tx)) > max {
		return nil, types.Errorf(types.ErrCodeInvalidParams, "transaction size %d exceeds limit %d", len(tx), max)
	}

	outputs := append([]TransactionOutput(nil), e.outputs...)
	if e.change != nil {
		outputs = append(outputs, *e.change)
	}
	ins := make([]TransactionInput, len(e.inputs))
	for i, in := range e.inputs {
		ins[i] = in.utxo.Input
	}
	return &Transaction{
		ID:         Blake2b256(body),
		Fee:        e.fee,
		Inputs:     sortInputs(ins),
		Outputs:    outputs,
		Collateral: utxoInputs(e.collateral),
		Redeemers:  e.redeemers(),
		BodyCBOR:   body,
		CBOR:       tx,
	}, nil
}

// Fee 最近一次平衡得到的手续费
func (e *DraftEngine) Fee() uint64 { return e.fee }
