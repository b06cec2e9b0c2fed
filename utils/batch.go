package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency 默认并发数量
const DefaultConcurrency = 5

// ParallelExecute 并行执行多个查询
//
// 结果按输入顺序返回；任一查询失败即取消其余查询并返回该错误。
//
// 示例：
//
//	chunks := BatchArray(addresses, 20)
//	results, err := ParallelExecute(ctx, chunks, func(ctx context.Context, chunk []string) ([]types.UTxO, error) {
//	    return provider.GetUtxos(ctx, chunk)
//	}, DefaultConcurrency)
func ParallelExecute[T any, R any](
	ctx context.Context,
	items []T,
	executeFn func(ctx context.Context, item T) (R, error),
	concurrency int,
) ([]R, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			result, err := executeFn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BatchArray 将数组分批次处理
func BatchArray[T any](array []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = len(array)
	}
	batches := make([][]T, 0)
	for i := 0; i < len(array); i += batchSize {
		end := i + batchSize
		if end > len(array) {
			end = len(array)
		}
		batches = append(batches, array[i:end])
	}
	return batches
}
