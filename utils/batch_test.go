package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelExecute(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		items       []int
		concurrency int
		wantErr     bool
	}{
		{
			name:        "empty items",
			items:       []int{},
			concurrency: 5,
		},
		{
			name:        "single item",
			items:       []int{1},
			concurrency: 5,
		},
		{
			name:        "multiple items",
			items:       []int{1, 2, 3, 4, 5},
			concurrency: 3,
		},
		{
			name:        "default concurrency",
			items:       []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			concurrency: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ParallelExecute(ctx, tt.items, func(ctx context.Context, item int) (int, error) {
				// 让后提交的任务先完成，验证结果仍按输入顺序
				time.Sleep(time.Duration(10-item) * time.Millisecond)
				return item * 2, nil
			}, tt.concurrency)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParallelExecute() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if len(results) != len(tt.items) {
				t.Fatalf("ParallelExecute() got %d results, want %d", len(results), len(tt.items))
			}
			for i, result := range results {
				if result != tt.items[i]*2 {
					t.Errorf("ParallelExecute() results[%d] = %d, want %d", i, result, tt.items[i]*2)
				}
			}
		})
	}
}

func TestParallelExecute_WithErrors(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("test error")

	items := []int{1, 2, 3, 4, 5}
	results, err := ParallelExecute(ctx, items, func(ctx context.Context, item int) (int, error) {
		if item == 3 {
			return 0, wantErr
		}
		return item * 2, nil
	}, 5)

	if !errors.Is(err, wantErr) {
		t.Errorf("ParallelExecute() error = %v, want %v", err, wantErr)
	}
	if results != nil {
		t.Errorf("ParallelExecute() results = %v, want nil", results)
	}
}

func TestParallelExecute_CancelsOnFirstError(t *testing.T) {
	var cancelled int32
	_, err := ParallelExecute(context.Background(), []int{1, 2}, func(ctx context.Context, item int) (int, error) {
		if item == 1 {
			return 0, errors.New("boom")
		}
		select {
		case <-ctx.Done():
			atomic.AddInt32(&cancelled, 1)
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return item, nil
		}
	}, 2)

	if err == nil {
		t.Fatal("ParallelExecute() error = nil, want error")
	}
	if atomic.LoadInt32(&cancelled) != 1 {
		t.Errorf("second query was not cancelled")
	}
}

func TestBatchArray(t *testing.T) {
	tests := []struct {
		name        string
		array       []int
		batchSize   int
		wantBatches int
	}{
		{
			name:        "empty array",
			array:       []int{},
			batchSize:   5,
			wantBatches: 0,
		},
		{
			name:        "single batch",
			array:       []int{1, 2, 3},
			batchSize:   5,
			wantBatches: 1,
		},
		{
			name:        "multiple batches",
			array:       []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			batchSize:   3,
			wantBatches: 4,
		},
		{
			name:        "non-positive size keeps one batch",
			array:       []int{1, 2, 3},
			batchSize:   0,
			wantBatches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := BatchArray(tt.array, tt.batchSize)
			if len(batches) != tt.wantBatches {
				t.Errorf("BatchArray() got %d batches, want %d", len(batches), tt.wantBatches)
			}

			totalLen := 0
			for _, batch := range batches {
				totalLen += len(batch)
			}
			if totalLen != len(tt.array) {
				t.Errorf("BatchArray() total length = %d, want %d", totalLen, len(tt.array))
			}
		})
	}
}
