package txbuilder

import "context"

// Task 延迟执行的构建步骤
//
// 每个任务只持有自身需要的数据，在 complete 时对目标执行一次。
type Task[T any] interface {
	// Name 任务名称（用于日志）
	Name() string
	// Run 执行任务
	Run(ctx context.Context, target T) error
}

// TaskQueue 有序的延迟任务队列
//
// **执行语义**：
//   - Drain 严格按入队顺序逐个执行，前一个完成后才开始下一个
//   - 执行过程中新入队的任务追加在末尾，同一次 Drain 中执行
//   - 任一任务失败立即停止并返回错误，剩余任务不再执行
//   - 已执行的任务出队，再次 Drain 不会重复执行
//
// 队列不是并发安全的，由单个构建独占。
type TaskQueue[T any] struct {
	tasks []Task[T]
}

// Enqueue 追加任务
func (q *TaskQueue[T]) Enqueue(task Task[T]) {
	q.tasks = append(q.tasks, task)
}

// Len 待执行任务数
func (q *TaskQueue[T]) Len() int {
	return len(q.tasks)
}

// Drain 按 FIFO 顺序执行全部任务，返回已执行（含失败的那个）的任务数
func (q *TaskQueue[T]) Drain(ctx context.Context, target T) (int, error) {
	ran := 0
	for len(q.tasks) > 0 {
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		ran++
		if err := task.Run(ctx, target); err != nil {
			return ran, err
		}
	}
	q.tasks = nil
	return ran, nil
}

// TaskFunc 函数形式的任务
type TaskFunc[T any] struct {
	Label string
	Fn    func(ctx context.Context, target T) error
}

// Name 任务名称
func (f TaskFunc[T]) Name() string { return f.Label }

// Run 执行函数
func (f TaskFunc[T]) Run(ctx context.Context, target T) error { return f.Fn(ctx, target) }
