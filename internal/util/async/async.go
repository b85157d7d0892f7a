package async

import (
	"context"
	"errors"
	"fmt"
)

// Task is a named unit of concurrent work.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel starts every task and waits for all of them. It returns nil
// when all succeed, otherwise the joined errors of every failed task, each
// prefixed with the task name. Results are only aggregated after the last
// task reports.
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		index int
		err   error
	}

	results := make(chan result, len(tasks))
	for i, task := range tasks {
		go func() {
			results <- result{index: i, err: task.Func(ctx)}
		}()
	}

	errs := make([]error, len(tasks))
	for range len(tasks) {
		res := <-results
		if res.err != nil {
			errs[res.index] = fmt.Errorf("%s: %w", tasks[res.index].Name, res.err)
		}
	}

	return errors.Join(errs...)
}
