package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Manager runs workers side by side until ctx is cancelled. A worker that
// fails cancels the rest, and the first failure is returned.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

func (m *Manager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i, w := range m.workers {
		wg.Add(1)
		go func(i int, w Worker) {
			defer wg.Done()
			if err := w.Start(ctx); err != nil {
				slog.Error("manager: worker stopped", "worker", fmt.Sprintf("%T", w), "index", i, "error", err)
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i, w)
	}
	wg.Wait()
	return firstErr
}
