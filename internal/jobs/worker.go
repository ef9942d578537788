package jobs

import (
	"context"
	"log"
	"time"
)

// Task is a unit of periodic work driven by a Worker.
type Task interface {
	Run(ctx context.Context) error
}

// Worker runs a task on a fixed interval until stopped. It backs the
// documents directory scanner, so new files get indexed without an
// explicit ingest call.
type Worker struct {
	task     Task
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWorker(task Task, interval time.Duration) *Worker {
	return &Worker{
		task:     task,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs the task loop. It returns when the context is cancelled or
// Stop is called. A failed run is logged and retried on the next tick.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("jobs: worker running every %v", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs: worker stopped, context cancelled")
			return
		case <-w.stopChan:
			log.Println("jobs: worker stopped")
			return
		case <-ticker.C:
			if err := w.task.Run(ctx); err != nil {
				log.Printf("jobs: task failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to drain.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
