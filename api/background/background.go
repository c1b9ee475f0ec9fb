package background

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks, like sending emails, off the
// request path. Shutdown waits for in-flight tasks before the process exits.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Run(name string, task func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{
					"task":  name,
					"panic": rec,
					"trace": string(debug.Stack()),
				}).Error("background task panicked")
			}
		}()

		if err := task(); err != nil {
			b.log.WithFields(logrus.Fields{
				"task":    name,
				"message": err,
			}).Error("background task failed")
		}
	}()
}

func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
