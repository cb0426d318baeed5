package orchestration

import (
	"context"
	"fmt"
)

// withContextCancelHook runs onContextDone if ctx ends before the returned
// channel is closed.
func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}

func panicSafe(name string, run func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s panicked: %v", name, recovered)
		}
	}()

	if err = run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
