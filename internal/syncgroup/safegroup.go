// Package syncgroup runs related goroutines that fail together
package syncgroup

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/skeletrack/skeletrack/pkg/logger"
)

// SafeGroup wraps errgroup.Group and turns a panicking goroutine into an
// error, which cancels the group's context like any other failure.
type SafeGroup struct {
	group  *errgroup.Group
	logger logger.Logger
}

// New creates a SafeGroup whose context is cancelled when the first
// goroutine fails.
func New(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{
		group:  g,
		logger: log,
	}, ctx
}

// Go runs fn in a new goroutine
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.logger.Error("Goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()

		return fn()
	})
}

// SetLimit sets the maximum number of concurrent goroutines
func (sg *SafeGroup) SetLimit(n int) {
	sg.group.SetLimit(n)
}

// Wait blocks until every goroutine has returned and reports the first
// error.
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}
