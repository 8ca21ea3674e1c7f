package syncgroup_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/skeletrack/skeletrack/internal/syncgroup"
	"github.com/skeletrack/skeletrack/pkg/logger"
)

func TestSafeGroup_FirstErrorCancels(t *testing.T) {
	g, ctx := syncgroup.New(context.Background(), logger.Discard())
	boom := errors.New("receiver failed")

	g.Go(func() error { return boom })
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("sibling was not cancelled")
		}
	})

	if err := g.Wait(); !errors.Is(err, boom) {
		t.Errorf("expected first error, got %v", err)
	}
}

func TestSafeGroup_RecoversPanic(t *testing.T) {
	g, ctx := syncgroup.New(context.Background(), logger.Discard())

	g.Go(func() error { panic("printer exploded") })
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	err := g.Wait()
	if err == nil || !strings.Contains(err.Error(), "printer exploded") {
		t.Errorf("expected panic converted to error, got %v", err)
	}
}

func TestSafeGroup_Success(t *testing.T) {
	g, _ := syncgroup.New(context.Background(), logger.Discard())
	g.SetLimit(1)

	count := 0
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			count++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 runs, got %d", count)
	}
}
