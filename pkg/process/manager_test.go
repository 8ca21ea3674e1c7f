package process

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/skeletrack/skeletrack/pkg/logger"
)

// fakeSignals captures the channel registered with signal.Notify
type fakeSignals struct {
	mu sync.Mutex
	ch chan<- os.Signal
}

func (f *fakeSignals) notify(c chan<- os.Signal, _ ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = c
}

func (f *fakeSignals) send(sig os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch <- sig
}

func newTestManager() (*Manager, *fakeSignals, chan int) {
	signals := &fakeSignals{}
	exits := make(chan int, 1)

	m := NewManager(logger.Discard())
	m.notify = signals.notify
	m.stop = func(chan<- os.Signal) {}
	m.exit = func(code int) { exits <- code }
	return m, signals, exits
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestManager_SignalCancelsContext(t *testing.T) {
	m, signals, _ := newTestManager()

	var order []int
	var mu sync.Mutex
	for i := 1; i <= 3; i++ {
		i := i
		m.RegisterShutdownHandler(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	ctx := m.Start(context.Background())
	signals.send(os.Interrupt)
	waitDone(t, ctx)
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("expected handlers %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected handlers in reverse order %v, got %v", want, order)
		}
	}
}

func TestManager_SecondSignalForcesExit(t *testing.T) {
	m, signals, exits := newTestManager()

	ctx := m.Start(context.Background())
	signals.send(os.Interrupt)
	waitDone(t, ctx)
	signals.send(os.Interrupt)

	select {
	case code := <-exits:
		if code != 130 {
			t.Errorf("expected exit code 130, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected forced exit on second signal")
	}
	m.Stop()
}

func TestManager_ParentCancellation(t *testing.T) {
	m, _, exits := newTestManager()

	called := make(chan struct{})
	m.RegisterShutdownHandler(func() { close(called) })

	parent, cancel := context.WithCancel(context.Background())
	ctx := m.Start(parent)
	cancel()

	waitDone(t, ctx)
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown handler not called")
	}
	m.Stop()

	select {
	case <-exits:
		t.Error("parent cancellation must not exit the process")
	default:
	}
}

func TestManager_Heartbeat(t *testing.T) {
	m, _, _ := newTestManager()

	beats := make(chan struct{}, 10)
	m.SetHeartbeat(5*time.Millisecond, func() {
		select {
		case beats <- struct{}{}:
		default:
		}
	})

	m.Start(context.Background())
	defer m.Stop()

	select {
	case <-beats:
	case <-time.After(2 * time.Second):
		t.Fatal("expected heartbeat")
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m, _, _ := newTestManager()
	m.Stop()
	m.Stop()
}
