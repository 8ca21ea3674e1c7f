// Package process turns OS signals into context cancellation
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/skeletrack/skeletrack/pkg/logger"
)

// Manager handles process lifecycle and signals. The first interrupt
// cancels the context returned by Start; a second one exits the process,
// since a session blocked inside the engine cannot observe cancellation.
type Manager struct {
	logger            logger.Logger
	shutdownHandlers  []func()
	heartbeatFunc     func()
	heartbeatInterval time.Duration
	heartbeatStop     chan struct{}

	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
	exit   func(code int)

	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	sigChan chan os.Signal
}

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	return &Manager{
		logger:           log.WithTarget("process"),
		shutdownHandlers: make([]func(), 0),
		notify:           signal.Notify,
		stop:             signal.Stop,
		exit:             os.Exit,
	}
}

// RegisterShutdownHandler adds a handler run when shutdown starts.
// Handlers run in reverse registration order.
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// SetHeartbeat runs fn every interval while the manager is running
func (m *Manager) SetHeartbeat(interval time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeatInterval = interval
	m.heartbeatFunc = fn
}

// Start watches for SIGINT, SIGTERM and SIGHUP. The returned context is
// cancelled on the first signal or when parent is done.
func (m *Manager) Start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		cancel()
		return ctx
	}
	m.running = true
	m.cancel = cancel
	sigChan := make(chan os.Signal, 2)
	m.sigChan = sigChan
	heartbeat := m.heartbeatFunc != nil && m.heartbeatInterval > 0
	m.mu.Unlock()

	m.notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		select {
		case <-ctx.Done():
			m.handleShutdown()
			return
		case sig := <-sigChan:
			m.logger.Info("Received signal", logger.WithField("signal", sig))
			m.handleShutdown()
		}

		// Only a second signal matters from here on.
		select {
		case <-parent.Done():
		case sig, ok := <-sigChan:
			if ok {
				m.logger.Warn("Received second signal, forcing exit", logger.WithField("signal", sig))
				m.exit(130)
			}
		}
	}()

	if heartbeat {
		m.startHeartbeat(ctx)
	}
	return ctx
}

// Stop releases signal handling and waits for background goroutines
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.sigChan == nil {
		m.mu.Unlock()
		return
	}
	sigChan := m.sigChan
	m.sigChan = nil
	cancel := m.cancel
	m.running = false
	heartbeatStop := m.heartbeatStop
	m.heartbeatStop = nil
	m.mu.Unlock()

	m.stop(sigChan)
	cancel()
	close(sigChan)
	if heartbeatStop != nil {
		close(heartbeatStop)
	}

	m.wg.Wait()
}

func (m *Manager) handleShutdown() {
	m.mu.Lock()
	handlers := make([]func(), len(m.shutdownHandlers))
	copy(handlers, m.shutdownHandlers)
	m.shutdownHandlers = nil
	cancel := m.cancel
	m.mu.Unlock()

	if len(handlers) > 0 {
		m.logger.Debug("Running shutdown handlers", logger.WithField("count", len(handlers)))
	}
	cancel()

	for i := len(handlers) - 1; i >= 0; i-- {
		handlers[i]()
	}
}

func (m *Manager) startHeartbeat(ctx context.Context) {
	m.mu.Lock()
	m.heartbeatStop = make(chan struct{})
	stop := m.heartbeatStop
	interval := m.heartbeatInterval
	fn := m.heartbeatFunc
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}
