// Package process ties a run's lifetime to OS signals
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
)

// Manager cancels the run context on the first interrupt. Compressions
// already handed to the tool are not interrupted; only work that has not
// started yet, such as a lock wait, observes the cancellation.
type Manager struct {
	logger           logger.Logger
	shutdownHandlers []func()
	sigChan          chan os.Signal
	stop             chan struct{}
	wg               sync.WaitGroup
	mu               sync.Mutex
	running          bool
}

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		logger:  log,
		sigChan: make(chan os.Signal, 1),
	}
}

// RegisterShutdownHandler adds a handler run once on interrupt, newest first
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// Start subscribes to SIGINT, SIGTERM and SIGHUP and returns a context that
// is cancelled when one arrives. Stop must be called to unsubscribe.
func (m *Manager) Start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		cancel()
		return parent
	}
	m.running = true
	m.stop = make(chan struct{})
	m.mu.Unlock()

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		select {
		case <-m.stop:
		case <-ctx.Done():
		case sig := <-m.sigChan:
			m.logger.Warn("Interrupted, directories not yet locked will be abandoned",
				logger.WithField("signal", sig.String()))
			m.handleShutdown()
		}
	}()

	return ctx
}

// Stop unsubscribes from signals and waits for the watcher to exit
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	signal.Stop(m.sigChan)
	m.wg.Wait()
}

func (m *Manager) handleShutdown() {
	m.mu.Lock()
	handlers := make([]func(), len(m.shutdownHandlers))
	copy(handlers, m.shutdownHandlers)
	m.mu.Unlock()

	for i := len(handlers) - 1; i >= 0; i-- {
		handlers[i]()
	}
}
