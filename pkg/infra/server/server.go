package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kart-io/logger"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Manager starts servers in registration order and stops them in reverse.
type Manager struct {
	servers         []Runnable
	shutdownTimeout time.Duration

	mu      sync.Mutex
	started []Runnable
}

// NewManager creates a manager; a non-positive timeout uses
// DefaultShutdownTimeout.
func NewManager(shutdownTimeout time.Duration) *Manager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Manager{shutdownTimeout: shutdownTimeout}
}

// Add registers a server. Nil servers are ignored.
func (m *Manager) Add(servers ...Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range servers {
		if s != nil {
			m.servers = append(m.servers, s)
		}
	}
}

// Start starts all servers. If one fails, the ones already started are
// stopped again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.started) > 0 {
		return fmt.Errorf("server manager already started")
	}

	for _, s := range m.servers {
		if err := s.Start(ctx); err != nil {
			stopErr := m.stopLocked(ctx)
			return errors.Join(fmt.Errorf("failed to start %s server: %w", s.Name(), err), stopErr)
		}
		m.started = append(m.started, s)
		logger.Infow("server started", "name", s.Name())
	}
	return nil
}

// Stop stops started servers in reverse order.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		s := m.started[i]
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s server: %w", s.Name(), err))
			continue
		}
		logger.Infow("server stopped", "name", s.Name())
	}
	m.started = nil
	return errors.Join(errs...)
}

// Run starts all servers and then waits like Wait.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	return m.Wait(ctx)
}

// Wait blocks until ctx is done or SIGINT/SIGTERM arrives. A failing serve
// loop also ends the wait. Started servers are then stopped within the
// shutdown timeout.
func (m *Manager) Wait(ctx context.Context) error {
	failed := make(chan error, 1)
	m.mu.Lock()
	for _, s := range m.started {
		go func(s Runnable) {
			if err := <-s.Err(); err != nil {
				select {
				case failed <- fmt.Errorf("%s server: %w", s.Name(), err):
				default:
				}
			}
		}(s)
	}
	m.mu.Unlock()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.Infow("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context done, shutting down")
	case runErr = <-failed:
		logger.Errorw("server failed, shutting down", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, m.Stop(shutdownCtx))
}
