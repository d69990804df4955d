// Package storage 定义后端连接的统一接口，并集中管理健康检查和关闭。
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Client is implemented by every backend connection (vector store,
// cache, relational database).
type Client interface {
	// Name returns the backend type, e.g. "milvus" or "redis".
	Name() string
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the connection.
	Close() error
}

// HealthStatus is the result of one Ping.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// Manager is a registry of named clients. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	order   []string
	clients map[string]Client
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{clients: make(map[string]Client)}
}

// Register adds a client under a unique name.
func (m *Manager) Register(name string, client Client) error {
	if name == "" || client == nil {
		return fmt.Errorf("storage: name and client are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[name]; ok {
		return fmt.Errorf("storage: client %q already registered", name)
	}
	m.clients[name] = client
	m.order = append(m.order, name)
	return nil
}

// List returns registered names in registration order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// HealthCheckAll pings every client concurrently.
func (m *Manager) HealthCheckAll(ctx context.Context) []HealthStatus {
	m.mu.RLock()
	names := append([]string(nil), m.order...)
	clients := make([]Client, len(names))
	for i, n := range names {
		clients[i] = m.clients[n]
	}
	m.mu.RUnlock()

	statuses := make([]HealthStatus, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			err := clients[i].Ping(ctx)
			statuses[i] = HealthStatus{Name: names[i], Healthy: err == nil, Latency: time.Since(start)}
			if err != nil {
				statuses[i].Error = err.Error()
			}
		}(i)
	}
	wg.Wait()

	sort.SliceStable(statuses, func(a, b int) bool { return statuses[a].Name < statuses[b].Name })
	return statuses
}

// CloseAll closes clients in reverse registration order and joins errors.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.order) - 1; i >= 0; i-- {
		name := m.order[i]
		if err := m.clients[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.order = nil
	m.clients = make(map[string]Client)
	return errors.Join(errs...)
}
