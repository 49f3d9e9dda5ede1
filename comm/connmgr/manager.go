// Package connmgr implements the per-run connection pool: reuse by
// connection key, invalidate on error, and a bounded connect that races a
// stop signal against a timeout.
package connmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hollysys/plc-comm-forge/comm/driver"
	"github.com/hollysys/plc-comm-forge/comm/model"
)

// Manager is bound to one run id and holds a single-writer map from
// ConnectionKey to ConnectedClient.
type Manager struct {
	runID  string
	logger *slog.Logger

	mu    sync.Mutex
	conns map[driver.ConnectionKey]driver.ConnectedClient
}

// New builds a Manager for one run, logging under runID.
func New(runID string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runID:  runID,
		logger: logger,
		conns:  make(map[driver.ConnectionKey]driver.ConnectedClient),
	}
}

// EnsureConnected returns the pooled client for profile, connecting if
// necessary. It races three outcomes: stopCh closing (stop requested),
// drv.Connect succeeding, or timeout elapsing — the first to resolve wins
// and the others are abandoned (spec §4.6).
func (m *Manager) EnsureConnected(ctx context.Context, drv driver.CommDriver, profile model.ConnectionProfile, stopCh <-chan struct{}, timeout time.Duration) (driver.ConnectedClient, error) {
	key := drv.ConnectionKey(profile)

	m.mu.Lock()
	if c, ok := m.conns[key]; ok {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	select {
	case <-stopCh:
		return nil, driver.NewCommError("stop requested")
	default:
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type connectResult struct {
		client driver.ConnectedClient
		err    error
	}
	resultCh := make(chan connectResult, 1)
	go func() {
		c, err := drv.Connect(connectCtx, profile)
		resultCh <- connectResult{client: c, err: err}
	}()

	select {
	case <-stopCh:
		return nil, driver.NewCommError("stop requested")
	case <-connectCtx.Done():
		return nil, driver.ErrTimeout
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		m.mu.Lock()
		m.conns[key] = res.client
		m.mu.Unlock()
		return res.client, nil
	}
}

// Invalidate removes the pooled client for key, forcing a reconnect on next
// use. It logs only if a client was actually present, matching the
// no-op-if-absent contract this pool's design follows.
func (m *Manager) Invalidate(key driver.ConnectionKey, reason string) {
	m.mu.Lock()
	c, ok := m.conns[key]
	if ok {
		delete(m.conns, key)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		m.logger.Warn("connmgr: close failed during invalidate", "runId", m.runID, "key", fmt.Sprint(key), "err", err)
	}
	m.logger.Info("connmgr: invalidated connection", "runId", m.runID, "key", fmt.Sprint(key), "reason", reason)
}

// CloseAll closes every pooled connection, used when a run terminates.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.conns {
		if err := c.Close(); err != nil {
			m.logger.Warn("connmgr: close failed", "runId", m.runID, "key", fmt.Sprint(key), "err", err)
		}
	}
	m.conns = make(map[driver.ConnectionKey]driver.ConnectedClient)
}
