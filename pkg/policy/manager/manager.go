package manager

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clearline-hq/verdict/pkg/policy/flex"
	"clearline-hq/verdict/pkg/policy/source"
)

// Manager owns the active policy set.
//
// Policies are loaded from a source.Source and indexed by name. Reload
// builds a complete replacement index before swapping it in, so
// concurrent Get calls always see a consistent set.
type Manager struct {
	source source.Source
	logger *slog.Logger

	mu       sync.RWMutex
	policies map[string]*source.Policy
	loadedAt time.Time
	reloads  uint64
}

// NewManager creates a manager over the given source. The initial set
// is empty until the first Reload.
func NewManager(src source.Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		source:   src,
		logger:   logger,
		policies: make(map[string]*source.Policy),
	}
}

// Reload loads all policies from the source and atomically replaces
// the active set. On error the previous set stays active.
func (m *Manager) Reload(ctx context.Context) error {
	policies, err := m.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	next := make(map[string]*source.Policy, len(policies))
	for _, p := range policies {
		if prev, ok := next[p.Name]; ok {
			return fmt.Errorf("duplicate policy %q (declared in %s and %s)",
				p.Name, prev.SourceFile, p.SourceFile)
		}
		next[p.Name] = p
	}

	m.mu.Lock()
	m.policies = next
	m.loadedAt = time.Now()
	m.reloads++
	count := m.reloads
	m.mu.Unlock()

	for _, p := range policies {
		fp := flex.Fingerprint(&p.Rules)
		m.logger.Debug("Policy loaded",
			"name", p.Name,
			"version", p.Version,
			"fingerprint", hex.EncodeToString(fp[24:]),
		)
	}

	m.logger.Info("Policy set reloaded",
		"policies", len(next),
		"reload_count", count,
	)

	return nil
}

// Get returns the named policy from the active set.
func (m *Manager) Get(name string) (*source.Policy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[name]
	return p, ok
}

// Names returns the names of all active policies, unordered.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.policies))
	for name := range m.policies {
		names = append(names, name)
	}
	return names
}

// Len returns the number of active policies.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.policies)
}

// LoadedAt returns when the active set was last swapped in. It is the
// zero time before the first successful Reload.
func (m *Manager) LoadedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadedAt
}
