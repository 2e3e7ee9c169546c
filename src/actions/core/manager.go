package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Module is a background worker with an explicit lifecycle.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager starts modules in registration order and stops them in reverse.
type Manager struct {
	modules []Module
	running []Module
	log     logrus.FieldLogger
	mu      sync.Mutex
	started bool
}

// NewManager creates a manager with the provided modules.
func NewManager(log logrus.FieldLogger, mods ...Module) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		modules: mods,
		log:     log,
	}
}

// Add registers additional modules before Start is invoked.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("actions.Manager: cannot add modules after start")
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Start initializes all modules. If any module fails, the ones already
// running are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("actions.Manager already started")
	}

	running := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if mod == nil {
			continue
		}
		if err := mod.Start(ctx); err != nil {
			for i := len(running) - 1; i >= 0; i-- {
				running[i].Stop(ctx)
			}
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		m.log.WithField("module", mod.Name()).Info("module started")
		running = append(running, mod)
	}

	m.running = running
	m.started = true
	return nil
}

// Running lists the names of started modules.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.running))
	for _, mod := range m.running {
		names = append(names, mod.Name())
	}
	return names
}

// Stop shuts down running modules in reverse order.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.running) - 1; i >= 0; i-- {
		m.running[i].Stop(ctx)
		m.log.WithField("module", m.running[i].Name()).Info("module stopped")
	}
	m.running = nil
	m.started = false
}
