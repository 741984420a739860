// Package session holds ephemeral per-customer flags for the current process.
//
// This is heuristic state (greeting suppression, last intent), not durable
// conversation data: two concurrent turns may both observe an unset flag.
package session

import (
	"sync"
)

// Memory is an in-process per-(tenant, customer) flag store.
type Memory struct {
	mu    sync.RWMutex
	flags map[string]map[string]any
}

// NewMemory creates an empty session memory.
func NewMemory() *Memory {
	return &Memory{flags: make(map[string]map[string]any)}
}

func sessionKey(tenantID, customerID string) string {
	return tenantID + ":" + customerID
}

// Get returns a flag value, or nil if unset.
func (m *Memory) Get(tenantID, customerID, key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[sessionKey(tenantID, customerID)][key]
}

// GetBool returns a boolean flag, false if unset or of another type.
func (m *Memory) GetBool(tenantID, customerID, key string) bool {
	v, _ := m.Get(tenantID, customerID, key).(bool)
	return v
}

// Set stores a flag value.
func (m *Memory) Set(tenantID, customerID, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := sessionKey(tenantID, customerID)
	if m.flags[k] == nil {
		m.flags[k] = make(map[string]any)
	}
	m.flags[k][key] = value
}

// Clear removes all flags for a customer.
func (m *Memory) Clear(tenantID, customerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, sessionKey(tenantID, customerID))
}

// Well-known flag keys.
const (
	KeyGreetingSent = "greeting_sent"
	KeyLastIntent   = "last_intent"
)
