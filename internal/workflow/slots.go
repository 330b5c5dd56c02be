package workflow

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const slotBusyTemplateConstant = "%w: %s"

// ErrInvocationInProgress indicates the command slot already has an active invocation.
var ErrInvocationInProgress = errors.New("invocation already in progress")

// SlotRegistry allows one active invocation per logical command slot.
type SlotRegistry struct {
	mutex  sync.Mutex
	active map[string]struct{}
}

// NewSlotRegistry constructs an empty registry.
func NewSlotRegistry() *SlotRegistry {
	return &SlotRegistry{active: map[string]struct{}{}}
}

// Acquire claims the slot. The returned release function frees it and may be called more than once.
func (registry *SlotRegistry) Acquire(slot string) (func(), error) {
	slotKey := strings.TrimSpace(slot)

	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	if _, busy := registry.active[slotKey]; busy {
		return nil, fmt.Errorf(slotBusyTemplateConstant, ErrInvocationInProgress, slotKey)
	}
	registry.active[slotKey] = struct{}{}

	var releaseOnce sync.Once
	return func() {
		releaseOnce.Do(func() {
			registry.mutex.Lock()
			defer registry.mutex.Unlock()
			delete(registry.active, slotKey)
		})
	}, nil
}

// Active reports whether the slot is claimed.
func (registry *SlotRegistry) Active(slot string) bool {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	_, busy := registry.active[strings.TrimSpace(slot)]
	return busy
}
