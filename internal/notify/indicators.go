package notify

import "sync"

// Indicators holds the unread flag of each notification stream.
type Indicators struct {
	mu    sync.RWMutex
	flags map[Kind]bool
}

// NewIndicators creates cleared indicators.
func NewIndicators() *Indicators {
	return &Indicators{flags: make(map[Kind]bool)}
}

// Set raises the indicator for kind.
func (i *Indicators) Set(kind Kind) {
	i.mu.Lock()
	i.flags[kind] = true
	i.mu.Unlock()
}

// Clear lowers the indicator for kind and reports whether it was raised.
func (i *Indicators) Clear(kind Kind) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	was := i.flags[kind]
	delete(i.flags, kind)
	return was
}

// Get reports whether the indicator for kind is raised.
func (i *Indicators) Get(kind Kind) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.flags[kind]
}

// Snapshot returns the state of every indicator.
func (i *Indicators) Snapshot() map[Kind]bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		out[k] = i.flags[k]
	}
	return out
}
