package refresh

import (
	"sort"
	"time"
)

type entry struct {
	id              string
	operations      []Operation
	refreshing      bool
	flight          *flight
	lastRefreshedAt time.Time
	lastError       string
}

// flight is the outcome of a running refresh. err is valid once done is
// closed.
type flight struct {
	done chan struct{}
	err  error
}

// registry maps tab ids to entries and tracks the active tab. It is not safe
// for concurrent use; the Coordinator serializes access.
type registry struct {
	tabs     map[string]*entry
	activeID string
}

func newRegistry() *registry {
	return &registry{tabs: make(map[string]*entry)}
}

// register inserts a tab or replaces the operations of an existing one.
// Replacing keeps the entry, so an in-flight refresh still applies to it.
func (r *registry) register(id string, ops []Operation) {
	ops = append([]Operation(nil), ops...)
	if e, ok := r.tabs[id]; ok {
		e.operations = ops
		return
	}
	r.tabs[id] = &entry{id: id, operations: ops}
}

// unregister drops the tab and its transient state. It reports whether the
// tab existed.
func (r *registry) unregister(id string) bool {
	if _, ok := r.tabs[id]; !ok {
		return false
	}
	delete(r.tabs, id)
	return true
}

// setActive points the registry at id. The tab need not be registered yet;
// it becomes active as soon as it is.
func (r *registry) setActive(id string) {
	r.activeID = id
}

func (r *registry) get(id string) (*entry, bool) {
	e, ok := r.tabs[id]
	return e, ok
}

func (r *registry) anyRefreshing() bool {
	for _, e := range r.tabs {
		if e.refreshing {
			return true
		}
	}
	return false
}

func (r *registry) view(e *entry) TabEntry {
	return TabEntry{
		ID:              e.id,
		Operations:      len(e.operations),
		Active:          e.id == r.activeID,
		Refreshing:      e.refreshing,
		LastRefreshedAt: e.lastRefreshedAt,
		LastError:       e.lastError,
	}
}

// entries returns views of every tab sorted by id.
func (r *registry) entries() []TabEntry {
	out := make([]TabEntry, 0, len(r.tabs))
	for _, e := range r.tabs {
		out = append(out, r.view(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
