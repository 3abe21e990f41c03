// Package directory is the session-scoped store of resolved identities,
// keyed by native handle. Entries are replaced wholesale and never evicted.
package directory

import (
	"sort"
	"sync"

	"github.com/hazyhaar/fedimark/identity"
)

// Directory maps native handles to identity records. It is safe for
// concurrent use: the response listener writes while the scanner reads.
type Directory struct {
	mu      sync.RWMutex
	records map[string]identity.Record
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{records: make(map[string]identity.Record)}
}

// Upsert stores rec under its native handle, replacing any previous record.
// It reports whether the stored value changed. Records without a native
// handle are ignored.
func (d *Directory) Upsert(rec identity.Record) bool {
	if rec.NativeHandle == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.records[rec.NativeHandle]
	d.records[rec.NativeHandle] = rec
	return !ok || prev != rec
}

// Get returns the record for a native handle.
func (d *Directory) Get(nativeHandle string) (identity.Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.records[nativeHandle]
	return rec, ok
}

// Len returns the number of records.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// Snapshot returns a copy of all records sorted by native handle.
func (d *Directory) Snapshot() []identity.Record {
	d.mu.RLock()
	out := make([]identity.Record, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, rec)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].NativeHandle < out[j].NativeHandle })
	return out
}
