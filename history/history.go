// Package history persists the sources resolved by previous sessions.
package history

import (
	"sort"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/tubelink/tubelink/filesystem"
	"github.com/tubelink/tubelink/where"
)

// cacher is the disk-backed registry of entries keyed by video id or reference.
var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// now is replaced in tests.
var now = time.Now

// Get returns every recorded entry.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Recent returns the entries, most recently resolved first.
func Recent() ([]*Entry, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	entries := lo.Values(saved)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].LastResolved.Equal(entries[j].LastResolved) {
			return entries[i].encode() < entries[j].encode()
		}
		return entries[i].LastResolved.After(entries[j].LastResolved)
	})
	return entries, nil
}

// Save records a resolution. Resolving the same source again keeps its first
// resolution time and bumps its count.
func Save(entry *Entry) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record := *entry
	record.LastResolved = now()
	record.FirstResolved = record.LastResolved
	record.Count = 1

	if existing, exists := saved[record.encode()]; exists {
		record.FirstResolved = existing.FirstResolved
		record.Count = existing.Count + 1
	}

	saved[record.encode()] = &record
	return cacher.Set(saved)
}

// Remove permanently deletes an entry.
func Remove(entry *Entry) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, entry.encode())
	return cacher.Set(saved)
}

// Clear deletes every entry.
func Clear() error {
	return cacher.Set(make(map[string]*Entry))
}
