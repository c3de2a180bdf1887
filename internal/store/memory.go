package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/high-horse/fingerprint-server/internal/template"
)

// Memory is an in-process Store. Group and image ids are kept in sorted tree
// maps so listings come out ordered.
type Memory struct {
	mu       sync.RWMutex
	groups   *treemap.Map // group id -> *treemap.Map of image id -> *template.LandmarkSet
	verdicts *treemap.Map // image id -> *treemap.Map of group id -> Verdict
}

func NewMemory() *Memory {
	return &Memory{
		groups:   treemap.NewWithStringComparator(),
		verdicts: treemap.NewWithStringComparator(),
	}
}

func (m *Memory) Enroll(_ context.Context, set *template.LandmarkSet) error {
	if err := checkEnroll(set); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inner(m.groups, set.GroupID).Put(set.ImageID, set.Clone())
	return nil
}

func (m *Memory) Groups(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, m.groups.Size())
	for _, k := range m.groups.Keys() {
		out = append(out, k.(string))
	}
	return out, nil
}

func (m *Memory) Members(_ context.Context, group string) ([]*template.LandmarkSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.groups.Get(group)
	if !ok {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, group)
	}
	members := v.(*treemap.Map)
	out := make([]*template.LandmarkSet, 0, members.Size())
	for _, s := range members.Values() {
		out = append(out, s.(*template.LandmarkSet).Clone())
	}
	return out, nil
}

func (m *Memory) PutVerdict(_ context.Context, v Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inner(m.verdicts, v.ImageID).Put(v.GroupID, v)
	return nil
}

func (m *Memory) Verdicts(_ context.Context, imageID string) ([]Verdict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.verdicts.Get(imageID)
	if !ok {
		return nil, fmt.Errorf("%w: verdicts for %s", ErrNotFound, imageID)
	}
	byGroup := v.(*treemap.Map)
	out := make([]Verdict, 0, byGroup.Size())
	for _, v := range byGroup.Values() {
		out = append(out, v.(Verdict))
	}
	return out, nil
}

func inner(outer *treemap.Map, key string) *treemap.Map {
	if v, ok := outer.Get(key); ok {
		return v.(*treemap.Map)
	}
	m := treemap.NewWithStringComparator()
	outer.Put(key, m)
	return m
}
