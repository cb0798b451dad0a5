// Package types assigns stable ComponentType indices to component names.
//
// All name resolution happens here, once, at registration time. Group
// matching works on the resulting indices only.
package types

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zeusync/ecsrx/internal/core/models"
)

var (
	ErrEmptyName   = errors.New("component type name is empty")
	ErrUnknownType = errors.New("component type not registered")
)

type Registry struct {
	mu     sync.RWMutex
	byName map[string]models.ComponentType
	names  []string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]models.ComponentType),
	}
}

// Register returns the index for name, assigning the next free one on first
// use. Registering the same name twice yields the same index.
func (r *Registry) Register(name string) (models.ComponentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	t := models.ComponentType(len(r.names))
	r.byName[name] = t
	r.names = append(r.names, name)
	return t, nil
}

func (r *Registry) MustRegister(name string) models.ComponentType {
	t, err := r.Register(name)
	if err != nil {
		panic(err)
	}
	return t
}

func (r *Registry) Lookup(name string) (models.ComponentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[strings.TrimSpace(name)]
	return t, ok
}

// Resolve maps every name to its index, failing on the first unknown one.
func (r *Registry) Resolve(names ...string) ([]models.ComponentType, error) {
	out := make([]models.ComponentType, 0, len(names))
	for _, n := range names {
		t, ok := r.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, n)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Registry) Name(t models.ComponentType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(t) >= len(r.names) {
		return "", false
	}
	return r.names[t], true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
