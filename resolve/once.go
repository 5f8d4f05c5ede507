package resolve

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/wippyai/cilmeta/tables"
)

// Once is a write-once cell. The first Set wins; later calls report false
// and leave the value unchanged.
type Once[T any] struct {
	p atomic.Pointer[T]
}

// Set stores v if the cell is empty.
func (o *Once[T]) Set(v T) bool {
	return o.p.CompareAndSwap(nil, &v)
}

// Get returns the value and whether it was set.
func (o *Once[T]) Get() (T, bool) {
	if p := o.p.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Value returns the value or the zero value.
func (o *Once[T]) Value() T {
	v, _ := o.Get()
	return v
}

// IsSet reports whether the cell holds a value.
func (o *Once[T]) IsSet() bool {
	return o.p.Load() != nil
}

type tokener interface {
	Token() tables.Token
}

// List is a growable list of entities safe for concurrent appends.
type List[T any] struct {
	mu    sync.Mutex
	items []T
}

// Append adds v.
func (l *List[T]) Append(v T) {
	l.mu.Lock()
	l.items = append(l.items, v)
	l.mu.Unlock()
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy ordered by token, independent of append order.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	l.mu.Unlock()
	sortByToken(out)
	return out
}

func sortByToken[T any](s []T) {
	sort.SliceStable(s, func(i, j int) bool {
		a, _ := any(s[i]).(tokener)
		b, _ := any(s[j]).(tokener)
		if a == nil || b == nil {
			return false
		}
		return a.Token() < b.Token()
	})
}
