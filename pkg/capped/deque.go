// Package capped provides a bounded, ordered collection used for edit
// history, recent job descriptions, and saved presets.
package capped

// Deque is an ordered list holding at most Cap items.
// The zero value is unusable; create one with New or From.
type Deque[T any] struct {
	items []T
	limit int
}

// New creates an empty deque with the given capacity. A capacity below one is treated as one.
func New[T any](limit int) (d *Deque[T]) {
	if limit < 1 {
		limit = 1
	}
	d = &Deque[T]{
		items: make([]T, 0, limit),
		limit: limit,
	}
	return d
}

// From builds a deque from existing items, keeping the first limit of them.
func From[T any](limit int, items []T) (d *Deque[T]) {
	d = New[T](limit)
	for i, item := range items {
		if i >= d.limit {
			break
		}
		d.items = append(d.items, item)
	}
	return d
}

// Cap returns the capacity.
func (d *Deque[T]) Cap() (limit int) {
	limit = d.limit
	return limit
}

// Len returns the number of items held.
func (d *Deque[T]) Len() (n int) {
	n = len(d.items)
	return n
}

// PushBack appends item, evicting from the front when full.
func (d *Deque[T]) PushBack(item T) {
	if len(d.items) >= d.limit {
		d.items = append(d.items[:0], d.items[len(d.items)-d.limit+1:]...)
	}
	d.items = append(d.items, item)
}

// PushFront prepends item after removing every existing item that same reports
// as a duplicate, then truncates from the back.
func (d *Deque[T]) PushFront(item T, same func(a, b T) bool) {
	next := make([]T, 0, d.limit)
	next = append(next, item)
	for _, existing := range d.items {
		if same != nil && same(existing, item) {
			continue
		}
		if len(next) >= d.limit {
			break
		}
		next = append(next, existing)
	}
	d.items = next
}

// PopBack removes and returns the last item.
func (d *Deque[T]) PopBack() (item T, ok bool) {
	if len(d.items) == 0 {
		return item, ok
	}
	item = d.items[len(d.items)-1]
	d.items = d.items[:len(d.items)-1]
	ok = true
	return item, ok
}

// Back returns the last item without removing it.
func (d *Deque[T]) Back() (item T, ok bool) {
	if len(d.items) == 0 {
		return item, ok
	}
	item = d.items[len(d.items)-1]
	ok = true
	return item, ok
}

// Find returns the first item matching pred.
func (d *Deque[T]) Find(pred func(T) bool) (item T, ok bool) {
	for _, candidate := range d.items {
		if pred(candidate) {
			item = candidate
			ok = true
			return item, ok
		}
	}
	return item, ok
}

// RemoveFunc drops every item matching pred and reports how many were removed.
func (d *Deque[T]) RemoveFunc(pred func(T) bool) (removed int) {
	kept := d.items[:0]
	for _, item := range d.items {
		if pred(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	var zero T
	for i := len(kept); i < len(d.items); i++ {
		d.items[i] = zero
	}
	d.items = kept
	return removed
}

// Reset drops every item.
func (d *Deque[T]) Reset() {
	d.items = d.items[:0]
}

// Items returns a copy of the held items in order.
func (d *Deque[T]) Items() (items []T) {
	items = make([]T, len(d.items))
	copy(items, d.items)
	return items
}
