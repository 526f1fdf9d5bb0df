// Package observe keeps a list of change callbacks.
package observe

import "sync"

type entry[T any] struct {
	id int
	fn func(T)
}

// List is safe for concurrent use. The zero value is ready.
type List[T any] struct {
	mu   sync.Mutex
	next int
	subs []entry[T]

	publishing bool
	dirty      bool
}

// Add registers fn and returns a func that removes it. Calling the returned
// func more than once is harmless.
func (l *List[T]) Add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	id := l.next
	l.subs = append(l.subs, entry[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, e := range l.subs {
				if e.id == id {
					l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify calls every registered func with v in registration order. No lock
// is held while they run, so a callback may Add or unsubscribe.
func (l *List[T]) Notify(v T) {
	l.mu.Lock()
	subs := make([]entry[T], len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()

	for _, e := range subs {
		e.fn(v)
	}
}

// Publish delivers latest() to every subscriber. A Publish that arrives
// while another is delivering, from another goroutine or from inside a
// callback, returns at once and the delivering goroutine runs one more
// round with a fresh latest(). The last value a subscriber receives is
// therefore never older than the state at the last Publish.
func (l *List[T]) Publish(latest func() T) {
	l.mu.Lock()
	if l.publishing {
		l.dirty = true
		l.mu.Unlock()
		return
	}
	l.publishing = true
	l.mu.Unlock()

	// A panicking callback must not leave the list stuck in publishing.
	done := false
	defer func() {
		if !done {
			l.mu.Lock()
			l.publishing, l.dirty = false, false
			l.mu.Unlock()
		}
	}()

	for {
		l.Notify(latest())

		l.mu.Lock()
		if !l.dirty {
			l.publishing = false
			l.mu.Unlock()
			done = true
			return
		}
		l.dirty = false
		l.mu.Unlock()
	}
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
