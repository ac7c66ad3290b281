// Package teardown releases resources in the reverse order they were
// acquired.
package teardown

import (
	"log/slog"

	"github.com/hellhand/koengine/internal/darray"
	"github.com/hellhand/koengine/internal/logging"
)

type entry struct {
	name    string
	release func()
}

// Stack is an ordered list of release functions. The zero value is not
// usable; call New.
type Stack struct {
	entries *darray.Array[entry]
	log     *slog.Logger
}

// New returns an empty stack that logs each release at debug level.
func New(log *slog.Logger) *Stack {
	return &Stack{
		entries: darray.New[entry](),
		log:     logging.OrNop(log),
	}
}

// Push records release as the next resource to free. name identifies it in
// the log.
func (s *Stack) Push(name string, release func()) {
	s.entries.Push(entry{name: name, release: release})
}

// Len returns the number of pending releases.
func (s *Stack) Len() int { return s.entries.Len() }

// Release runs every pending release function, last pushed first, and
// empties the stack. It is safe to call more than once.
func (s *Stack) Release() {
	for {
		e, ok := s.entries.Pop()
		if !ok {
			return
		}
		s.log.Debug("releasing", "resource", e.name)
		e.release()
	}
}
