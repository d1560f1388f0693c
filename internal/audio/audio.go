// Package audio provides the feedback cues played on hits.
package audio

import (
	"io"
	"sync"
)

// Cues plays feedback sounds. Implementations must not block the caller.
type Cues interface {
	Success()
	Error()
}

// Nop plays nothing.
type Nop struct{}

func (Nop) Success() {}
func (Nop) Error()   {}

// Bell rings the terminal bell. Success rings once, error twice.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell returns cues that write BEL characters to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Success() { b.ring("\a") }
func (b *Bell) Error()   { b.ring("\a\a") }

func (b *Bell) ring(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = io.WriteString(b.w, s)
}

// Func adapts two functions to Cues. Nil functions are skipped.
type Func struct {
	OnSuccess func()
	OnError   func()
}

func (f Func) Success() {
	if f.OnSuccess != nil {
		f.OnSuccess()
	}
}

func (f Func) Error() {
	if f.OnError != nil {
		f.OnError()
	}
}
