// --- START OF NEW FILE internal/shared/buffer.go ---
package shared

import (
	"bytes"
	"strings"
	"sync"
)

// ThreadSafeBuffer is a bytes.Buffer that can be written by one goroutine
// while another inspects it. The client writes its console lines here in
// tests and when output is captured.
type ThreadSafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// NewThreadSafeBuffer creates a new ThreadSafeBuffer
func NewThreadSafeBuffer() *ThreadSafeBuffer {
	return &ThreadSafeBuffer{}
}

// Write writes data to the buffer, is thread-safe
func (b *ThreadSafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String returns everything written so far without consuming it.
func (b *ThreadSafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Lines returns the complete lines written so far.
func (b *ThreadSafeBuffer) Lines() []string {
	s := b.String()
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	} else {
		return nil
	}
	return strings.Split(s, "\n")
}

// Count returns how many complete lines equal line.
func (b *ThreadSafeBuffer) Count(line string) int {
	n := 0
	for _, l := range b.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

// Len returns the number of bytes in the buffer, is thread-safe
func (b *ThreadSafeBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Len()
}
