// Package runlog provides a logger that writes to an output stream and
// simultaneously captures everything into a buffer, so the full per-run log
// can accompany the generated outputs.
package runlog

import (
	"bytes"
	"io"
	"log"
	"sync"
)

// Logger duplicates every line to the wrapped writer and a buffer.
type Logger struct {
	*log.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// New creates a capturing logger writing to w with the given prefix.
func New(w io.Writer, prefix string) *Logger {
	l := &Logger{}
	l.Logger = log.New(io.MultiWriter(w, syncWriter{l}), prefix, log.LstdFlags)
	return l
}

// Contents returns everything logged so far.
func (l *Logger) Contents() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// syncWriter guards buffer writes; log.Logger serializes its own writes but
// Contents may race with them.
type syncWriter struct {
	l *Logger
}

func (w syncWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.buf.Write(p)
}
