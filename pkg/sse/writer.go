package sse

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"plant-doctor-be/pkg/diagnosis"
)

var ErrClosed = errors.New("sse: stream already terminated")

// FlushWriter is a buffered writer such as *bufio.Writer.
type FlushWriter interface {
	io.Writer
	Flush() error
}

// Writer is a diagnosis.Sink that writes frames to a client connection. Every
// frame is flushed immediately. The first failed write marks the client as
// gone and calls onGone once.
type Writer struct {
	mu     sync.Mutex
	w      FlushWriter
	onGone func()
	err    error
	closed bool
}

var _ diagnosis.Sink = (*Writer)(nil)

func NewWriter(w FlushWriter, onGone func()) *Writer {
	if onGone == nil {
		onGone = func() {}
	}
	return &Writer{w: w, onGone: onGone}
}

func (w *Writer) Send(ev diagnosis.Event) error {
	frame, err := Encode(ev)
	if err != nil {
		return err
	}
	return w.write(frame)
}

// Ping writes a heartbeat comment.
func (w *Writer) Ping() error {
	return w.write(Comment("ping"))
}

// Done writes the sentinel. Nothing can be written afterwards.
func (w *Writer) Done() error {
	if err := w.write(Done()); err != nil {
		return err
	}
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Err returns the write failure that ended the stream, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Heartbeat pings every interval until ctx ends or a ping fails.
func (w *Writer) Heartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Ping(); err != nil {
				return
			}
		}
	}
}

func (w *Writer) write(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrClosed
	}

	if _, err := w.w.Write(frame); err != nil {
		return w.gone(err)
	}
	if err := w.w.Flush(); err != nil {
		return w.gone(err)
	}
	return nil
}

func (w *Writer) gone(err error) error {
	w.err = err
	w.onGone()
	return err
}
