// Package stream moves bytes from a slow source to a slow sink through a
// bounded channel of chunks. A producer goroutine reads the source; the
// consumer drains the channel through Read. At most Depth chunks are in
// flight, so a stalled sink stalls the source instead of growing memory.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	DefaultChunkSize = 32 << 10
	DefaultDepth     = 4
)

// ErrSource marks errors raised while reading the source side of a Reader.
var ErrSource = errors.New("stream source")

// Options tunes a Reader. Zero values fall back to the defaults.
type Options struct {
	ChunkSize int
	Depth     int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	return o
}

// Reader is the consumer end of the pipeline. It is not safe for concurrent Read calls.
type Reader struct {
	src    io.Reader
	chunks chan *[]byte
	pool   *sync.Pool
	cancel context.CancelFunc
	done   chan struct{}

	buf *[]byte
	cur []byte

	mu     sync.Mutex
	srcErr error

	closeOnce sync.Once
	closeErr  error
}

// NewReader starts the producer. Closing the Reader cancels it and closes src
// when src is an io.Closer, releasing the underlying handle promptly.
func NewReader(ctx context.Context, src io.Reader, opts Options) *Reader {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	size := opts.ChunkSize
	r := &Reader{
		src:    src,
		chunks: make(chan *[]byte, opts.Depth),
		pool: &sync.Pool{New: func() any {
			b := make([]byte, size)
			return &b
		}},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.produce(ctx)
	return r
}

func (r *Reader) produce(ctx context.Context) {
	defer close(r.done)
	defer close(r.chunks)

	for {
		if ctx.Err() != nil {
			r.fail(ctx.Err())
			return
		}
		bp := r.pool.Get().(*[]byte)
		buf := (*bp)[:cap(*bp)]
		n, err := r.src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			select {
			case r.chunks <- &chunk:
			case <-ctx.Done():
				r.fail(ctx.Err())
				return
			}
		} else {
			r.pool.Put(bp)
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			r.fail(err)
			return
		}
	}
}

func (r *Reader) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.srcErr == nil {
		r.srcErr = err
	}
}

// Read drains buffered chunks, blocking until the producer sends one.
// Source failures are returned wrapped with ErrSource.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.cur) == 0 {
		r.release()
		chunk, ok := <-r.chunks
		if !ok {
			if err := r.SourceErr(); err != nil {
				return 0, fmt.Errorf("%w: %w", ErrSource, err)
			}
			return 0, io.EOF
		}
		r.buf = chunk
		r.cur = *chunk
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

func (r *Reader) release() {
	if r.buf != nil {
		b := (*r.buf)[:cap(*r.buf)]
		r.pool.Put(&b)
		r.buf = nil
	}
}

// SourceErr reports the error that stopped the producer, if any.
func (r *Reader) SourceErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.srcErr
}

// Close stops the producer, closes the source and waits for the producer to exit.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		if c, ok := r.src.(io.Closer); ok {
			r.closeErr = c.Close()
		}
		// Unblock a producer waiting on a full channel.
		go func() {
			for range r.chunks {
			}
		}()
		<-r.done
	})
	return r.closeErr
}

// ReadCloser pairs a reader with the closer of the handle it reads from,
// for sources such as io.LimitReader over an open file.
type ReadCloser struct {
	io.Reader
	io.Closer
}
