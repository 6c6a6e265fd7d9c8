// Package bufpool recycles the fixed-size buffers transfer goroutines
// move file bytes through.
//
// Downloads and uploads read and write in chunks of the engine's
// configured chunk size, one buffer per transfer. The pool hands those
// buffers back out to later transfers instead of allocating fresh ones.
package bufpool

import "sync"

// DefaultChunkSize backs pools created with a non-positive size.
const DefaultChunkSize = 4 << 10

// Pool hands out byte slices of one fixed size.
type Pool struct {
	size int
	pool sync.Pool
}

// New creates a pool of size-byte buffers. Non-positive sizes fall back
// to DefaultChunkSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultChunkSize
	}

	p := &Pool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, p.size)
		return &buf
	}
	return p
}

// Size reports the length of the buffers this pool serves.
func (p *Pool) Size() int {
	return p.size
}

// Get returns a buffer of length Size. Pair it with a Put once the
// transfer no longer touches the buffer.
func (p *Pool) Get() []byte {
	buf := *p.pool.Get().(*[]byte)
	return buf[:p.size]
}

// Put returns a buffer to the pool. Buffers whose capacity does not
// match the pool's size are left to the garbage collector; a buffer
// from Get still qualifies after reslicing.
func (p *Pool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}

	full := buf[:p.size]
	p.pool.Put(&full)
}
