// buffer_pool.go pools scratch byte slices for envelope seal/open so the hot
// path of sealing a bridge transaction payload doesn't allocate on every
// call. Buffers are zeroized before reuse since they may have held key
// material or plaintext.
package qcrypto

import "sync"

const (
	smallBufferSize  = 1024
	mediumBufferSize = 16 * 1024
	largeBufferSize  = 64 * 1024
)

// BufferPool hands out zeroed scratch buffers sized for typical envelope
// payloads.
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

var globalBufferPool = NewBufferPool()

// NewBufferPool creates an independent buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small:  sync.Pool{New: func() any { b := make([]byte, smallBufferSize); return &b }},
		medium: sync.Pool{New: func() any { b := make([]byte, mediumBufferSize); return &b }},
		large:  sync.Pool{New: func() any { b := make([]byte, largeBufferSize); return &b }},
	}
}

// Get returns a buffer of at least size bytes. Buffers larger than the
// pool's largest size class are allocated directly and not pooled.
func (p *BufferPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	var bufPtr *[]byte
	switch {
	case size <= smallBufferSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= mediumBufferSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= largeBufferSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	return (*bufPtr)[:size]
}

// Put zeroizes buf and returns it to the pool it was sized for.
func (p *BufferPool) Put(buf []byte) {
	if buf == nil {
		return
	}

	bufCap := cap(buf)
	buf = buf[:bufCap]
	Zeroize(buf)
	bufPtr := &buf

	switch bufCap {
	case smallBufferSize:
		p.small.Put(bufPtr)
	case mediumBufferSize:
		p.medium.Put(bufPtr)
	case largeBufferSize:
		p.large.Put(bufPtr)
	}
}

// GetBuffer returns a buffer from the global pool.
func GetBuffer(size int) []byte { return globalBufferPool.Get(size) }

// PutBuffer returns a buffer to the global pool.
func PutBuffer(buf []byte) { globalBufferPool.Put(buf) }
