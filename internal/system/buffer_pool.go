package system

import (
	"sync"
)

// BufferPool recycles frame pixel buffers to keep GC pressure down while
// frames stream to the encoder. Buffers are bucketed by exact length.
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewBufferPool()

func NewBufferPool() *BufferPool {
	return &BufferPool{pools: make(map[int]*sync.Pool)}
}

// GetBuffer returns a byte slice of length size from the shared pool.
// Its contents are undefined.
func GetBuffer(size int) []byte {
	return globalPool.Get(size)
}

// PutBuffer hands buf back to the shared pool.
func PutBuffer(buf []byte) {
	globalPool.Put(buf)
}

func (p *BufferPool) Get(size int) []byte {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[size]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					b := make([]byte, size)
					return &b
				},
			}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	return *pool.Get().(*[]byte)
}

func (p *BufferPool) Put(buf []byte) {
	if buf == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[len(buf)]
	p.mu.RUnlock()

	if exists {
		pool.Put(&buf)
	}
}
