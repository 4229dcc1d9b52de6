//go:build windows

package webgpu

import (
	"math/bits"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledPerClass caps the idle buffers kept per size class.
const maxPooledPerClass = 8

// poolKey identifies interchangeable buffers: same usage, same size class.
type poolKey struct {
	class uint8
	usage wgpu.BufferUsage
}

// BufferPool recycles GPU buffers between kernel launches. Sizes are rounded
// up to a power of two so a buffer serves every request in its class.
type BufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	idle map[poolKey][]*wgpu.Buffer

	hits   uint64
	misses uint64
}

// NewBufferPool creates an empty pool on device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		idle:   make(map[poolKey][]*wgpu.Buffer),
	}
}

// sizeClass returns the exponent of the smallest power of two >= size
// (minimum 256 bytes).
func sizeClass(size uint64) uint8 {
	if size <= 256 {
		return 8
	}
	return uint8(bits.Len64(size - 1)) //nolint:gosec // G115: at most 64
}

// Acquire returns a buffer of at least size bytes with the given usage.
// The buffer's real size is ClassSize(size).
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	key := poolKey{class: sizeClass(size), usage: usage}

	p.mu.Lock()
	if free := p.idle[key]; len(free) > 0 {
		buf := free[len(free)-1]
		p.idle[key] = free[:len(free)-1]
		p.hits++
		p.mu.Unlock()
		return buf
	}
	p.misses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  ClassSize(size),
	})
}

// Release hands a buffer obtained from Acquire back to the pool.
func (p *BufferPool) Release(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	key := poolKey{class: sizeClass(size), usage: usage}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle[key]) >= maxPooledPerClass {
		buf.Release()
		return
	}
	p.idle[key] = append(p.idle[key], buf)
}

// Clear releases every idle buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, free := range p.idle {
		for _, buf := range free {
			buf.Release()
		}
		delete(p.idle, key)
	}
}

// Stats reports pool hits, misses and the number of idle buffers.
func (p *BufferPool) Stats() (hits, misses uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, free := range p.idle {
		idle += len(free)
	}
	return p.hits, p.misses, idle
}

// ClassSize is the allocated size for a request of size bytes.
func ClassSize(size uint64) uint64 {
	return 1 << sizeClass(size)
}
