//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/pointops/internal/tensor"
)

const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil): bindings come from the shader.
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer holding a copy of data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()

	return buffer
}

// kernelArg is one storage binding of a launch. Outputs are copied back
// into the tensor after the dispatch completes.
type kernelArg struct {
	t      *tensor.RawTensor
	output bool
}

func input(t *tensor.RawTensor) kernelArg  { return kernelArg{t: t} }
func output(t *tensor.RawTensor) kernelArg { return kernelArg{t: t, output: true} }

// launch runs one compute shader over threads invocations.
//
// Bindings follow argument order, with the uniform params block last. Every
// argument is uploaded, including outputs, so read_write buffers start from
// the tensor's current contents.
func (b *Backend) launch(name, code string, threads int, p params, args ...kernelArg) error {
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	buffers := make([]*wgpu.Buffer, len(args))
	defer func() {
		for _, buf := range buffers {
			if buf != nil {
				buf.Release()
			}
		}
	}()

	entries := make([]wgpu.BindGroupEntry, 0, len(args)+1)
	for i, a := range args {
		buffers[i] = b.createBuffer(a.t.Data(), storageUsage)
		//nolint:gosec // G115: binding index and byte size are small non-negative ints
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buffers[i], 0, uint64(a.t.ByteSize())))
	}

	uniform := p.bytes()
	bufParams := b.createBuffer(uniform, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer bufParams.Release()
	//nolint:gosec // G115: binding index is small
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(args)), bufParams, 0, uint64(len(uniform))))

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	x, y := dispatchSize(threads)
	computePass.DispatchWorkgroups(x, y, 1)
	computePass.End()

	// Outputs are copied to staging buffers in the same submission.
	type readback struct {
		arg     int
		size    uint64
		staging *wgpu.Buffer
	}
	var reads []readback
	for i, a := range args {
		if !a.output {
			continue
		}
		size := uint64(a.t.ByteSize()) //nolint:gosec // G115: non-negative
		staging := b.staging.Acquire(size, stagingUsage)
		encoder.CopyBufferToBuffer(buffers[i], 0, staging, 0, size)
		reads = append(reads, readback{arg: i, size: size, staging: staging})
	}

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	var firstErr error
	for _, r := range reads {
		if firstErr == nil {
			firstErr = b.readInto(r.staging, r.size, args[r.arg].t.Data())
		}
		b.staging.Release(r.staging, r.size, stagingUsage)
	}
	if firstErr != nil {
		return fmt.Errorf("%s: %w", name, firstErr)
	}
	return nil
}

// readInto maps a staging buffer and copies its first size bytes into dst.
func (b *Backend) readInto(staging *wgpu.Buffer, size uint64, dst []byte) error {
	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("failed to map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(dst, unsafe.Slice((*byte)(mappedPtr), size))
	staging.Unmap()
	return nil
}
