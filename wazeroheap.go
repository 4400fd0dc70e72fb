package alligator

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	wazeroHeapModuleName = "alligator_heap"
	wazeroHeapMemoryName = "memory"
)

// WazeroHeap backs Heap with the linear memory of a wazero-hosted host
// module exporting an empty, growable memory. It exercises the allocator
// against real WebAssembly page-growth semantics (64 KiB pages, a hard page
// ceiling) instead of a simulated Go slice, playing the same role the
// teacher's linker/internal/memory.Wrapper plays for the transcoder:
// adapting api.Memory to a small Read/Write surface.
type WazeroHeap struct {
	ctx     context.Context
	runtime wazero.Runtime
	mem     api.Memory
}

// NewWazeroHeap instantiates a fresh wazero runtime with a single host
// module exporting memory, capped at cfg.MaxHostPages.
func NewWazeroHeap(ctx context.Context, cfg Config) (*WazeroHeap, error) {
	rt := wazero.NewRuntime(ctx)

	mod, err := rt.NewHostModuleBuilder(wazeroHeapModuleName).
		ExportMemoryWithMax(wazeroHeapMemoryName, 0, cfg.MaxHostPages).
		Instantiate(ctx)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate heap module: %w", err)
	}

	mem := mod.ExportedMemory(wazeroHeapMemoryName)
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("heap module exported no memory")
	}

	return &WazeroHeap{ctx: ctx, runtime: rt, mem: mem}, nil
}

// Close releases the underlying wazero runtime and its module.
func (h *WazeroHeap) Close() error {
	return h.runtime.Close(h.ctx)
}

func (h *WazeroHeap) SizeBytes() uint32 {
	return h.mem.Size()
}

func (h *WazeroHeap) Grow(deltaPages uint32) (uint32, error) {
	prevPages, ok := h.mem.Grow(deltaPages)
	if !ok {
		return h.mem.Size(), fmt.Errorf("wazero memory grow by %d pages failed", deltaPages)
	}
	return prevPages * HostPageBytes, nil
}

// ReadU8 and the other read/write primitives below panic on an out-of-bounds
// offset rather than returning an error, since the Heap interface has no
// error-carrying signature for them. The allocator itself never produces an
// out-of-bounds offset in correct operation, so this only fires on a caller
// bug; worth revisiting with a (T, error) signature if Heap's contract ever
// changes.
func (h *WazeroHeap) ReadU8(offset uint32) uint8 {
	v, ok := h.mem.ReadByte(offset)
	if !ok {
		panic(fmt.Sprintf("alligator: ReadU8 out of bounds at %d", offset))
	}
	return v
}

func (h *WazeroHeap) WriteU8(offset uint32, v uint8) {
	if !h.mem.WriteByte(offset, v) {
		panic(fmt.Sprintf("alligator: WriteU8 out of bounds at %d", offset))
	}
}

func (h *WazeroHeap) ReadU16(offset uint32) uint16 {
	v, ok := h.mem.ReadUint16Le(offset)
	if !ok {
		panic(fmt.Sprintf("alligator: ReadU16 out of bounds at %d", offset))
	}
	return v
}

func (h *WazeroHeap) WriteU16(offset uint32, v uint16) {
	if !h.mem.WriteUint16Le(offset, v) {
		panic(fmt.Sprintf("alligator: WriteU16 out of bounds at %d", offset))
	}
}

func (h *WazeroHeap) ReadU32(offset uint32) uint32 {
	v, ok := h.mem.ReadUint32Le(offset)
	if !ok {
		panic(fmt.Sprintf("alligator: ReadU32 out of bounds at %d", offset))
	}
	return v
}

func (h *WazeroHeap) WriteU32(offset uint32, v uint32) {
	if !h.mem.WriteUint32Le(offset, v) {
		panic(fmt.Sprintf("alligator: WriteU32 out of bounds at %d", offset))
	}
}

func (h *WazeroHeap) ReadBytes(offset, length uint32) []byte {
	data, ok := h.mem.Read(offset, length)
	if !ok {
		panic(fmt.Sprintf("alligator: ReadBytes out of bounds at %d len %d", offset, length))
	}
	out := make([]byte, length)
	copy(out, data)
	return out
}

func (h *WazeroHeap) WriteBytes(offset uint32, data []byte) {
	if !h.mem.Write(offset, data) {
		panic(fmt.Sprintf("alligator: WriteBytes out of bounds at %d len %d", offset, len(data)))
	}
}
