package alligator

import "github.com/Noah-Huppert/alligator-wasm-alloc/errors"

// bigSizeClass is the sentinel size-class value tagging a BigAllocHeader.
// It must not collide with any valid small size class, so it is chosen
// above the largest representable MaxSizeClass (a uint8 field tops out at
// 255, and no Config may raise MaxSizeClass that high).
const bigSizeClass uint8 = 255

// routeResult is the outcome of routing a requested (size, align) to either
// a small size class or a big-allocation length.
type routeResult struct {
	sizeClass uint8 // valid iff !big
	bigLen    uint32
	big       bool
}

func (a *Allocator) route(size, align uint32) (routeResult, error) {
	if align == 0 || align&(align-1) != 0 {
		return routeResult{}, errors.UnsupportedAlignment(align)
	}

	minSize := uint32(1) << a.cfg.MinSizeClass
	eff := size
	if align > eff {
		eff = align
	}
	if eff < minSize {
		eff = minSize
	}

	c := ceilLog2(eff)

	if c <= uint32(a.cfg.MaxSizeClass) {
		if align > (uint32(1) << a.cfg.MaxSizeClass) {
			return routeResult{}, errors.UnsupportedAlignment(align)
		}
		return routeResult{sizeClass: uint8(c)}, nil
	}

	if align > (uint32(1) << a.cfg.MaxSizeClass) {
		return routeResult{}, errors.UnsupportedAlignment(align)
	}

	rounded := roundUp(size, a.cfg.MiniPageStride())
	capBytes := uint64(a.cfg.MaxHostPages) * uint64(a.cfg.HostPageBytes)
	if uint64(rounded) > capBytes {
		return routeResult{}, errors.TooLarge(size, uint32(capBytes))
	}
	return routeResult{big: true, bigLen: rounded}, nil
}

// ceilLog2 returns the smallest c such that 1<<c >= v, for v >= 1.
func ceilLog2(v uint32) uint32 {
	c := uint32(0)
	p := uint32(1)
	for p < v {
		p <<= 1
		c++
	}
	return c
}

// roundUp rounds n up to the next multiple of stride.
func roundUp(n, stride uint32) uint32 {
	if stride == 0 {
		return n
	}
	rem := n % stride
	if rem == 0 {
		return n
	}
	return n + (stride - rem)
}
