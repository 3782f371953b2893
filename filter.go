package j2krecon

import (
	"fmt"

	"github.com/ajroetker/go-highway/hwy/contrib/wavelet"
	"github.com/pkg/errors"
)

// WaveletType indicates the wavelet filter used
type WaveletType int

const (
	Wavelet53 WaveletType = iota // 5/3 reversible (lossless)
	Wavelet97                    // 9/7 irreversible (lossy)
)

func (f WaveletType) String() string {
	switch f {
	case Wavelet53:
		return "5/3"
	case Wavelet97:
		return "9/7"
	default:
		return fmt.Sprintf("WaveletType(%d)", int(f))
	}
}

func (f WaveletType) valid() bool {
	return f == Wavelet53 || f == Wavelet97
}

// Reversible reports whether the kernel reconstructs integers exactly.
func (f WaveletType) Reversible() bool {
	return f == Wavelet53
}

// DataType returns the sample type the kernel operates on.
func (f WaveletType) DataType() DataType {
	if f == Wavelet53 {
		return TypeInt
	}
	return TypeFloat
}

// Lifting coefficients for 9/7 irreversible filter (ITU-T T.800 Table F.4)
const (
	lift97Alpha float64 = -1.586134342059924
	lift97Beta  float64 = -0.052980118572961
	lift97Gamma float64 = 0.882911075530934
	lift97Delta float64 = 0.443506852043971
	lift97K     float64 = 1.230174104914001
	// High-pass bands are scaled by 2/K rather than 1/K; analysis uses K/2 to
	// match, so no per-band gain is applied elsewhere.
	lift97TwoInvK float64 = 2.0 / 1.230174104914001
)

// splitLen returns the number of low-pass and high-pass samples of a
// signal of length n whose first sample sits at an even (phase 0) or odd
// (phase 1) canvas position.
func splitLen(n, phase int) (sn, dn int) {
	if phase == 0 {
		return (n + 1) / 2, n / 2
	}
	return n / 2, (n + 1) / 2
}

// liftBufs holds reusable working buffers for the lifting kernels and for
// column gathering. One instance is owned by each transform stage.
type liftBufs struct {
	low32, high32 []int32
	col32         []int32
	low64, high64 []float64
	col64         []float64
}

// ensure grows the internal buffers to accommodate a signal of length n.
func (b *liftBufs) ensure(n int) {
	half := (n + 1) / 2
	if cap(b.low32) < half {
		b.low32 = make([]int32, half)
		b.high32 = make([]int32, half)
		b.low64 = make([]float64, half)
		b.high64 = make([]float64, half)
	}
	if cap(b.col32) < n {
		b.col32 = make([]int32, n)
		b.col64 = make([]float64, n)
	}
}

// synthesize53 performs the 1D inverse 5/3 transform in place.
// Input: [L0, L1, ..., H0, H1, ...]; output: interleaved samples.
func (b *liftBufs) synthesize53(data []int32, phase int) {
	wavelet.Synthesize53Bufs(data, phase, b.low32[:cap(b.low32)], b.high32[:cap(b.high32)])
}

// synthesize97 performs the 1D inverse 9/7 transform in place.
func (b *liftBufs) synthesize97(data []float64, phase int) {
	n := len(data)
	if n <= 1 {
		return
	}
	sn, dn := splitLen(n, phase)
	doSynthesize97(data, b.low64[:sn], b.high64[:dn], phase)
}

// doSynthesize97 is the core 9/7 inverse transform implementation.
// low and high are separate buffers (not aliases of data), so Interleave can
// write directly into data without an intermediate out buffer.
func doSynthesize97(data, low, high []float64, cas int) {
	sn := len(low)
	dn := len(high)

	copy(low, data[:sn])
	copy(high, data[sn:sn+dn])

	wavelet.ScaleSlice(low, sn, lift97K)
	wavelet.ScaleSlice(high, dn, lift97TwoInvK)

	// For update steps (target=low): phase = 1-cas
	// For predict steps (target=high): phase = cas
	wavelet.LiftStep97(low, sn, high, dn, lift97Delta, 1-cas)
	wavelet.LiftStep97(high, dn, low, sn, lift97Gamma, cas)
	wavelet.LiftStep97(low, sn, high, dn, lift97Beta, 1-cas)
	wavelet.LiftStep97(high, dn, low, sn, lift97Alpha, cas)

	wavelet.Interleave(data, low, sn, high, dn, cas)
}

// synthesize2D runs one synthesis step over the region of node sb inside
// buf: every row with the horizontal kernel, then every column with the
// vertical kernel. buf must be compact (Offset 0) and hold the
// tile-component type matching the node's kernels.
func (b *liftBufs) synthesize2D(buf *Block, sb *Subband) error {
	if sb.W == 0 || sb.H == 0 {
		return nil
	}
	b.ensure(max(sb.W, sb.H))
	px, py := sb.ULCX&1, sb.ULCY&1
	switch buf.Type {
	case TypeInt:
		if sb.HFilter != Wavelet53 || sb.VFilter != Wavelet53 {
			return errors.Wrapf(ErrMixedFilters, "%s/%s kernels on int samples", sb.HFilter, sb.VFilter)
		}
		for y := range sb.H {
			off := buf.Offset + (sb.ULY+y)*buf.Scanw + sb.ULX
			b.synthesize53(buf.Ints[off:off+sb.W], px)
		}
		col := b.col32[:sb.H]
		for x := range sb.W {
			off := buf.Offset + sb.ULY*buf.Scanw + sb.ULX + x
			gather(col, buf.Ints, off, buf.Scanw)
			b.synthesize53(col, py)
			scatter(buf.Ints, col, off, buf.Scanw)
		}
	case TypeFloat:
		if sb.HFilter != Wavelet97 || sb.VFilter != Wavelet97 {
			return errors.Wrapf(ErrMixedFilters, "%s/%s kernels on float samples", sb.HFilter, sb.VFilter)
		}
		for y := range sb.H {
			off := buf.Offset + (sb.ULY+y)*buf.Scanw + sb.ULX
			b.synthesize97(buf.Floats[off:off+sb.W], px)
		}
		col := b.col64[:sb.H]
		for x := range sb.W {
			off := buf.Offset + sb.ULY*buf.Scanw + sb.ULX + x
			gather(col, buf.Floats, off, buf.Scanw)
			b.synthesize97(col, py)
			scatter(buf.Floats, col, off, buf.Scanw)
		}
	default:
		return errors.Wrapf(ErrDataType, "%v", buf.Type)
	}
	return nil
}

// gather copies a strided column starting at off into col.
func gather[T int32 | float64](col, src []T, off, stride int) {
	for i := range col {
		col[i] = src[off+i*stride]
	}
}

// scatter writes col back into a strided column starting at off.
func scatter[T int32 | float64](dst, col []T, off, stride int) {
	for i, v := range col {
		dst[off+i*stride] = v
	}
}
