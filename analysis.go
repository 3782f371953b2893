package j2krecon

import (
	"github.com/ajroetker/go-highway/hwy/contrib/wavelet"
	"github.com/pkg/errors"
)

// analyze53 performs the forward 1D 5/3 transform in place.
// Input: signal [s0, s1, s2, s3, ...]
// Output: [L0, L1, ..., H0, H1, ...] (low-pass first, then high-pass)
func (b *liftBufs) analyze53(data []int32, phase int) {
	wavelet.Analyze53Bufs(data, phase, b.low32[:cap(b.low32)], b.high32[:cap(b.high32)])
}

// analyze97 performs the forward 1D 9/7 transform in place, keeping the
// 1/K and K/2 band scaling expected by synthesize97.
func (b *liftBufs) analyze97(data []float64, phase int) {
	n := len(data)
	if n <= 1 {
		return
	}
	sn, dn := splitLen(n, phase)
	low, high := b.low64[:sn], b.high64[:dn]
	wavelet.Deinterleave(data, low, sn, high, dn, phase)

	// Forward uses += coeff*(neighbors), LiftStep97 does -= coeff*(neighbors),
	// so negate coefficients for forward direction.
	wavelet.LiftStep97(high, dn, low, sn, -lift97Alpha, phase)
	wavelet.LiftStep97(low, sn, high, dn, -lift97Beta, 1-phase)
	wavelet.LiftStep97(high, dn, low, sn, -lift97Gamma, phase)
	wavelet.LiftStep97(low, sn, high, dn, -lift97Delta, 1-phase)

	wavelet.ScaleSlice(low, sn, 1.0/lift97K)
	wavelet.ScaleSlice(high, dn, lift97K/2.0)

	copy(data[:sn], low)
	copy(data[sn:], high)
}

// analyze2D runs one analysis step over the region of node sb: columns
// first, then rows, leaving the four children in Mallat layout.
func (b *liftBufs) analyze2D(buf *Block, sb *Subband) error {
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
		col := b.col32[:sb.H]
		for x := range sb.W {
			off := buf.Offset + sb.ULY*buf.Scanw + sb.ULX + x
			gather(col, buf.Ints, off, buf.Scanw)
			b.analyze53(col, py)
			scatter(buf.Ints, col, off, buf.Scanw)
		}
		for y := range sb.H {
			off := buf.Offset + (sb.ULY+y)*buf.Scanw + sb.ULX
			b.analyze53(buf.Ints[off:off+sb.W], px)
		}
	case TypeFloat:
		if sb.HFilter != Wavelet97 || sb.VFilter != Wavelet97 {
			return errors.Wrapf(ErrMixedFilters, "%s/%s kernels on float samples", sb.HFilter, sb.VFilter)
		}
		col := b.col64[:sb.H]
		for x := range sb.W {
			off := buf.Offset + sb.ULY*buf.Scanw + sb.ULX + x
			gather(col, buf.Floats, off, buf.Scanw)
			b.analyze97(col, py)
			scatter(buf.Floats, col, off, buf.Scanw)
		}
		for y := range sb.H {
			off := buf.Offset + (sb.ULY+y)*buf.Scanw + sb.ULX
			b.analyze97(buf.Floats[off:off+sb.W], px)
		}
	default:
		return errors.Wrapf(ErrDataType, "%v", buf.Type)
	}
	return nil
}

// analyzeTree decomposes a whole tile-component held in buf, from the root
// down the LL chain.
func (b *liftBufs) analyzeTree(buf *Block, t *SubbandTree) error {
	for idx := 0; !t.Nodes[idx].IsLeaf(); idx = t.Nodes[idx].Children[OrientLL] {
		if err := b.analyze2D(buf, &t.Nodes[idx]); err != nil {
			return err
		}
	}
	return nil
}
