package j2krecon

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedReversibility reports the same filter reversibility for every tile.
type fixedReversibility []bool

func (f fixedReversibility) IsReversible(_, c int) (bool, error) {
	return f[c], nil
}

// countingSource counts CompData calls per component.
type countingSource struct {
	BlkImgDataSrc
	calls map[int]int
}

func (s *countingSource) CompData(blk *Block, c int) (*Block, error) {
	s.calls[c]++
	return s.BlkImgDataSrc.CompData(blk, c)
}

// newYCbCrPlanar returns a 6x4 image whose first three components hold
// the forward RCT of random RGB samples, and the RGB samples themselves.
func newYCbCrPlanar(t *testing.T, extra int) (*PlanarImage, [3][]int32) {
	t.Helper()
	specs := make([]PlaneSpec, 3+extra)
	for i := range specs {
		specs[i] = PlaneSpec{Bits: 8}
	}
	p, err := NewPlanarImage(6, 4, specs...)
	require.NoError(t, err)
	var rgb [3][]int32
	for i := range rgb {
		rgb[i] = testSignal(24, uint32(i+40))
	}
	for i := range 24 {
		r, g, b := rgb[0][i], rgb[1][i], rgb[2][i]
		p.Plane(0).Data[i] = (r + 2*g + b) >> 2
		p.Plane(1).Data[i] = b - g
		p.Plane(2).Data[i] = r - g
	}
	for c := 3; c < p.NumComps(); c++ {
		copy(p.Plane(c).Data, testSignal(24, uint32(c)))
	}
	return p, rgb
}

func specsWith(numComps int, ct ComponentTransform) *DecoderSpecs {
	s := NewDecoderSpecs(1, numComps)
	s.CompTransform.SetDefault(ct)
	return s
}

func TestInvCompTransfRCT(t *testing.T) {
	p, rgb := newYCbCrPlanar(t, 1)
	ct := NewInvCompTransf(p, specsWith(4, CTRCT), fixedReversibility{true, true, true, true})
	tr, err := ct.TransformType()
	require.NoError(t, err)
	assert.Equal(t, CTRCT, tr)

	for c := range 3 {
		got := readWhole(t, ct, c)
		if diff := cmp.Diff(rgb[c], got.Ints); diff != "" {
			t.Errorf("component %d mismatch (-want +got):\n%s", c, diff)
		}
	}
	assert.Equal(t, p.Plane(3).Data, readWhole(t, ct, 3).Ints, "component 3 passes through")
}

func TestInvCompTransfICT(t *testing.T) {
	p, _ := newYCbCrPlanar(t, 0)
	ct := NewInvCompTransf(p, specsWith(3, CTICT), fixedReversibility{false, false, false})
	tr, err := ct.TransformType()
	require.NoError(t, err)
	assert.Equal(t, CTICT, tr)

	y, cb, cr := p.Plane(0).Data, p.Plane(1).Data, p.Plane(2).Data
	want := [3][]int32{make([]int32, 24), make([]int32, 24), make([]int32, 24)}
	for i := range 24 {
		fy, fcb, fcr := float64(y[i]), float64(cb[i]), float64(cr[i])
		want[0][i] = int32(fy + 1.402*fcr + 0.5)
		want[1][i] = int32(fy - 0.34413*fcb - 0.71414*fcr + 0.5)
		want[2][i] = int32(fy + 1.772*fcb + 0.5)
	}
	for c := range 3 {
		assert.Equal(t, want[c], readWhole(t, ct, c).Ints, "component %d", c)
	}
}

func TestInvCompTransfFollowsFilters(t *testing.T) {
	p, _ := newYCbCrPlanar(t, 0)

	ct := NewInvCompTransf(p, specsWith(3, CTRCT), fixedReversibility{false, false, false})
	tr, err := ct.TransformType()
	require.NoError(t, err)
	assert.Equal(t, CTICT, tr, "irreversible filters force ICT")

	ct = NewInvCompTransf(p, specsWith(3, CTICT), fixedReversibility{true, true, true})
	tr, err = ct.TransformType()
	require.NoError(t, err)
	assert.Equal(t, CTRCT, tr, "reversible filters force RCT")

	ct = NewInvCompTransf(p, specsWith(3, CTNone), fixedReversibility{true, false, true})
	tr, err = ct.TransformType()
	require.NoError(t, err)
	assert.Equal(t, CTNone, tr)
	assert.Equal(t, p.Plane(1).Data, readWhole(t, ct, 1).Ints)
}

func TestInvCompTransfErrors(t *testing.T) {
	p, _ := newYCbCrPlanar(t, 0)

	ct := NewInvCompTransf(p, specsWith(3, CTRCT), fixedReversibility{true, false, true})
	_, err := ct.TransformType()
	assert.ErrorIs(t, err, ErrIncoherentTransform)
	_, err = ct.CompData(&Block{W: 1, H: 1}, 0)
	assert.ErrorIs(t, err, ErrIncoherentTransform)
	assert.ErrorIs(t, ct.SetTile(0, 0), ErrIncoherentTransform)

	ct = NewInvCompTransf(p, specsWith(3, ComponentTransform(9)), fixedReversibility{true, true, true})
	_, err = ct.TransformType()
	assert.ErrorIs(t, err, ErrUnknownTransform)

	gray, err := NewPlanarImage(4, 4, PlaneSpec{Bits: 8}, PlaneSpec{Bits: 8})
	require.NoError(t, err)
	ct = NewInvCompTransf(gray, specsWith(2, CTRCT), fixedReversibility{true, true})
	_, err = ct.TransformType()
	assert.ErrorIs(t, err, ErrTransformComponents)

	ct = NewInvCompTransf(p, specsWith(3, CTRCT), fixedReversibility{true, true, true})
	_, err = ct.CompData(&Block{W: 7, H: 1}, 0)
	assert.ErrorIs(t, err, ErrBlockOutOfBounds)
}

func TestInvCompTransfCache(t *testing.T) {
	p, rgb := newYCbCrPlanar(t, 0)
	src := &countingSource{BlkImgDataSrc: p, calls: map[int]int{}}
	ct := NewInvCompTransf(src, specsWith(3, CTRCT), fixedReversibility{true, true, true})

	full := func() *Block { return &Block{W: 6, H: 4, Type: TypeInt} }

	_, err := ct.CompData(full(), 0)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, src.calls)

	// Component 1 over the same extent is served from the cache.
	got, err := ct.CompData(full(), 1)
	require.NoError(t, err)
	assert.Equal(t, rgb[1], got.Ints)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, src.calls)

	// The cached region is handed out once.
	_, err = ct.CompData(full(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 2}, src.calls)

	// A request inside the cached region is a hit.
	sub := &Block{ULX: 2, ULY: 1, W: 3, H: 2, Type: TypeInt}
	got, err = ct.InternCompData(sub, 2)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 2}, src.calls)
	assert.Equal(t, rgb[2][1*6+2:1*6+5], got.IntRow(0))
	assert.Equal(t, rgb[2][2*6+2:2*6+5], got.IntRow(1))

	// Selecting a tile drops the cache.
	require.NoError(t, ct.SetTile(0, 0))
	_, err = ct.CompData(full(), 0)
	require.NoError(t, err)
	_, err = ct.CompData(full(), 2)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 3, 1: 3, 2: 3}, src.calls)
}

func TestInvCompTransfCopyAfterIntern(t *testing.T) {
	p, rgb := newYCbCrPlanar(t, 0)
	ct := NewInvCompTransf(p, specsWith(3, CTRCT), fixedReversibility{true, true, true})

	blk := &Block{W: 6, H: 4, Type: TypeInt}
	got, err := ct.InternCompData(blk, 0)
	require.NoError(t, err)
	require.True(t, got.Borrowed())
	interned := *got

	got, err = ct.CompData(blk, 1)
	require.NoError(t, err)
	assert.Equal(t, rgb[1], got.Ints)
	for y := range 4 {
		assert.Equal(t, rgb[0][y*6:y*6+6], interned.IntRow(y), "row %d", y)
	}
}
