package j2krecon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuantizedSource(t *testing.T, levels int, filter WaveletType, step float64, magBits int, samples []int32) *MemSource {
	t.Helper()
	tree, err := BuildSubbandTree(TreeParams{W: 2, H: 2, Levels: levels, Filter: filter, MagBits: magBits, Step: step})
	require.NoError(t, err)
	coeffs := NewIntBlock(0, 0, 2, 2)
	copy(coeffs.Ints, samples)
	return newLiteralSource(t, []*SubbandTree{tree}, []*Block{coeffs})
}

func TestDequantizeReversible(t *testing.T) {
	ms := newQuantizedSource(t, 0, Wavelet53, 0, 4, []int32{
		sm(false, 5<<27), sm(true, 5<<27),
		0, sm(true, 15<<27|1<<26),
	})
	d := NewDequantizer(ms)
	blk, err := d.CodeBlock(0, 0, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, blk.Type)
	assert.Equal(t, []int32{5, -5, 0, -15}, blk.Ints)
}

func TestDequantizeIrreversible(t *testing.T) {
	// Node 1 is the LL leaf, covering the single top-left coefficient.
	ms := newQuantizedSource(t, 1, Wavelet97, 0.5, 4, []int32{
		sm(true, 5<<27|1<<26), 0,
		0, 0,
	})
	d := NewDequantizer(ms)
	blk, err := d.CodeBlock(0, 1, 0, 0, &Block{})
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, blk.Type)
	require.Len(t, blk.Floats, 1)
	assert.InDelta(t, -2.75, blk.Floats[0], 1e-12)
}

func TestDequantizeErrors(t *testing.T) {
	ms := newQuantizedSource(t, 0, Wavelet53, 0, 4, make([]int32, 4))
	d := NewDequantizer(floatSource{ms})
	_, err := d.CodeBlock(0, 0, 0, 0, nil)
	assert.ErrorIs(t, err, ErrDataType)

	ms.tile().trees[0].Nodes[0].MagBits = 40
	d = NewDequantizer(ms)
	_, err = d.CodeBlock(0, 0, 0, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidSubband)

	_, err = d.CodeBlock(0, 9, 0, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidSubband)
}
