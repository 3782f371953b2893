package j2krecon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockValidate(t *testing.T) {
	tests := []struct {
		name    string
		blk     Block
		wantErr bool
	}{
		{"compact", *NewIntBlock(0, 0, 3, 2), false},
		{"empty", Block{W: 0, H: 4}, false},
		{"strided view", Block{W: 2, H: 2, Offset: 3, Scanw: 4, Ints: make([]int32, 9)}, false},
		{"past the end", Block{W: 2, H: 2, Offset: 4, Scanw: 4, Ints: make([]int32, 9)}, true},
		{"scan width too small", Block{W: 3, H: 2, Scanw: 2, Ints: make([]int32, 8)}, true},
		{"negative offset", Block{W: 1, H: 1, Offset: -1, Scanw: 1, Ints: make([]int32, 1)}, true},
		{"float array checked for float type", Block{W: 2, H: 1, Scanw: 2, Type: TypeFloat, Ints: make([]int32, 2)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.blk.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBlock)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlockCopyTo(t *testing.T) {
	src := &Block{ULX: 4, ULY: 5, W: 2, H: 2, Offset: 1, Scanw: 3, Progressive: true,
		Type: TypeFloat, Floats: []float64{9, 2.5, -0.6, 9, -1.5, 7.49}}

	ints := src.CopyTo(&Block{Type: TypeInt})
	assert.Equal(t, TypeInt, ints.Type)
	assert.Equal(t, 2, ints.Scanw)
	assert.Equal(t, 0, ints.Offset)
	assert.Equal(t, 4, ints.ULX)
	assert.True(t, ints.Progressive)
	// +0.5 then truncation toward zero.
	assert.Equal(t, []int32{3, 0, -1, 7}, ints.Ints)

	floats := ints.CopyTo(nil)
	assert.Equal(t, TypeInt, floats.Type, "nil destination keeps the source type")

	f := ints.CopyTo(&Block{Type: TypeFloat, Floats: make([]float64, 10)})
	assert.Equal(t, []float64{3, 0, -1, 7}, f.Floats)
	assert.Equal(t, 10, cap(f.Floats), "large enough arrays are reused")
}

func TestBlockContains(t *testing.T) {
	outer := &Block{ULX: 2, ULY: 2, W: 4, H: 4}
	assert.True(t, outer.Contains(&Block{ULX: 2, ULY: 3, W: 4, H: 3}))
	assert.False(t, outer.Contains(&Block{ULX: 1, ULY: 3, W: 2, H: 2}))
	assert.False(t, outer.Contains(&Block{ULX: 3, ULY: 3, W: 4, H: 1}))
}

func TestBlockRows(t *testing.T) {
	b := &Block{W: 2, H: 2, Offset: 1, Scanw: 3, Ints: []int32{0, 1, 2, 3, 4, 5, 6}}
	require.NoError(t, b.Validate())
	assert.Equal(t, []int32{1, 2}, b.IntRow(0))
	assert.Equal(t, []int32{4, 5}, b.IntRow(1))
	assert.Equal(t, "int block 2x2 at (0,0) off=1 scanw=3", b.String())
}

func TestBlockCopyToBorrowed(t *testing.T) {
	shared := []int32{1, 2, 3, 4}
	dst := &Block{W: 2, H: 2, Scanw: 2, Type: TypeInt, Ints: shared, borrowed: true}
	src := &Block{W: 2, H: 2, Scanw: 2, Type: TypeInt, Ints: []int32{5, 6, 7, 8}}

	got := src.CopyTo(dst)
	assert.Equal(t, []int32{5, 6, 7, 8}, got.Ints)
	assert.False(t, got.Borrowed())
	assert.Equal(t, []int32{1, 2, 3, 4}, shared, "borrowed arrays are never written")
}
