package j2krecon

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// DataType identifies the sample representation carried by a Block.
type DataType int

const (
	TypeInt   DataType = iota // int32 samples (reversible pipeline)
	TypeFloat                 // float64 samples (irreversible pipeline)
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// Block describes a rectangular region of samples inside a backing array.
//
// Only the array matching Type is meaningful. Sample (x, y) of the block,
// relative to (ULX, ULY), lives at index Offset + y*Scanw + x.
type Block struct {
	ULX, ULY int
	W, H     int
	Offset   int
	Scanw    int

	// Progressive marks the samples as a provisional approximation that
	// later bit-planes may refine.
	Progressive bool

	Type   DataType
	Ints   []int32
	Floats []float64

	// borrowed is set when the arrays belong to a stage (InternCompData).
	// reshape never writes through borrowed arrays.
	borrowed bool
}

// NewIntBlock returns a compact int32 block.
func NewIntBlock(ulx, uly, w, h int) *Block {
	return &Block{ULX: ulx, ULY: uly, W: w, H: h, Scanw: w, Type: TypeInt, Ints: make([]int32, w*h)}
}

// NewFloatBlock returns a compact float64 block.
func NewFloatBlock(ulx, uly, w, h int) *Block {
	return &Block{ULX: ulx, ULY: uly, W: w, H: h, Scanw: w, Type: TypeFloat, Floats: make([]float64, w*h)}
}

// Rect returns the block extent.
func (b *Block) Rect() image.Rectangle {
	return image.Rect(b.ULX, b.ULY, b.ULX+b.W, b.ULY+b.H)
}

// Contains reports whether the extent of o lies inside b.
func (b *Block) Contains(o *Block) bool {
	return o.ULX >= b.ULX && o.ULY >= b.ULY &&
		o.ULX+o.W <= b.ULX+b.W && o.ULY+o.H <= b.ULY+b.H
}

// Len returns the length of the backing array for the block's type.
func (b *Block) Len() int {
	if b.Type == TypeFloat {
		return len(b.Floats)
	}
	return len(b.Ints)
}

// Borrowed reports whether the arrays of b are owned by the stage that
// filled it. Borrowed samples must not be modified.
func (b *Block) Borrowed() bool { return b.borrowed }

// Validate checks that the block geometry stays inside its backing array.
func (b *Block) Validate() error {
	if b.W < 0 || b.H < 0 || b.Offset < 0 {
		return errors.Wrapf(ErrInvalidBlock, "block %v: negative geometry", b)
	}
	if b.W == 0 || b.H == 0 {
		return nil
	}
	if b.Scanw < b.W {
		return errors.Wrapf(ErrInvalidBlock, "block %v: scan width %d < width %d", b, b.Scanw, b.W)
	}
	if last := b.Offset + (b.H-1)*b.Scanw + b.W - 1; last >= b.Len() {
		return errors.Wrapf(ErrInvalidBlock, "block %v: last index %d, array length %d", b, last, b.Len())
	}
	return nil
}

// IntRow returns row y of an int block, limited to the block width.
func (b *Block) IntRow(y int) []int32 {
	off := b.Offset + y*b.Scanw
	return b.Ints[off : off+b.W]
}

// FloatRow returns row y of a float block, limited to the block width.
func (b *Block) FloatRow(y int) []float64 {
	off := b.Offset + y*b.Scanw
	return b.Floats[off : off+b.W]
}

// reshape sets the block geometry to a compact w x h layout of type t,
// reusing the backing array when it is large enough and owned by b.
func (b *Block) reshape(ulx, uly, w, h int, t DataType) {
	if b.borrowed {
		b.Ints, b.Floats = nil, nil
		b.borrowed = false
	}
	b.ULX, b.ULY, b.W, b.H = ulx, uly, w, h
	b.Offset, b.Scanw = 0, w
	b.Type = t
	n := w * h
	switch t {
	case TypeInt:
		if cap(b.Ints) < n {
			b.Ints = make([]int32, n)
		}
		b.Ints = b.Ints[:n]
	case TypeFloat:
		if cap(b.Floats) < n {
			b.Floats = make([]float64, n)
		}
		b.Floats = b.Floats[:n]
	}
}

// CopyTo copies the samples of b into dst, which is reshaped to a compact
// layout with b's extent. If dst is nil a new block of b's type is
// allocated; otherwise dst.Type selects the output representation and
// samples are converted as needed (float to int adds 0.5 and truncates).
func (b *Block) CopyTo(dst *Block) *Block {
	if dst == nil {
		dst = &Block{Type: b.Type}
	}
	dst.reshape(b.ULX, b.ULY, b.W, b.H, dst.Type)
	dst.Progressive = b.Progressive
	for y := range b.H {
		d := y * b.W
		switch {
		case b.Type == TypeInt && dst.Type == TypeInt:
			copy(dst.Ints[d:d+b.W], b.IntRow(y))
		case b.Type == TypeFloat && dst.Type == TypeFloat:
			copy(dst.Floats[d:d+b.W], b.FloatRow(y))
		case b.Type == TypeInt && dst.Type == TypeFloat:
			for x, v := range b.IntRow(y) {
				dst.Floats[d+x] = float64(v)
			}
		default:
			for x, v := range b.FloatRow(y) {
				dst.Ints[d+x] = roundSample(v)
			}
		}
	}
	return dst
}

// String implements fmt.Stringer.
func (b *Block) String() string {
	return fmt.Sprintf("%s block %dx%d at (%d,%d) off=%d scanw=%d",
		b.Type, b.W, b.H, b.ULX, b.ULY, b.Offset, b.Scanw)
}

// roundSample converts a float sample with a +0.5 bias before truncation.
func roundSample(v float64) int32 {
	return int32(v + 0.5)
}
