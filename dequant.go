package j2krecon

import "github.com/pkg/errors"

// Dequantizer converts sign-magnitude code-blocks into the sample type of
// their tile-component.
//
// For reversible tile-components the magnitude is realigned to its integer
// value; for irreversible ones the realigned magnitude, including any
// fractional bit planes, is scaled by the subband step.
type Dequantizer struct {
	CodeBlockSource
	raw *Block
}

// NewDequantizer wraps src.
func NewDequantizer(src CodeBlockSource) *Dequantizer {
	return &Dequantizer{CodeBlockSource: src}
}

// CodeBlock returns code-block (m, n) of subband sb of component c,
// dequantized into dst.
func (d *Dequantizer) CodeBlock(c, sb, m, n int, dst *Block) (*Block, error) {
	raw, err := d.CodeBlockSource.CodeBlock(c, sb, m, n, d.raw)
	if err != nil {
		return nil, err
	}
	d.raw = raw
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if raw.Type != TypeInt {
		return nil, errors.Wrapf(ErrDataType, "quantized code-block is %s", raw.Type)
	}
	tree, err := d.SubbandTree(c)
	if err != nil {
		return nil, err
	}
	node, err := tree.Node(sb)
	if err != nil {
		return nil, err
	}
	dt, err := tree.DataType()
	if err != nil {
		return nil, err
	}
	if node.MagBits < 0 || node.MagBits > 31 {
		return nil, errors.Wrapf(ErrInvalidSubband, "subband %d: %d magnitude bits", sb, node.MagBits)
	}
	if dst == nil {
		dst = &Block{}
	}
	dst.reshape(raw.ULX, raw.ULY, raw.W, raw.H, dt)
	dst.Progressive = raw.Progressive

	shift := uint(31 - node.MagBits)
	scale := node.Step / float64(uint64(1)<<shift)
	for y := range raw.H {
		src := raw.IntRow(y)
		off := y * raw.W
		for x, v := range src {
			mag := uint32(v) & magMask
			switch dt {
			case TypeInt:
				q := int32(mag >> shift)
				if v < 0 {
					q = -q
				}
				dst.Ints[off+x] = q
			default:
				f := float64(mag) * scale
				if v < 0 {
					f = -f
				}
				dst.Floats[off+x] = f
			}
		}
	}
	return dst, nil
}
