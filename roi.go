package j2krecon

import "github.com/pkg/errors"

const (
	signBit = 0x80000000
	magMask = 0x7FFFFFFF
)

// ROIDeScaler undoes max-shift ROI scaling on quantized code-blocks.
//
// Code-block samples are 32-bit sign-magnitude values: bit 31 is the sign
// and the magnitude is aligned so that its most significant bit plane is
// bit 30. Background coefficients were scaled down by the tile-component's
// ROI boost so that none of their bits overlap the subband's top MagBits
// bit planes; they are shifted back up, keeping the sign.
type ROIDeScaler struct {
	CodeBlockSource
	specs *DecoderSpecs
}

// NewROIDeScaler wraps src. Tile-components without an ROI boost in specs
// pass through unchanged.
func NewROIDeScaler(src CodeBlockSource, specs *DecoderSpecs) *ROIDeScaler {
	return &ROIDeScaler{CodeBlockSource: src, specs: specs}
}

// CodeBlock returns code-block (m, n) of subband sb of component c with
// ROI scaling removed.
func (r *ROIDeScaler) CodeBlock(c, sb, m, n int, dst *Block) (*Block, error) {
	blk, err := r.CodeBlockSource.CodeBlock(c, sb, m, n, dst)
	if err != nil || blk == nil {
		return blk, err
	}
	if err := blk.Validate(); err != nil {
		return nil, err
	}
	shift, ok := r.specs.ROIShift(r.TileIdx(), c)
	if !ok {
		return blk, nil
	}
	tree, err := r.SubbandTree(c)
	if err != nil {
		return nil, err
	}
	node, err := tree.Node(sb)
	if err != nil {
		return nil, err
	}
	if blk.Type != TypeInt {
		return nil, errors.Wrapf(ErrDataType, "ROI code-block is %s", blk.Type)
	}
	if node.MagBits < 1 || node.MagBits > 30 {
		return nil, errors.Wrapf(ErrInvalidSubband, "subband %d: %d magnitude bits", sb, node.MagBits)
	}
	descaleROI(blk, node.MagBits, shift)
	return blk, nil
}

// descaleROI rewrites blk in place, walking from the last sample backwards.
// Samples with none of the top magBits planes set are background and are
// shifted up by shift. ROI samples that carry bits below those planes get
// them replaced by the mid-interval bit 1<<(30-magBits).
func descaleROI(blk *Block, magBits, shift int) {
	if blk.W == 0 || blk.H == 0 {
		return
	}
	mask := uint32((1<<magBits)-1) << (31 - magBits)
	mask2 := ^mask & magMask
	half := uint32(1) << (30 - magBits)
	data := blk.Ints
	wrap := blk.Scanw - blk.W
	i := blk.Offset + blk.Scanw*(blk.H-1) + blk.W - 1
	for j := blk.H; j > 0; j-- {
		for k := blk.W; k > 0; k-- {
			tmp := uint32(data[i])
			if tmp&mask == 0 {
				data[i] = int32((tmp & signBit) | (tmp << shift))
			} else if tmp&mask2 != 0 {
				data[i] = int32((tmp &^ mask2) | half)
			}
			i--
		}
		i -= wrap
	}
}
