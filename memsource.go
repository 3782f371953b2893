package j2krecon

import (
	"image"
	"math"
	"math/bits"

	"github.com/ajroetker/go-j2krecon/internal/logging"
	"github.com/pkg/errors"
)

// MemSourceOptions controls how BuildMemSource decomposes an image.
type MemSourceOptions struct {
	Levels       int
	Filter       WaveletType
	CBlkW, CBlkH int

	// Transform is the forward component transform applied to components
	// 0..2. RCT needs the 5/3 filter and ICT the 9/7 filter.
	Transform ComponentTransform

	// Quantize stores code-blocks as 32-bit sign-magnitude values, to be
	// read through a Dequantizer. Otherwise code-blocks hold coefficients
	// in the tile-component sample type.
	Quantize bool
	// Step is the quantization step of irreversible subbands; 0 selects
	// DefaultStep.
	Step float64

	// ROIShift, when positive, scales coefficients outside ROI down by
	// ROIShift bit planes. ROI is given in tile-component sample
	// coordinates and mapped to every subband. Requires Quantize.
	ROIShift int
	ROI      image.Rectangle
}

// DefaultStep is the irreversible quantization step used when none is set.
const DefaultStep = 1.0 / 8

// MemSource is a tiled CodeBlockSource holding every tile-component's
// wavelet coefficients in memory.
type MemSource struct {
	grid  TileGrid
	comps []memComp
	tiles []memTile
	cur   int
	specs *DecoderSpecs
}

type memComp struct {
	subsX, subsY int
	bits         int
}

type memTile struct {
	trees  []*SubbandTree
	coeffs []*Block // per component, in subband layout
}

// BuildMemSource reads every tile of src, applies the forward component
// transform and wavelet decomposition, and keeps the result as
// code-blocks. src is left on tile (0,0).
func BuildMemSource(src BlkImgDataSrc, opts MemSourceOptions) (*MemSource, error) {
	if err := opts.validate(src.NumComps()); err != nil {
		return nil, err
	}
	if opts.Step == 0 {
		opts.Step = DefaultStep
	}
	g, _, _, err := NewTileGrid(src.ImgULX(), src.ImgULY(), src.ImgWidth(), src.ImgHeight(),
		src.TilePartULX(), src.TilePartULY(), src.NomTileWidth(), src.NomTileHeight())
	if err != nil {
		return nil, err
	}
	if nx, ny := src.NumTiles(); nx != g.NumX || ny != g.NumY {
		return nil, errors.Wrapf(ErrInvalidGeometry, "source reports %dx%d tiles, geometry gives %dx%d", nx, ny, g.NumX, g.NumY)
	}
	ms := &MemSource{grid: g, tiles: make([]memTile, g.NumTiles())}
	for c := range src.NumComps() {
		ms.comps = append(ms.comps, memComp{subsX: src.CompSubsX(c), subsY: src.CompSubsY(c), bits: src.NomRangeBits(c)})
	}

	var bufs liftBufs
	for t := range ms.tiles {
		if err := src.SetTile(t%g.NumX, t/g.NumX); err != nil {
			return nil, err
		}
		mt, err := buildTile(src, t, opts, &bufs)
		if err != nil {
			return nil, errors.Wrapf(err, "tile %d", t)
		}
		ms.tiles[t] = mt
	}
	if err := src.SetTile(0, 0); err != nil {
		return nil, err
	}

	ms.specs = NewDecoderSpecs(len(ms.tiles), len(ms.comps))
	ms.specs.CompTransform.SetDefault(opts.Transform)
	if opts.ROIShift > 0 {
		ms.specs.ROIShifts.SetDefault(opts.ROIShift)
	}
	logging.Debug("built %d tiles x %d components, %d levels, filter %v, transform %v",
		len(ms.tiles), len(ms.comps), opts.Levels, opts.Filter, opts.Transform)
	return ms, nil
}

func (o *MemSourceOptions) validate(ncomps int) error {
	if o.Levels < 0 || o.CBlkW < 0 || o.CBlkH < 0 || o.Step < 0 || o.ROIShift < 0 {
		return errors.Wrapf(ErrInvalidGeometry, "levels %d code-block %dx%d step %g ROI shift %d",
			o.Levels, o.CBlkW, o.CBlkH, o.Step, o.ROIShift)
	}
	if !o.Filter.valid() {
		return errors.Wrapf(ErrUnknownFilter, "%v", o.Filter)
	}
	switch o.Transform {
	case CTNone:
	case CTRCT, CTICT:
		if ncomps < 3 {
			return errors.Wrapf(ErrTransformComponents, "%v with %d components", o.Transform, ncomps)
		}
		if (o.Transform == CTRCT) != o.Filter.Reversible() {
			return errors.Wrapf(ErrIncoherentTransform, "%v with %v filter", o.Transform, o.Filter)
		}
	default:
		return errors.Wrapf(ErrUnknownTransform, "%v", o.Transform)
	}
	if o.ROIShift > 0 && !o.Quantize {
		return errors.New("j2krecon: ROI scaling needs quantized code-blocks")
	}
	return nil
}

// buildTile decomposes every component of the source's current tile.
func buildTile(src BlkImgDataSrc, t int, opts MemSourceOptions, bufs *liftBufs) (memTile, error) {
	n := src.NumComps()
	mt := memTile{trees: make([]*SubbandTree, n), coeffs: make([]*Block, n)}
	dt := opts.Filter.DataType()
	for c := range n {
		blk := &Block{W: src.TileCompWidth(c), H: src.TileCompHeight(c), Type: dt}
		got, err := src.CompData(blk, c)
		if err != nil {
			return mt, err
		}
		got.ULX, got.ULY = 0, 0
		mt.coeffs[c] = got
	}
	if opts.Transform != CTNone {
		in := [3]*Block{mt.coeffs[0], mt.coeffs[1], mt.coeffs[2]}
		var err error
		if opts.Transform == CTRCT {
			err = forwardRCT(in, in)
		} else {
			err = forwardICT(in, in)
		}
		if err != nil {
			return mt, err
		}
	}
	for c := range n {
		tree, err := BuildSubbandTree(TreeParams{
			W: src.TileCompWidth(c), H: src.TileCompHeight(c),
			ULCX: src.CompULX(c), ULCY: src.CompULY(c),
			Levels: opts.Levels,
			Filter: opts.Filter,
			CBlkW:  opts.CBlkW, CBlkH: opts.CBlkH,
			Step:   opts.Step,
		})
		if err != nil {
			return mt, err
		}
		if err := bufs.analyzeTree(mt.coeffs[c], tree); err != nil {
			return mt, err
		}
		if opts.Quantize {
			q, err := quantize(mt.coeffs[c], tree, opts)
			if err != nil {
				return mt, errors.Wrapf(err, "component %d", c)
			}
			mt.coeffs[c] = q
		}
		mt.trees[c] = tree
	}
	return mt, nil
}

// quantize converts the coefficients of every leaf into sign-magnitude
// form and records each leaf's magnitude bit count.
func quantize(coeffs *Block, tree *SubbandTree, opts MemSourceOptions) (*Block, error) {
	out := NewIntBlock(0, 0, coeffs.W, coeffs.H)
	for _, idx := range tree.Leaves() {
		sb := &tree.Nodes[idx]
		mags := make([]uint32, 0, sb.W*sb.H)
		var maxMag uint32
		for y := range sb.H {
			for x := range sb.W {
				i := coeffs.Offset + (sb.ULY+y)*coeffs.Scanw + sb.ULX + x
				var m uint32
				if coeffs.Type == TypeInt {
					m = uint32(abs32(coeffs.Ints[i]))
				} else {
					m = uint32(math.Round(math.Abs(coeffs.Floats[i]) / sb.Step))
				}
				mags = append(mags, m)
				maxMag = max(maxMag, m)
			}
		}
		sb.MagBits = max(1, bits.Len32(maxMag))
		if sb.MagBits > 30 {
			return nil, errors.Wrapf(ErrInvalidSubband, "subband %d needs %d magnitude bits", idx, sb.MagBits)
		}
		s := opts.ROIShift
		if s > 0 && (s < sb.MagBits || sb.MagBits+s > 31) {
			return nil, errors.Wrapf(ErrInvalidSubband, "subband %d: ROI shift %d with %d magnitude bits", idx, s, sb.MagBits)
		}
		roi := bandROI(opts.ROI, sb)
		k := 0
		for y := range sb.H {
			for x := range sb.W {
				i := coeffs.Offset + (sb.ULY+y)*coeffs.Scanw + sb.ULX + x
				v := mags[k] << (31 - sb.MagBits)
				k++
				if s > 0 && !image.Pt(x, y).In(roi) {
					v >>= s
				}
				neg := false
				if coeffs.Type == TypeInt {
					neg = coeffs.Ints[i] < 0
				} else {
					neg = coeffs.Floats[i] < 0
				}
				if neg && v != 0 {
					v |= signBit
				}
				out.Ints[(sb.ULY+y)*out.Scanw+sb.ULX+x] = int32(v)
			}
		}
	}
	return out, nil
}

// bandROI maps an ROI in tile-component sample coordinates to band-relative
// coefficient coordinates of sb.
func bandROI(r image.Rectangle, sb *Subband) image.Rectangle {
	if r.Empty() {
		return r
	}
	d := sb.Level
	return image.Rect(r.Min.X>>d, r.Min.Y>>d, ceilDivPow2(r.Max.X, d), ceilDivPow2(r.Max.Y, d))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Specs returns decoder parameters matching the options used to build ms.
func (ms *MemSource) Specs() *DecoderSpecs { return ms.specs }

func (ms *MemSource) tile() *memTile { return &ms.tiles[ms.cur] }

func (ms *MemSource) NumTiles() (int, int) { return ms.grid.NumX, ms.grid.NumY }
func (ms *MemSource) Tile() (int, int) { return ms.cur % ms.grid.NumX, ms.cur / ms.grid.NumX }
func (ms *MemSource) TileIdx() int { return ms.cur }

// SetTile makes tile (tx, ty) current.
func (ms *MemSource) SetTile(tx, ty int) error {
	if !ms.grid.Valid(tx, ty) {
		return errors.Wrapf(ErrInvalidTile, "tile (%d,%d) of %dx%d", tx, ty, ms.grid.NumX, ms.grid.NumY)
	}
	ms.cur = ty*ms.grid.NumX + tx
	return nil
}

// NextTile advances to the next tile in raster order.
func (ms *MemSource) NextTile() error {
	if ms.cur+1 >= len(ms.tiles) {
		return ErrNoMoreTiles
	}
	ms.cur++
	return nil
}

func (ms *MemSource) ImgULX() int { return ms.grid.ImgX0 }
func (ms *MemSource) ImgULY() int { return ms.grid.ImgY0 }
func (ms *MemSource) ImgWidth() int { return ms.grid.ImgW }
func (ms *MemSource) ImgHeight() int { return ms.grid.ImgH }
func (ms *MemSource) TilePartULX() int { return ms.grid.TileX0 }
func (ms *MemSource) TilePartULY() int { return ms.grid.TileY0 }
func (ms *MemSource) NomTileWidth() int { return ms.grid.TileW }
func (ms *MemSource) NomTileHeight() int { return ms.grid.TileH }

func (ms *MemSource) tileRect() image.Rectangle {
	tx, ty := ms.Tile()
	return ms.grid.TileRect(tx, ty)
}

func (ms *MemSource) TileWidth() int { return ms.tileRect().Dx() }
func (ms *MemSource) TileHeight() int { return ms.tileRect().Dy() }

func (ms *MemSource) NumComps() int { return len(ms.comps) }
func (ms *MemSource) CompSubsX(c int) int { return ms.comps[c].subsX }
func (ms *MemSource) CompSubsY(c int) int { return ms.comps[c].subsY }
func (ms *MemSource) NomRangeBits(c int) int { return ms.comps[c].bits }

func (ms *MemSource) CompImgWidth(c int) int {
	return compRect(ms.grid.ImageRect(), ms.comps[c].subsX, ms.comps[c].subsY).Dx()
}

func (ms *MemSource) CompImgHeight(c int) int {
	return compRect(ms.grid.ImageRect(), ms.comps[c].subsX, ms.comps[c].subsY).Dy()
}

func (ms *MemSource) CompULX(c int) int { return ms.tile().trees[c].Root().ULCX }
func (ms *MemSource) CompULY(c int) int { return ms.tile().trees[c].Root().ULCY }
func (ms *MemSource) TileCompWidth(c int) int { return ms.tile().trees[c].Root().W }
func (ms *MemSource) TileCompHeight(c int) int { return ms.tile().trees[c].Root().H }

// SubbandTree returns the tree of component c in the current tile.
func (ms *MemSource) SubbandTree(c int) (*SubbandTree, error) {
	if c < 0 || c >= len(ms.comps) {
		return nil, errors.Wrapf(ErrInvalidComponent, "component %d of %d", c, len(ms.comps))
	}
	return ms.tile().trees[c], nil
}

// CodeBlock copies code-block (m, n) of leaf sb of component c into dst.
func (ms *MemSource) CodeBlock(c, sb, m, n int, dst *Block) (*Block, error) {
	tree, err := ms.SubbandTree(c)
	if err != nil {
		return nil, err
	}
	node, err := tree.Node(sb)
	if err != nil {
		return nil, err
	}
	if !node.IsLeaf() {
		return nil, errors.Wrapf(ErrInvalidSubband, "subband %d is not a leaf", sb)
	}
	r, err := node.CodeBlockRect(m, n)
	if err != nil {
		return nil, err
	}
	coeffs := ms.tile().coeffs[c]
	view := Block{
		ULX: r.Min.X, ULY: r.Min.Y, W: r.Dx(), H: r.Dy(),
		Offset: coeffs.Offset + r.Min.Y*coeffs.Scanw + r.Min.X, Scanw: coeffs.Scanw,
		Type: coeffs.Type, Ints: coeffs.Ints, Floats: coeffs.Floats,
	}
	if dst != nil {
		dst.Type = coeffs.Type
	}
	return view.CopyTo(dst), nil
}
