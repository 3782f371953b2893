package j2krecon

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// PlaneSpec describes one component of a PlanarImage.
type PlaneSpec struct {
	SubsX, SubsY int // subsampling factors, 0 means 1
	Bits         int // nominal bit depth
}

// Plane is one component of a PlanarImage. Samples are level shifted:
// an unsigned B-bit value v is stored as v - 2^(B-1).
type Plane struct {
	PlaneSpec
	W, H int
	Data []int32
}

// At returns sample (x, y).
func (p *Plane) At(x, y int) int32 { return p.Data[y*p.W+x] }

// Set stores sample (x, y).
func (p *Plane) Set(x, y int, v int32) { p.Data[y*p.W+x] = v }

// PlanarImage is an untiled in-memory image with its origin at (0,0).
type PlanarImage struct {
	w, h   int
	planes []*Plane
}

// NewPlanarImage allocates a w x h image with one zeroed plane per PlaneSpec.
func NewPlanarImage(w, h int, specs ...PlaneSpec) (*PlanarImage, error) {
	if w <= 0 || h <= 0 || len(specs) == 0 {
		return nil, errors.Wrapf(ErrInvalidGeometry, "planar image %dx%d with %d components", w, h, len(specs))
	}
	p := &PlanarImage{w: w, h: h}
	for i, s := range specs {
		if s.SubsX == 0 {
			s.SubsX = 1
		}
		if s.SubsY == 0 {
			s.SubsY = 1
		}
		if s.SubsX < 0 || s.SubsY < 0 || s.Bits <= 0 || s.Bits > 16 {
			return nil, errors.Wrapf(ErrInvalidGeometry, "component %d: subsampling %dx%d, %d bits", i, s.SubsX, s.SubsY, s.Bits)
		}
		pw, ph := ceilDiv(w, s.SubsX), ceilDiv(h, s.SubsY)
		p.planes = append(p.planes, &Plane{PlaneSpec: s, W: pw, H: ph, Data: make([]int32, pw*ph)})
	}
	return p, nil
}

// NewPlanarImageFromImage converts img into level-shifted planes: one plane
// for gray images, three (R, G, B) otherwise. 16-bit models keep 16 bits.
func NewPlanarImageFromImage(img image.Image) (*PlanarImage, error) {
	b := img.Bounds()
	bits, gray := 8, false
	switch img.ColorModel() {
	case color.GrayModel:
		gray = true
	case color.Gray16Model:
		gray, bits = true, 16
	case color.RGBA64Model, color.NRGBA64Model:
		bits = 16
	}
	n := 3
	if gray {
		n = 1
	}
	specs := make([]PlaneSpec, n)
	for i := range specs {
		specs[i] = PlaneSpec{Bits: bits}
	}
	p, err := NewPlanarImage(b.Dx(), b.Dy(), specs...)
	if err != nil {
		return nil, err
	}
	shift := uint(16 - bits)
	mid := int32(1) << (bits - 1)
	for y := range b.Dy() {
		for x := range b.Dx() {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if gray {
				p.planes[0].Set(x, y, int32(r>>shift)-mid)
				continue
			}
			p.planes[0].Set(x, y, int32(r>>shift)-mid)
			p.planes[1].Set(x, y, int32(g>>shift)-mid)
			p.planes[2].Set(x, y, int32(bl>>shift)-mid)
		}
	}
	return p, nil
}

// Plane returns component c for direct access.
func (p *PlanarImage) Plane(c int) *Plane { return p.planes[c] }

func (p *PlanarImage) NumTiles() (int, int) { return 1, 1 }
func (p *PlanarImage) Tile() (int, int) { return 0, 0 }
func (p *PlanarImage) TileIdx() int { return 0 }

// SetTile accepts only tile (0,0).
func (p *PlanarImage) SetTile(tx, ty int) error {
	if tx != 0 || ty != 0 {
		return errors.Wrapf(ErrInvalidTile, "tile (%d,%d) of an untiled image", tx, ty)
	}
	return nil
}

// NextTile always reports exhaustion.
func (p *PlanarImage) NextTile() error { return ErrNoMoreTiles }

func (p *PlanarImage) ImgULX() int { return 0 }
func (p *PlanarImage) ImgULY() int { return 0 }
func (p *PlanarImage) ImgWidth() int { return p.w }
func (p *PlanarImage) ImgHeight() int { return p.h }
func (p *PlanarImage) TilePartULX() int { return 0 }
func (p *PlanarImage) TilePartULY() int { return 0 }
func (p *PlanarImage) NomTileWidth() int { return p.w }
func (p *PlanarImage) NomTileHeight() int { return p.h }
func (p *PlanarImage) TileWidth() int { return p.w }
func (p *PlanarImage) TileHeight() int { return p.h }

func (p *PlanarImage) NumComps() int { return len(p.planes) }
func (p *PlanarImage) CompSubsX(c int) int { return p.planes[c].SubsX }
func (p *PlanarImage) CompSubsY(c int) int { return p.planes[c].SubsY }
func (p *PlanarImage) NomRangeBits(c int) int { return p.planes[c].Bits }
func (p *PlanarImage) CompImgWidth(c int) int { return p.planes[c].W }
func (p *PlanarImage) CompImgHeight(c int) int { return p.planes[c].H }
func (p *PlanarImage) CompULX(int) int { return 0 }
func (p *PlanarImage) CompULY(int) int { return 0 }
func (p *PlanarImage) TileCompWidth(c int) int { return p.planes[c].W }
func (p *PlanarImage) TileCompHeight(c int) int { return p.planes[c].H }

// InternCompData points blk at the plane memory of component c.
func (p *PlanarImage) InternCompData(blk *Block, c int) (*Block, error) {
	pl, err := p.checkBlock(blk, c)
	if err != nil {
		return nil, err
	}
	blk.Type = TypeInt
	blk.Ints = pl.Data
	blk.Floats = nil
	blk.Offset = blk.ULY*pl.W + blk.ULX
	blk.Scanw = pl.W
	blk.Progressive = false
	blk.borrowed = true
	return blk, nil
}

// CompData copies a block of component c into blk, converting to blk.Type.
func (p *PlanarImage) CompData(blk *Block, c int) (*Block, error) {
	pl, err := p.checkBlock(blk, c)
	if err != nil {
		return nil, err
	}
	view := Block{
		ULX: blk.ULX, ULY: blk.ULY, W: blk.W, H: blk.H,
		Offset: blk.ULY*pl.W + blk.ULX, Scanw: pl.W,
		Type: TypeInt, Ints: pl.Data,
	}
	return view.CopyTo(blk), nil
}

func (p *PlanarImage) checkBlock(blk *Block, c int) (*Plane, error) {
	if c < 0 || c >= len(p.planes) {
		return nil, errors.Wrapf(ErrInvalidComponent, "component %d of %d", c, len(p.planes))
	}
	pl := p.planes[c]
	if blk.ULX < 0 || blk.ULY < 0 || blk.W < 0 || blk.H < 0 || blk.ULX+blk.W > pl.W || blk.ULY+blk.H > pl.H {
		return nil, errors.Wrapf(ErrBlockOutOfBounds, "%v in component %dx%d", blk.Rect(), pl.W, pl.H)
	}
	return pl, nil
}
