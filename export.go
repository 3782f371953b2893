package j2krecon

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// ToImage reads every tile of src and assembles a standard library image.
//
// One or two components produce a gray image from component 0; three or
// more produce RGB from components 0..2. Depths above 8 bits produce 16-bit
// images. Samples are level shifted by 2^(B-1) and clamped to B bits.
// Subsampled components are upsampled by nearest neighbour. src is left on
// its last tile.
func ToImage(src BlkImgDataSrc) (image.Image, error) {
	w, h := src.ImgWidth(), src.ImgHeight()
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrInvalidGeometry, "image %dx%d", w, h)
	}
	nc := 1
	if src.NumComps() >= 3 {
		nc = 3
	}
	planes := make([]*Plane, nc)
	deep := false
	for c := range planes {
		bits := src.NomRangeBits(c)
		if bits <= 0 || bits > 16 {
			return nil, errors.Wrapf(ErrInvalidComponent, "component %d has %d bits", c, bits)
		}
		deep = deep || bits > 8
		cw, ch := src.CompImgWidth(c), src.CompImgHeight(c)
		planes[c] = &Plane{PlaneSpec: PlaneSpec{Bits: bits}, W: cw, H: ch, Data: make([]int32, cw*ch)}
	}

	if err := src.SetTile(0, 0); err != nil {
		return nil, err
	}
	blk := &Block{Type: TypeInt}
	for {
		for c, pl := range planes {
			var err error
			if blk, err = readTileComp(src, c, pl, blk); err != nil {
				return nil, err
			}
		}
		if err := src.NextTile(); err != nil {
			if errors.Is(err, ErrNoMoreTiles) {
				break
			}
			return nil, err
		}
	}

	r := image.Rect(0, 0, w, h)
	sample := func(c, x, y int) uint32 {
		pl := planes[c]
		return levelShift(componentSample(pl, x, y, w, h), pl.Bits)
	}
	switch {
	case nc == 1 && !deep:
		img := image.NewGray(r)
		for y := range h {
			for x := range w {
				img.SetGray(x, y, color.Gray{Y: uint8(scaleBits(sample(0, x, y), planes[0].Bits, 8))})
			}
		}
		return img, nil
	case nc == 1:
		img := image.NewGray16(r)
		for y := range h {
			for x := range w {
				img.SetGray16(x, y, color.Gray16{Y: uint16(scaleBits(sample(0, x, y), planes[0].Bits, 16))})
			}
		}
		return img, nil
	case !deep:
		img := image.NewRGBA(r)
		for y := range h {
			for x := range w {
				i := img.PixOffset(x, y)
				for c := range 3 {
					img.Pix[i+c] = uint8(scaleBits(sample(c, x, y), planes[c].Bits, 8))
				}
				img.Pix[i+3] = 255
			}
		}
		return img, nil
	default:
		img := image.NewRGBA64(r)
		for y := range h {
			for x := range w {
				img.SetRGBA64(x, y, color.RGBA64{
					R: uint16(scaleBits(sample(0, x, y), planes[0].Bits, 16)),
					G: uint16(scaleBits(sample(1, x, y), planes[1].Bits, 16)),
					B: uint16(scaleBits(sample(2, x, y), planes[2].Bits, 16)),
					A: 0xFFFF,
				})
			}
		}
		return img, nil
	}
}

// readTileComp copies component c of the current tile into its place in pl.
func readTileComp(src BlkImgDataSrc, c int, pl *Plane, blk *Block) (*Block, error) {
	tw, th := src.TileCompWidth(c), src.TileCompHeight(c)
	if tw == 0 || th == 0 {
		return blk, nil
	}
	blk.ULX, blk.ULY, blk.W, blk.H = 0, 0, tw, th
	blk.Type = TypeInt
	got, err := src.CompData(blk, c)
	if err != nil {
		return blk, err
	}
	// Tile-component origin relative to the component image origin.
	x0 := src.CompULX(c) - ceilDiv(src.ImgULX(), src.CompSubsX(c))
	y0 := src.CompULY(c) - ceilDiv(src.ImgULY(), src.CompSubsY(c))
	if x0 < 0 || y0 < 0 || x0+tw > pl.W || y0+th > pl.H {
		return got, errors.Wrapf(ErrBlockOutOfBounds, "tile-component %dx%d at (%d,%d) in %dx%d", tw, th, x0, y0, pl.W, pl.H)
	}
	for y := range th {
		d := (y0+y)*pl.W + x0
		copy(pl.Data[d:d+tw], got.IntRow(y))
	}
	return got, nil
}

// componentSample returns the sample of pl that covers output pixel (x, y)
// of an outW x outH image, using nearest-neighbour upsampling.
func componentSample(pl *Plane, x, y, outW, outH int) int32 {
	if pl.W == 0 || pl.H == 0 {
		return 0
	}
	cx, cy := x, y
	if pl.W < outW {
		cx = x * pl.W / outW
	}
	if pl.H < outH {
		cy = y * pl.H / outH
	}
	return pl.At(min(cx, pl.W-1), min(cy, pl.H-1))
}

// levelShift undoes the DC level shift of a bits-deep sample and clamps the
// result to [0, 2^bits-1].
func levelShift(v int32, bits int) uint32 {
	v += 1 << (bits - 1)
	if v < 0 {
		return 0
	}
	if maxVal := int32(1)<<bits - 1; v > maxVal {
		return uint32(maxVal)
	}
	return uint32(v)
}

// scaleBits maps v from a from-bit range to a to-bit range.
func scaleBits(v uint32, from, to int) uint32 {
	if from == to {
		return v
	}
	fromMax := uint32(1)<<from - 1
	toMax := uint32(1)<<to - 1
	return (v*toMax + fromMax/2) / fromMax
}
