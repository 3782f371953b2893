package j2krecon

import (
	"image"

	"github.com/pkg/errors"
)

// TileGrid is the partition of the reference-grid canvas into tiles.
//
// The image occupies [ImgX0, ImgX0+ImgW) x [ImgY0, ImgY0+ImgH). Tile cells
// have the nominal size TileW x TileH and are anchored at the tiling origin
// (TileX0, TileY0); each tile is its cell clipped to the image area.
type TileGrid struct {
	ImgX0, ImgY0   int
	ImgW, ImgH     int
	TileX0, TileY0 int
	TileW, TileH   int
	NumX, NumY     int
}

// NewTileGrid validates the geometry and computes the tile counts.
//
// A nominal tile size of 0 yields a single tile covering the whole image.
// The tiling origin is moved toward the image origin by whole tile sizes so
// that tile (0,0) overlaps the image; adjustedX/adjustedY report whether
// that happened.
func NewTileGrid(ax, ay, w, h, px, py, nw, nh int) (g TileGrid, adjustedX, adjustedY bool, err error) {
	if ax < 0 || ay < 0 || px < 0 || py < 0 || nw < 0 || nh < 0 || w <= 0 || h <= 0 {
		return g, false, false, errors.Wrapf(ErrInvalidGeometry,
			"image origin (%d,%d) size %dx%d tiling origin (%d,%d) tile %dx%d", ax, ay, w, h, px, py, nw, nh)
	}
	if px > ax || py > ay {
		return g, false, false, errors.Wrapf(ErrInvalidGeometry,
			"tiling origin (%d,%d) beyond image origin (%d,%d)", px, py, ax, ay)
	}
	if nw == 0 {
		nw = ax + w - px
	}
	if nh == 0 {
		nh = ay + h - py
	}
	if ax-px >= nw {
		px += ((ax - px) / nw) * nw
		adjustedX = true
	}
	if ay-py >= nh {
		py += ((ay - py) / nh) * nh
		adjustedY = true
	}
	g = TileGrid{
		ImgX0: ax, ImgY0: ay, ImgW: w, ImgH: h,
		TileX0: px, TileY0: py, TileW: nw, TileH: nh,
		NumX: ceilDiv(ax+w-px, nw),
		NumY: ceilDiv(ay+h-py, nh),
	}
	return g, adjustedX, adjustedY, nil
}

// NumTiles returns the total number of tiles.
func (g TileGrid) NumTiles() int {
	return g.NumX * g.NumY
}

// Valid reports whether (tx, ty) names a tile of the grid.
func (g TileGrid) Valid(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < g.NumX && ty < g.NumY
}

// ImageRect returns the image area on the reference grid.
func (g TileGrid) ImageRect() image.Rectangle {
	return image.Rect(g.ImgX0, g.ImgY0, g.ImgX0+g.ImgW, g.ImgY0+g.ImgH)
}

// TileRect returns the reference-grid extent of tile (tx, ty). The first
// tile in each direction starts at the image origin and the last one ends
// at the image edge.
func (g TileGrid) TileRect(tx, ty int) image.Rectangle {
	x0 := g.TileX0 + tx*g.TileW
	y0 := g.TileY0 + ty*g.TileH
	cell := image.Rect(x0, y0, x0+g.TileW, y0+g.TileH)
	return cell.Intersect(g.ImageRect())
}

// compRect maps a reference-grid rectangle to component coordinates for
// subsampling factors (sx, sy), rounding both corners up.
func compRect(r image.Rectangle, sx, sy int) image.Rectangle {
	return image.Rect(ceilDiv(r.Min.X, sx), ceilDiv(r.Min.Y, sy), ceilDiv(r.Max.X, sx), ceilDiv(r.Max.Y, sy))
}

// ceilDiv returns ceil(a/b) for b > 0 and a >= 0.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// ceilDivPow2 returns ceil(a / 2^n) for a >= 0.
func ceilDivPow2(a, n int) int {
	return (a + (1 << n) - 1) >> n
}
