package j2krecon

import (
	"image"

	"github.com/ajroetker/go-j2krecon/internal/logging"
	"github.com/pkg/errors"
)

// Tiler exposes an untiled source image as a tiled image placed on the
// reference-grid canvas.
type Tiler struct {
	src  BlkImgDataSrc
	grid TileGrid
	cur  tilerTile
}

// tilerTile is the state of the current tile. It is replaced as a whole on
// every tile change.
type tilerTile struct {
	tx, ty int
	rect   image.Rectangle
	comps  []image.Rectangle // per component, component coordinates
}

// NewTiler places src at image origin (ax, ay) and tiles it with nominal
// tiles of nw x nh anchored at (px, py). A nominal size of 0 yields a
// single tile in that direction.
func NewTiler(src BlkImgDataSrc, ax, ay, px, py, nw, nh int) (*Tiler, error) {
	if nx, ny := src.NumTiles(); nx != 1 || ny != 1 {
		return nil, errors.Wrapf(ErrSourceTiled, "source has %dx%d tiles", nx, ny)
	}
	if src.ImgULX() != 0 || src.ImgULY() != 0 {
		return nil, errors.Wrapf(ErrSourceCanvased, "source origin (%d,%d)", src.ImgULX(), src.ImgULY())
	}
	g, adjX, adjY, err := NewTileGrid(ax, ay, src.ImgWidth(), src.ImgHeight(), px, py, nw, nh)
	if err != nil {
		return nil, err
	}
	if adjX {
		logging.Info("tiling origin x moved from %d to %d to overlap image origin %d", px, g.TileX0, ax)
	}
	if adjY {
		logging.Info("tiling origin y moved from %d to %d to overlap image origin %d", py, g.TileY0, ay)
	}
	t := &Tiler{src: src, grid: g}
	t.cur = t.newTile(0, 0)
	return t, nil
}

func (t *Tiler) newTile(tx, ty int) tilerTile {
	st := tilerTile{tx: tx, ty: ty, rect: t.grid.TileRect(tx, ty)}
	st.comps = make([]image.Rectangle, t.src.NumComps())
	for c := range st.comps {
		st.comps[c] = compRect(st.rect, t.src.CompSubsX(c), t.src.CompSubsY(c))
	}
	return st
}

func (t *Tiler) NumTiles() (int, int) { return t.grid.NumX, t.grid.NumY }
func (t *Tiler) Tile() (int, int) { return t.cur.tx, t.cur.ty }
func (t *Tiler) TileIdx() int { return t.cur.ty*t.grid.NumX + t.cur.tx }

// SetTile makes tile (tx, ty) current.
func (t *Tiler) SetTile(tx, ty int) error {
	if !t.grid.Valid(tx, ty) {
		return errors.Wrapf(ErrInvalidTile, "tile (%d,%d) of %dx%d", tx, ty, t.grid.NumX, t.grid.NumY)
	}
	t.cur = t.newTile(tx, ty)
	return nil
}

// NextTile advances to the next tile in raster order.
func (t *Tiler) NextTile() error {
	tx, ty := t.cur.tx+1, t.cur.ty
	if tx == t.grid.NumX {
		tx, ty = 0, ty+1
	}
	if ty == t.grid.NumY {
		return ErrNoMoreTiles
	}
	t.cur = t.newTile(tx, ty)
	return nil
}

func (t *Tiler) ImgULX() int { return t.grid.ImgX0 }
func (t *Tiler) ImgULY() int { return t.grid.ImgY0 }
func (t *Tiler) ImgWidth() int { return t.grid.ImgW }
func (t *Tiler) ImgHeight() int { return t.grid.ImgH }
func (t *Tiler) TilePartULX() int { return t.grid.TileX0 }
func (t *Tiler) TilePartULY() int { return t.grid.TileY0 }
func (t *Tiler) NomTileWidth() int { return t.grid.TileW }
func (t *Tiler) NomTileHeight() int { return t.grid.TileH }
func (t *Tiler) TileWidth() int { return t.cur.rect.Dx() }
func (t *Tiler) TileHeight() int { return t.cur.rect.Dy() }

func (t *Tiler) NumComps() int { return t.src.NumComps() }
func (t *Tiler) CompSubsX(c int) int { return t.src.CompSubsX(c) }
func (t *Tiler) CompSubsY(c int) int { return t.src.CompSubsY(c) }
func (t *Tiler) NomRangeBits(c int) int { return t.src.NomRangeBits(c) }

// CompImgWidth returns the width of component c over the image area.
func (t *Tiler) CompImgWidth(c int) int {
	return compRect(t.grid.ImageRect(), t.CompSubsX(c), t.CompSubsY(c)).Dx()
}

// CompImgHeight returns the height of component c over the image area.
func (t *Tiler) CompImgHeight(c int) int {
	return compRect(t.grid.ImageRect(), t.CompSubsX(c), t.CompSubsY(c)).Dy()
}

func (t *Tiler) CompULX(c int) int { return t.cur.comps[c].Min.X }
func (t *Tiler) CompULY(c int) int { return t.cur.comps[c].Min.Y }
func (t *Tiler) TileCompWidth(c int) int { return t.cur.comps[c].Dx() }
func (t *Tiler) TileCompHeight(c int) int { return t.cur.comps[c].Dy() }

// InternCompData returns a tile-relative block of component c, possibly
// pointing into memory owned by the source.
func (t *Tiler) InternCompData(blk *Block, c int) (*Block, error) {
	return t.fetch(blk, c, t.src.InternCompData)
}

// CompData returns a tile-relative copy of a block of component c.
func (t *Tiler) CompData(blk *Block, c int) (*Block, error) {
	return t.fetch(blk, c, t.src.CompData)
}

func (t *Tiler) fetch(blk *Block, c int, get func(*Block, int) (*Block, error)) (*Block, error) {
	if c < 0 || c >= t.NumComps() {
		return nil, errors.Wrapf(ErrInvalidComponent, "component %d of %d", c, t.NumComps())
	}
	r := t.cur.comps[c]
	if blk.ULX < 0 || blk.ULY < 0 || blk.W < 0 || blk.H < 0 ||
		blk.ULX+blk.W > r.Dx() || blk.ULY+blk.H > r.Dy() {
		return nil, errors.Wrapf(ErrBlockOutOfBounds, "%v in tile-component %dx%d", blk.Rect(), r.Dx(), r.Dy())
	}
	// Source coordinates are relative to the component image origin.
	img := compRect(t.grid.ImageRect(), t.CompSubsX(c), t.CompSubsY(c))
	dx, dy := r.Min.X-img.Min.X, r.Min.Y-img.Min.Y
	blk.ULX += dx
	blk.ULY += dy
	out, err := get(blk, c)
	if out != blk {
		blk.ULX -= dx
		blk.ULY -= dy
	}
	if err != nil {
		return nil, err
	}
	out.ULX -= dx
	out.ULY -= dy
	return out, nil
}
