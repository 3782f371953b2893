package j2krecon

import (
	"github.com/ajroetker/go-j2krecon/internal/logging"
	"github.com/pkg/errors"
)

// InvWTOptions configures an InvWT.
type InvWTOptions struct {
	// ResLevel is the resolution level to reconstruct. Level 0 is the
	// coarsest LL band; -1, or any level above a tree's depth, selects full
	// resolution.
	ResLevel int
}

// InvWT reconstructs image samples from code-blocks by recursive inverse
// wavelet synthesis over each tile-component's subband tree.
//
// Reconstruction is lazy: the first data request for a component of the
// current tile reconstructs the whole tile-component at the target
// resolution and caches it until the next tile change.
type InvWT struct {
	src      CodeBlockSource
	resLevel int

	// discard[c] is the number of finest levels dropped for component c,
	// taken from the tile current at construction. It scales the
	// image-wide geometry.
	discard []int

	bufs liftBufs
	cblk *Block
	cur  *wtTile
}

type wtTile struct {
	idx   int
	comps []wtComp
}

type wtComp struct {
	tree        *SubbandTree
	node        int // LL-chain node at the target resolution
	reversible  bool
	buf         *Block
	progressive bool
}

// NewInvWT wraps src and prepares its current tile.
func NewInvWT(src CodeBlockSource, opts InvWTOptions) (*InvWT, error) {
	w := &InvWT{src: src, resLevel: opts.ResLevel}
	if err := w.loadTile(); err != nil {
		return nil, err
	}
	w.discard = make([]int, src.NumComps())
	for c := range w.discard {
		wc := &w.cur.comps[c]
		w.discard[c] = wc.tree.Levels - wc.tree.Nodes[wc.node].ResLevel
	}
	return w, nil
}

// loadTile replaces the tile state with a fresh one for the source's
// current tile. On error no tile is selected.
func (w *InvWT) loadTile() error {
	w.cur = &wtTile{idx: -1}
	st := &wtTile{idx: w.src.TileIdx(), comps: make([]wtComp, w.src.NumComps())}
	for c := range st.comps {
		tree, err := w.src.SubbandTree(c)
		if err != nil {
			return errors.Wrapf(err, "tile %d component %d", st.idx, c)
		}
		if err := tree.Validate(); err != nil {
			return errors.Wrapf(err, "tile %d component %d", st.idx, c)
		}
		node := tree.ResolutionNode(w.resLevel)
		st.comps[c] = wtComp{tree: tree, node: node, reversible: tree.Reversible()}
		logging.Debug("tile %d component %d: %d levels, target resolution %d (%dx%d)",
			st.idx, c, tree.Levels, tree.Nodes[node].ResLevel, tree.Nodes[node].W, tree.Nodes[node].H)
	}
	w.cur = st
	return nil
}

func (w *InvWT) NumTiles() (int, int) { return w.src.NumTiles() }
func (w *InvWT) Tile() (int, int) { return w.src.Tile() }
func (w *InvWT) TileIdx() int { return w.src.TileIdx() }

// SetTile selects tile (tx, ty) and drops every cached reconstruction.
func (w *InvWT) SetTile(tx, ty int) error {
	if err := w.src.SetTile(tx, ty); err != nil {
		return err
	}
	return w.loadTile()
}

// NextTile advances to the next tile and drops every cached reconstruction.
func (w *InvWT) NextTile() error {
	if err := w.src.NextTile(); err != nil {
		return err
	}
	return w.loadTile()
}

// IsReversible reports whether component c of tile t was decomposed with
// reversible filters only. t must be the current tile.
func (w *InvWT) IsReversible(t, c int) (bool, error) {
	if t != w.cur.idx {
		return false, errors.Wrapf(ErrTileNotSelected, "tile %d, current tile %d", t, w.cur.idx)
	}
	if c < 0 || c >= len(w.cur.comps) {
		return false, errors.Wrapf(ErrInvalidComponent, "component %d of %d", c, len(w.cur.comps))
	}
	return w.cur.comps[c].reversible, nil
}

// ImgULX returns the image origin at the reconstructed resolution.
func (w *InvWT) ImgULX() int { return ceilDivPow2(w.src.ImgULX(), w.discard[0]) }
func (w *InvWT) ImgULY() int { return ceilDivPow2(w.src.ImgULY(), w.discard[0]) }

// ImgWidth returns the image width at the reconstructed resolution.
func (w *InvWT) ImgWidth() int {
	x0 := w.src.ImgULX()
	return ceilDivPow2(x0+w.src.ImgWidth(), w.discard[0]) - ceilDivPow2(x0, w.discard[0])
}

// ImgHeight returns the image height at the reconstructed resolution.
func (w *InvWT) ImgHeight() int {
	y0 := w.src.ImgULY()
	return ceilDivPow2(y0+w.src.ImgHeight(), w.discard[0]) - ceilDivPow2(y0, w.discard[0])
}

func (w *InvWT) TilePartULX() int { return ceilDivPow2(w.src.TilePartULX(), w.discard[0]) }
func (w *InvWT) TilePartULY() int { return ceilDivPow2(w.src.TilePartULY(), w.discard[0]) }
func (w *InvWT) NomTileWidth() int { return ceilDivPow2(w.src.NomTileWidth(), w.discard[0]) }
func (w *InvWT) NomTileHeight() int { return ceilDivPow2(w.src.NomTileHeight(), w.discard[0]) }

// TileWidth returns the width of the current tile at the reconstructed
// resolution.
func (w *InvWT) TileWidth() int {
	tx, _ := w.src.Tile()
	x0 := max(w.src.ImgULX(), w.src.TilePartULX()+tx*w.src.NomTileWidth())
	x1 := x0 + w.src.TileWidth()
	return ceilDivPow2(x1, w.discard[0]) - ceilDivPow2(x0, w.discard[0])
}

// TileHeight returns the height of the current tile at the reconstructed
// resolution.
func (w *InvWT) TileHeight() int {
	_, ty := w.src.Tile()
	y0 := max(w.src.ImgULY(), w.src.TilePartULY()+ty*w.src.NomTileHeight())
	y1 := y0 + w.src.TileHeight()
	return ceilDivPow2(y1, w.discard[0]) - ceilDivPow2(y0, w.discard[0])
}

func (w *InvWT) NumComps() int { return w.src.NumComps() }
func (w *InvWT) CompSubsX(c int) int { return w.src.CompSubsX(c) }
func (w *InvWT) CompSubsY(c int) int { return w.src.CompSubsY(c) }
func (w *InvWT) NomRangeBits(c int) int { return w.src.NomRangeBits(c) }

// CompImgWidth returns the width of component c over the image at the
// reconstructed resolution.
func (w *InvWT) CompImgWidth(c int) int {
	x0 := ceilDiv(w.src.ImgULX(), w.src.CompSubsX(c))
	return ceilDivPow2(x0+w.src.CompImgWidth(c), w.discard[c]) - ceilDivPow2(x0, w.discard[c])
}

// CompImgHeight returns the height of component c over the image at the
// reconstructed resolution.
func (w *InvWT) CompImgHeight(c int) int {
	y0 := ceilDiv(w.src.ImgULY(), w.src.CompSubsY(c))
	return ceilDivPow2(y0+w.src.CompImgHeight(c), w.discard[c]) - ceilDivPow2(y0, w.discard[c])
}

func (w *InvWT) target(c int) *Subband {
	if c < 0 || c >= len(w.cur.comps) {
		return &Subband{}
	}
	wc := &w.cur.comps[c]
	return &wc.tree.Nodes[wc.node]
}

func (w *InvWT) CompULX(c int) int { return w.target(c).ULCX }
func (w *InvWT) CompULY(c int) int { return w.target(c).ULCY }
func (w *InvWT) TileCompWidth(c int) int { return w.target(c).W }
func (w *InvWT) TileCompHeight(c int) int { return w.target(c).H }

// InternCompData points blk at the cached reconstruction of component c.
// The samples keep the tile-component type regardless of blk.Type.
func (w *InvWT) InternCompData(blk *Block, c int) (*Block, error) {
	wc, err := w.component(blk, c)
	if err != nil {
		return nil, err
	}
	buf := wc.buf
	blk.Type = buf.Type
	blk.Ints, blk.Floats = buf.Ints, buf.Floats
	blk.Offset = blk.ULY*buf.Scanw + blk.ULX
	blk.Scanw = buf.Scanw
	blk.Progressive = wc.progressive
	blk.borrowed = true
	return blk, nil
}

// CompData copies a block of component c into blk, converting to blk.Type.
func (w *InvWT) CompData(blk *Block, c int) (*Block, error) {
	wc, err := w.component(blk, c)
	if err != nil {
		return nil, err
	}
	buf := wc.buf
	view := Block{
		ULX: blk.ULX, ULY: blk.ULY, W: blk.W, H: blk.H,
		Offset: blk.ULY*buf.Scanw + blk.ULX, Scanw: buf.Scanw,
		Progressive: wc.progressive,
		Type:        buf.Type, Ints: buf.Ints, Floats: buf.Floats,
	}
	return view.CopyTo(blk), nil
}

// component validates a request and returns the reconstructed component.
func (w *InvWT) component(blk *Block, c int) (*wtComp, error) {
	if w.cur.idx < 0 {
		return nil, errors.Wrap(ErrTileNotSelected, "no tile loaded")
	}
	if c < 0 || c >= len(w.cur.comps) {
		return nil, errors.Wrapf(ErrInvalidComponent, "component %d of %d", c, len(w.cur.comps))
	}
	wc := &w.cur.comps[c]
	sb := &wc.tree.Nodes[wc.node]
	if blk.ULX < 0 || blk.ULY < 0 || blk.W < 0 || blk.H < 0 || blk.ULX+blk.W > sb.W || blk.ULY+blk.H > sb.H {
		return nil, errors.Wrapf(ErrBlockOutOfBounds, "%v in tile-component %dx%d", blk.Rect(), sb.W, sb.H)
	}
	if wc.buf == nil {
		if err := w.reconstruct(c, wc); err != nil {
			return nil, err
		}
	}
	return wc, nil
}

// reconstruct fills the cache of component c at the target resolution.
func (w *InvWT) reconstruct(c int, wc *wtComp) error {
	dt, err := wc.tree.DataType()
	if err != nil {
		return errors.Wrapf(err, "tile %d component %d", w.cur.idx, c)
	}
	sb := &wc.tree.Nodes[wc.node]
	buf := &Block{Type: dt}
	buf.reshape(0, 0, sb.W, sb.H, dt)
	wc.progressive = false
	if err := w.reconstructNode(c, wc, buf, 0, sb.ResLevel); err != nil {
		return errors.Wrapf(err, "tile %d component %d", w.cur.idx, c)
	}
	wc.buf = buf
	return nil
}

// reconstructNode rebuilds subband idx in place inside buf. Detail bands
// and the synthesis step are skipped for nodes above the target resolution.
func (w *InvWT) reconstructNode(c int, wc *wtComp, buf *Block, idx, target int) error {
	sb := &wc.tree.Nodes[idx]
	if sb.IsLeaf() {
		return w.fillLeaf(c, wc, buf, idx)
	}
	if err := w.reconstructNode(c, wc, buf, sb.Children[OrientLL], target); err != nil {
		return err
	}
	if sb.ResLevel > target {
		return nil
	}
	for _, o := range [3]Orientation{OrientHL, OrientLH, OrientHH} {
		if err := w.reconstructNode(c, wc, buf, sb.Children[o], target); err != nil {
			return err
		}
	}
	return w.bufs.synthesize2D(buf, sb)
}

// fillLeaf copies every code-block of leaf idx into buf.
func (w *InvWT) fillLeaf(c int, wc *wtComp, buf *Block, idx int) error {
	sb := &wc.tree.Nodes[idx]
	for m := range sb.NumCBlkY {
		for n := range sb.NumCBlkX {
			blk, err := w.src.CodeBlock(c, idx, m, n, w.cblk)
			if err != nil {
				return err
			}
			w.cblk = blk
			if err := blk.Validate(); err != nil {
				return errors.Wrapf(err, "code-block (%d,%d) of subband %d", m, n, idx)
			}
			if blk.Type != buf.Type {
				return errors.Wrapf(ErrDataType, "code-block (%d,%d) of subband %d is %s, want %s", m, n, idx, blk.Type, buf.Type)
			}
			if !blk.Rect().In(buf.Rect()) && blk.W > 0 && blk.H > 0 {
				return errors.Wrapf(ErrInvalidBlock, "code-block %v outside %v", blk.Rect(), buf.Rect())
			}
			for y := range blk.H {
				d := (blk.ULY+y)*buf.Scanw + blk.ULX
				if buf.Type == TypeInt {
					copy(buf.Ints[d:d+blk.W], blk.IntRow(y))
				} else {
					copy(buf.Floats[d:d+blk.W], blk.FloatRow(y))
				}
			}
			wc.progressive = wc.progressive || blk.Progressive
		}
	}
	return nil
}
