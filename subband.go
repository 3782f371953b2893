package j2krecon

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// Orientation identifies the filtering applied to produce a subband.
type Orientation int

const (
	OrientLL Orientation = iota // low-pass in both directions
	OrientHL                    // horizontal high-pass, vertical low-pass
	OrientLH                    // horizontal low-pass, vertical high-pass
	OrientHH                    // high-pass in both directions
)

func (o Orientation) String() string {
	switch o {
	case OrientLL:
		return "LL"
	case OrientHL:
		return "HL"
	case OrientLH:
		return "LH"
	case OrientHH:
		return "HH"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// horizontalHigh and verticalHigh report the pass used along each axis.
func (o Orientation) horizontalHigh() bool { return o == OrientHL || o == OrientHH }
func (o Orientation) verticalHigh() bool   { return o == OrientLH || o == OrientHH }

// Subband is one node of a synthesis subband tree.
//
// The root is the full tile-component and reports OrientLL. Interior nodes
// own four children in LL, HL, LH, HH order and the filters used to merge
// them; leaves own a code-block grid.
type Subband struct {
	Orient   Orientation
	Level    int // decomposition depth, 0 for the root
	ResLevel int // resolution level the node belongs to

	// ULX, ULY locate the band inside the tile-component coefficient buffer.
	ULX, ULY int
	// ULCX, ULCY locate the band on its own canvas and set lifting parity.
	ULCX, ULCY int
	W, H       int

	MagBits int
	Step    float64

	HFilter, VFilter WaveletType

	Parent   int
	Children [4]int

	CBlkW, CBlkH       int
	NumCBlkX, NumCBlkY int
}

// IsLeaf reports whether the band has no children.
func (s *Subband) IsLeaf() bool {
	return s.Children[0] < 0
}

// Rect returns the band extent in tile-component buffer coordinates.
func (s *Subband) Rect() image.Rectangle {
	return image.Rect(s.ULX, s.ULY, s.ULX+s.W, s.ULY+s.H)
}

// CodeBlockRect returns code-block (m, n) (row, column) in tile-component
// buffer coordinates. The code-block grid is anchored at canvas (0,0) and
// clipped to the band.
func (s *Subband) CodeBlockRect(m, n int) (image.Rectangle, error) {
	if m < 0 || n < 0 || m >= s.NumCBlkY || n >= s.NumCBlkX {
		return image.Rectangle{}, errors.Wrapf(ErrInvalidSubband,
			"code-block (%d,%d) of %s band with %dx%d grid", m, n, s.Orient, s.NumCBlkY, s.NumCBlkX)
	}
	x0 := max(s.ULCX, (s.ULCX/s.CBlkW+n)*s.CBlkW)
	x1 := min(s.ULCX+s.W, (s.ULCX/s.CBlkW+n+1)*s.CBlkW)
	y0 := max(s.ULCY, (s.ULCY/s.CBlkH+m)*s.CBlkH)
	y1 := min(s.ULCY+s.H, (s.ULCY/s.CBlkH+m+1)*s.CBlkH)
	return image.Rect(x0, y0, x1, y1).Add(image.Pt(s.ULX-s.ULCX, s.ULY-s.ULCY)), nil
}

func (s *Subband) String() string {
	return fmt.Sprintf("%s level %d res %d %dx%d at (%d,%d)", s.Orient, s.Level, s.ResLevel, s.W, s.H, s.ULX, s.ULY)
}

// SubbandTree is an arena of subbands; node 0 is the root.
type SubbandTree struct {
	Nodes  []Subband
	Levels int
}

// TreeParams describes a tile-component to decompose.
type TreeParams struct {
	// W, H and ULCX, ULCY give the tile-component size and its origin on the
	// component canvas.
	W, H       int
	ULCX, ULCY int
	Levels     int

	// Filter is used at every level unless LevelFilters supplies a kernel
	// for the interior node at that depth (index 0 is the root).
	Filter       WaveletType
	LevelFilters []WaveletType

	// CBlkW and CBlkH give the nominal code-block size; 0 selects 64.
	CBlkW, CBlkH int

	MagBits int
	Step    float64
}

const defaultCBlkSize = 64

// BuildSubbandTree builds the dyadic decomposition of a tile-component.
func BuildSubbandTree(p TreeParams) (*SubbandTree, error) {
	if p.W < 0 || p.H < 0 || p.ULCX < 0 || p.ULCY < 0 || p.Levels < 0 || p.CBlkW < 0 || p.CBlkH < 0 {
		return nil, errors.Wrapf(ErrInvalidGeometry, "subband tree %dx%d at (%d,%d) with %d levels",
			p.W, p.H, p.ULCX, p.ULCY, p.Levels)
	}
	if p.CBlkW == 0 {
		p.CBlkW = defaultCBlkSize
	}
	if p.CBlkH == 0 {
		p.CBlkH = defaultCBlkSize
	}
	t := &SubbandTree{Levels: p.Levels, Nodes: make([]Subband, 0, 1+3*p.Levels+1)}
	t.Nodes = append(t.Nodes, Subband{
		Orient:   OrientLL,
		ResLevel: p.Levels,
		ULCX:     p.ULCX, ULCY: p.ULCY,
		W: p.W, H: p.H,
		Parent:   -1,
		Children: [4]int{-1, -1, -1, -1},
	})
	for idx := 0; t.Nodes[idx].Level < p.Levels; {
		f := p.Filter
		if lvl := t.Nodes[idx].Level; lvl < len(p.LevelFilters) {
			f = p.LevelFilters[lvl]
		}
		if !f.valid() {
			return nil, errors.Wrapf(ErrUnknownFilter, "%v at level %d", f, t.Nodes[idx].Level)
		}
		t.split(idx, f)
		idx = t.Nodes[idx].Children[OrientLL]
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		n.MagBits = p.MagBits
		n.Step = p.Step
		if n.IsLeaf() {
			n.setCodeBlocks(p.CBlkW, p.CBlkH)
		}
	}
	return t, nil
}

// split creates the four children of node idx.
func (t *SubbandTree) split(idx int, f WaveletType) {
	p := t.Nodes[idx]
	t.Nodes[idx].HFilter = f
	t.Nodes[idx].VFilter = f

	lowX, lowW := ceilDiv(p.ULCX, 2), ceilDiv(p.ULCX+p.W, 2)-ceilDiv(p.ULCX, 2)
	highX, highW := p.ULCX/2, (p.ULCX+p.W)/2-p.ULCX/2
	lowY, lowH := ceilDiv(p.ULCY, 2), ceilDiv(p.ULCY+p.H, 2)-ceilDiv(p.ULCY, 2)
	highY, highH := p.ULCY/2, (p.ULCY+p.H)/2-p.ULCY/2

	for o := OrientLL; o <= OrientHH; o++ {
		c := Subband{
			Orient:   o,
			Level:    p.Level + 1,
			ResLevel: p.ResLevel,
			ULX:      p.ULX, ULY: p.ULY,
			ULCX:     lowX, ULCY: lowY,
			W: lowW, H: lowH,
			Parent:   idx,
			Children: [4]int{-1, -1, -1, -1},
		}
		if o == OrientLL {
			c.ResLevel = p.ResLevel - 1
		}
		if o.horizontalHigh() {
			c.ULX += lowW
			c.ULCX, c.W = highX, highW
		}
		if o.verticalHigh() {
			c.ULY += lowH
			c.ULCY, c.H = highY, highH
		}
		t.Nodes[idx].Children[o] = len(t.Nodes)
		t.Nodes = append(t.Nodes, c)
	}
}

func (s *Subband) setCodeBlocks(cbw, cbh int) {
	s.CBlkW, s.CBlkH = cbw, cbh
	s.NumCBlkX, s.NumCBlkY = 0, 0
	if s.W > 0 && s.H > 0 {
		s.NumCBlkX = ceilDiv(s.ULCX+s.W, cbw) - s.ULCX/cbw
		s.NumCBlkY = ceilDiv(s.ULCY+s.H, cbh) - s.ULCY/cbh
	}
}

// Root returns the root node.
func (t *SubbandTree) Root() *Subband {
	return &t.Nodes[0]
}

// Node returns node idx.
func (t *SubbandTree) Node(idx int) (*Subband, error) {
	if idx < 0 || idx >= len(t.Nodes) {
		return nil, errors.Wrapf(ErrInvalidSubband, "subband %d of %d", idx, len(t.Nodes))
	}
	return &t.Nodes[idx], nil
}

// ResolutionNode returns the LL-chain node holding resolution level r,
// clamped to [0, Levels]. A negative r selects full resolution.
func (t *SubbandTree) ResolutionNode(r int) int {
	if r < 0 || r > t.Levels {
		r = t.Levels
	}
	idx := 0
	for t.Nodes[idx].ResLevel > r {
		idx = t.Nodes[idx].Children[OrientLL]
	}
	return idx
}

// Leaves returns the indices of all leaf subbands in arena order.
func (t *SubbandTree) Leaves() []int {
	var out []int
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			out = append(out, i)
		}
	}
	return out
}

// DataType returns the sample type of the tile-component: integer when
// every kernel in the tree is reversible, float when none is.
func (t *SubbandTree) DataType() (DataType, error) {
	var nInt, nFloat int
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			continue
		}
		for _, f := range [2]WaveletType{n.HFilter, n.VFilter} {
			if !f.valid() {
				return 0, errors.Wrapf(ErrUnknownFilter, "%v in subband %d", f, i)
			}
			if f.DataType() == TypeInt {
				nInt++
			} else {
				nFloat++
			}
		}
	}
	if nInt > 0 && nFloat > 0 {
		return 0, errors.WithStack(ErrMixedFilters)
	}
	if nFloat > 0 {
		return TypeFloat, nil
	}
	return TypeInt, nil
}

// Reversible reports whether every interior node uses reversible kernels
// in both directions.
func (t *SubbandTree) Reversible() bool {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if !n.IsLeaf() && (!n.HFilter.Reversible() || !n.VFilter.Reversible()) {
			return false
		}
	}
	return true
}

// Validate checks that the children of every interior node partition it.
func (t *SubbandTree) Validate() error {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			continue
		}
		area := 0
		r := n.Rect()
		for _, ci := range n.Children {
			if ci <= i || ci >= len(t.Nodes) {
				return errors.Wrapf(ErrInvalidSubband, "subband %d: child index %d", i, ci)
			}
			cr := t.Nodes[ci].Rect()
			if !cr.Empty() && !cr.In(r) {
				return errors.Wrapf(ErrInvalidSubband, "subband %d: child %v outside %v", i, cr, r)
			}
			for _, cj := range n.Children {
				if cj != ci && cr.Overlaps(t.Nodes[cj].Rect()) {
					return errors.Wrapf(ErrInvalidSubband, "subband %d: children %d and %d overlap", i, ci, cj)
				}
			}
			area += t.Nodes[ci].W * t.Nodes[ci].H
		}
		if area != n.W*n.H {
			return errors.Wrapf(ErrInvalidSubband, "subband %d: children cover %d of %d samples", i, area, n.W*n.H)
		}
	}
	return nil
}
