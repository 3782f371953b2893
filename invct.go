package j2krecon

import (
	"github.com/ajroetker/go-j2krecon/internal/logging"
	"github.com/pkg/errors"
)

// InvCompTransf applies the inverse component transform declared for each
// tile to components 0, 1 and 2. Other components, and every component of
// tiles without a transform, pass through untouched.
//
// The transform actually applied follows the wavelet filters: RCT when
// components 0..2 are all reversible, ICT when none is.
type InvCompTransf struct {
	BlkImgDataSrc
	specs *DecoderSpecs
	wr    ReversibilitySource
	cur   *ctTile
}

// ctTile is the state of the current tile. It is replaced as a whole on
// every tile change, which drops any cached output.
type ctTile struct {
	idx       int
	transform ComponentTransform
	in        [3]*Block
	out       [3]*Block
	// cached[c] reports that out[c] holds a computed region not yet handed
	// to the caller.
	cached [3]bool
}

// NewInvCompTransf wraps src. wr reports per tile-component filter
// reversibility, usually the InvWT feeding src.
func NewInvCompTransf(src BlkImgDataSrc, specs *DecoderSpecs, wr ReversibilitySource) *InvCompTransf {
	return &InvCompTransf{BlkImgDataSrc: src, specs: specs, wr: wr}
}

// SetTile selects tile (tx, ty) on the source and resolves its transform.
func (ct *InvCompTransf) SetTile(tx, ty int) error {
	ct.cur = nil
	if err := ct.BlkImgDataSrc.SetTile(tx, ty); err != nil {
		return err
	}
	_, err := ct.tile()
	return err
}

// NextTile advances the source and resolves the new tile's transform.
func (ct *InvCompTransf) NextTile() error {
	ct.cur = nil
	if err := ct.BlkImgDataSrc.NextTile(); err != nil {
		return err
	}
	_, err := ct.tile()
	return err
}

// TransformType returns the transform applied to the current tile.
func (ct *InvCompTransf) TransformType() (ComponentTransform, error) {
	st, err := ct.tile()
	if err != nil {
		return CTNone, err
	}
	return st.transform, nil
}

// tile returns the state of the source's current tile, building it when
// the tile changed underneath.
func (ct *InvCompTransf) tile() (*ctTile, error) {
	idx := ct.TileIdx()
	if ct.cur != nil && ct.cur.idx == idx {
		return ct.cur, nil
	}
	ct.cur = nil
	tr, err := ct.resolve(idx)
	if err != nil {
		return nil, err
	}
	st := &ctTile{idx: idx, transform: tr}
	for i := range st.out {
		st.in[i] = &Block{}
		st.out[i] = &Block{}
	}
	ct.cur = st
	return st, nil
}

// resolve picks the transform for tile t from its declaration and the
// reversibility of components 0..2.
func (ct *InvCompTransf) resolve(t int) (ComponentTransform, error) {
	declared := ct.specs.TileTransform(t)
	switch declared {
	case CTNone:
		return CTNone, nil
	case CTRCT, CTICT:
	default:
		return CTNone, errors.Wrapf(ErrUnknownTransform, "tile %d: %v", t, declared)
	}
	if n := ct.NumComps(); n < 3 {
		return CTNone, errors.Wrapf(ErrTransformComponents, "tile %d: %v with %d components", t, declared, n)
	}
	nrev := 0
	for c := range 3 {
		rev, err := ct.wr.IsReversible(t, c)
		if err != nil {
			return CTNone, err
		}
		if rev {
			nrev++
		}
	}
	var tr ComponentTransform
	switch nrev {
	case 3:
		tr = CTRCT
	case 0:
		tr = CTICT
	default:
		return CTNone, errors.Wrapf(ErrIncoherentTransform, "tile %d: %d of 3 components reversible", t, nrev)
	}
	if tr != declared {
		logging.Debug("tile %d: declared %v, applying %v to match wavelet filters", t, declared, tr)
	}
	return tr, nil
}

// InternCompData returns a block of component c. Transformed components
// point into memory owned by the stage; pass-through components are
// returned exactly as the source provides them.
func (ct *InvCompTransf) InternCompData(blk *Block, c int) (*Block, error) {
	st, err := ct.tile()
	if err != nil {
		return nil, err
	}
	if st.transform == CTNone || c >= 3 {
		return ct.BlkImgDataSrc.InternCompData(blk, c)
	}
	view, err := ct.transformed(st, blk, c)
	if err != nil {
		return nil, err
	}
	*blk = view
	blk.borrowed = true
	return blk, nil
}

// CompData returns a caller-owned copy of a block of component c,
// converted to blk.Type.
func (ct *InvCompTransf) CompData(blk *Block, c int) (*Block, error) {
	st, err := ct.tile()
	if err != nil {
		return nil, err
	}
	if st.transform == CTNone || c >= 3 {
		return ct.BlkImgDataSrc.CompData(blk, c)
	}
	view, err := ct.transformed(st, blk, c)
	if err != nil {
		return nil, err
	}
	return view.CopyTo(blk), nil
}

// transformed returns a view of component c over blk's extent, served
// from the cache when an earlier computation covered it.
func (ct *InvCompTransf) transformed(st *ctTile, blk *Block, c int) (Block, error) {
	if c < 0 {
		return Block{}, errors.Wrapf(ErrInvalidComponent, "component %d", c)
	}
	if st.cached[c] && st.out[c].Contains(blk) {
		st.cached[c] = false
		return subView(st.out[c], blk), nil
	}
	if err := ct.compute(st, blk); err != nil {
		return Block{}, err
	}
	for i := range st.cached {
		st.cached[i] = i != c
	}
	return subView(st.out[c], blk), nil
}

// compute transforms components 0..2 over blk's extent into st.out.
func (ct *InvCompTransf) compute(st *ctTile, blk *Block) error {
	inType := TypeInt
	if st.transform == CTICT {
		inType = TypeFloat
	}
	progressive := false
	for i := range st.in {
		in := st.in[i]
		in.ULX, in.ULY, in.W, in.H = blk.ULX, blk.ULY, blk.W, blk.H
		in.Type = inType
		got, err := ct.BlkImgDataSrc.CompData(in, i)
		if err != nil {
			return err
		}
		st.in[i] = got
		progressive = progressive || got.Progressive
		st.out[i].reshape(blk.ULX, blk.ULY, blk.W, blk.H, TypeInt)
	}
	var err error
	if st.transform == CTRCT {
		err = inverseRCT(st.in, st.out)
	} else {
		err = inverseICT(st.in, st.out)
	}
	if err != nil {
		return err
	}
	for _, o := range st.out {
		o.Progressive = progressive
	}
	return nil
}

// subView returns a header over the part of b covered by r.
func subView(b *Block, r *Block) Block {
	v := *b
	v.ULX, v.ULY, v.W, v.H = r.ULX, r.ULY, r.W, r.H
	v.Offset = b.Offset + (r.ULY-b.ULY)*b.Scanw + (r.ULX - b.ULX)
	return v
}
