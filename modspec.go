package j2krecon

import "fmt"

// ComponentTransform is the inter-component transform declared for a tile.
type ComponentTransform int

const (
	CTNone ComponentTransform = iota // no component transform
	CTRCT                            // reversible component transform
	CTICT                            // irreversible component transform
)

func (ct ComponentTransform) String() string {
	switch ct {
	case CTNone:
		return "none"
	case CTRCT:
		return "rct"
	case CTICT:
		return "ict"
	default:
		return fmt.Sprintf("ComponentTransform(%d)", int(ct))
	}
}

type tileComp struct{ t, c int }

// TileCompSpec holds a parameter that may be specified for the whole image,
// per component, per tile, or per tile-component.
//
// Lookups use the most specific value available: tile-component value, then
// tile default, then component default, then the global default.
type TileCompSpec[T any] struct {
	def      T
	hasDef   bool
	compDef  map[int]T
	tileDef  map[int]T
	tileComp map[tileComp]T
}

// NewTileCompSpec returns a spec whose global default is def.
func NewTileCompSpec[T any](def T) *TileCompSpec[T] {
	s := &TileCompSpec[T]{}
	s.SetDefault(def)
	return s
}

// SetDefault sets the global default.
func (s *TileCompSpec[T]) SetDefault(v T) {
	s.def = v
	s.hasDef = true
}

// SetCompDef sets the default for component c.
func (s *TileCompSpec[T]) SetCompDef(c int, v T) {
	if s.compDef == nil {
		s.compDef = make(map[int]T)
	}
	s.compDef[c] = v
}

// SetTileDef sets the default for tile t.
func (s *TileCompSpec[T]) SetTileDef(t int, v T) {
	if s.tileDef == nil {
		s.tileDef = make(map[int]T)
	}
	s.tileDef[t] = v
}

// SetTileCompVal sets the value for component c of tile t.
func (s *TileCompSpec[T]) SetTileCompVal(t, c int, v T) {
	if s.tileComp == nil {
		s.tileComp = make(map[tileComp]T)
	}
	s.tileComp[tileComp{t, c}] = v
}

// Default returns the global default.
func (s *TileCompSpec[T]) Default() (T, bool) {
	return s.def, s.hasDef
}

// TileDef returns the value that applies to tile t as a whole: the tile
// default, else the global default.
func (s *TileCompSpec[T]) TileDef(t int) (T, bool) {
	if s == nil {
		var zero T
		return zero, false
	}
	if v, ok := s.tileDef[t]; ok {
		return v, true
	}
	return s.def, s.hasDef
}

// CompDef returns the value that applies to component c as a whole: the
// component default, else the global default.
func (s *TileCompSpec[T]) CompDef(c int) (T, bool) {
	if s == nil {
		var zero T
		return zero, false
	}
	if v, ok := s.compDef[c]; ok {
		return v, true
	}
	return s.def, s.hasDef
}

// Get returns the value for component c of tile t.
func (s *TileCompSpec[T]) Get(t, c int) (T, bool) {
	if s == nil {
		var zero T
		return zero, false
	}
	if v, ok := s.tileComp[tileComp{t, c}]; ok {
		return v, true
	}
	if v, ok := s.tileDef[t]; ok {
		return v, true
	}
	if v, ok := s.compDef[c]; ok {
		return v, true
	}
	return s.def, s.hasDef
}

// DecoderSpecs collects the per tile-component parameters consumed by the
// reconstruction stages.
type DecoderSpecs struct {
	NumTiles int
	NumComps int

	// CompTransform is looked up with TileDef.
	CompTransform *TileCompSpec[ComponentTransform]

	// ROIShifts holds the max-shift boost per tile-component. A missing or
	// zero value means no ROI.
	ROIShifts *TileCompSpec[int]
}

// NewDecoderSpecs returns specs with no component transform and no ROI.
func NewDecoderSpecs(numTiles, numComps int) *DecoderSpecs {
	return &DecoderSpecs{
		NumTiles:      numTiles,
		NumComps:      numComps,
		CompTransform: NewTileCompSpec(CTNone),
		ROIShifts:     &TileCompSpec[int]{},
	}
}

// ROIShift returns the ROI boost of component c in tile t, with ok=false
// when no ROI is declared.
func (d *DecoderSpecs) ROIShift(t, c int) (int, bool) {
	if d == nil {
		return 0, false
	}
	v, ok := d.ROIShifts.Get(t, c)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// TileTransform returns the component transform declared for tile t.
func (d *DecoderSpecs) TileTransform(t int) ComponentTransform {
	if d == nil {
		return CTNone
	}
	v, ok := d.CompTransform.TileDef(t)
	if !ok {
		return CTNone
	}
	return v
}
