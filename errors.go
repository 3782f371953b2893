package j2krecon

import "github.com/pkg/errors"

// ErrNoMoreTiles is returned by NextTile when the current tile is the last
// one in raster order. It is an exhaustion signal, not a failure, and is
// never wrapped.
var ErrNoMoreTiles = errors.New("j2krecon: no more tiles")

// Configuration errors.
var (
	ErrInvalidTile         = errors.New("j2krecon: invalid tile index")
	ErrTileNotSelected     = errors.New("j2krecon: tile is not the current tile")
	ErrBlockOutOfBounds    = errors.New("j2krecon: block outside tile-component bounds")
	ErrInvalidBlock        = errors.New("j2krecon: block geometry exceeds backing array")
	ErrDataType            = errors.New("j2krecon: unexpected block data type")
	ErrInvalidComponent    = errors.New("j2krecon: invalid component index")
	ErrIncoherentTransform = errors.New("j2krecon: component transform and wavelet filters not coherent")
	ErrUnknownTransform    = errors.New("j2krecon: unknown component transform")
	ErrTransformComponents = errors.New("j2krecon: component transform needs at least three components")
	ErrUnknownFilter       = errors.New("j2krecon: unknown wavelet filter")
	ErrMixedFilters        = errors.New("j2krecon: subband tree mixes integer and floating-point filters")
	ErrInvalidSubband      = errors.New("j2krecon: invalid subband or code-block index")
)

// Geometry errors, reported at construction time.
var (
	ErrInvalidGeometry = errors.New("j2krecon: invalid image origin, tiling origin or nominal tile size")
	ErrSourceTiled     = errors.New("j2krecon: source is already tiled")
	ErrSourceCanvased  = errors.New("j2krecon: source image origin is not (0,0)")
)
