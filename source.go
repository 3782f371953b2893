package j2krecon

// Tiled is implemented by every stage that walks an image tile by tile.
//
// Tiles are numbered in raster order: index = ty*nx + tx. SetTile or
// NextTile must be called before any geometry or block query that refers to
// "the current tile"; sources start on tile (0,0).
type Tiled interface {
	// NumTiles returns the number of tiles in each direction.
	NumTiles() (nx, ny int)
	// Tile returns the indices of the current tile.
	Tile() (tx, ty int)
	// TileIdx returns the raster index of the current tile.
	TileIdx() int
	// SetTile makes tile (tx, ty) current.
	SetTile(tx, ty int) error
	// NextTile advances in raster order and returns ErrNoMoreTiles once
	// the last tile is current.
	NextTile() error
}

// ImgData describes the canvas, tiling and component geometry of an image.
//
// Per-tile values refer to the current tile.
type ImgData interface {
	Tiled

	// ImgULX and ImgULY return the image origin on the reference grid.
	ImgULX() int
	ImgULY() int
	// ImgWidth and ImgHeight return the image size on the reference grid.
	ImgWidth() int
	ImgHeight() int

	// TilePartULX and TilePartULY return the tiling origin.
	TilePartULX() int
	TilePartULY() int
	// NomTileWidth and NomTileHeight return the nominal tile size.
	NomTileWidth() int
	NomTileHeight() int
	// TileWidth and TileHeight return the size of the current tile.
	TileWidth() int
	TileHeight() int

	NumComps() int
	CompSubsX(c int) int
	CompSubsY(c int) int
	// NomRangeBits returns the nominal bit depth of component c.
	NomRangeBits(c int) int

	// CompImgWidth and CompImgHeight return the size of component c over
	// the whole image.
	CompImgWidth(c int) int
	CompImgHeight(c int) int
	// CompULX and CompULY return the upper-left corner of component c in
	// the current tile, in component canvas coordinates.
	CompULX(c int) int
	CompULY(c int) int
	// TileCompWidth and TileCompHeight return the size of component c in
	// the current tile.
	TileCompWidth(c int) int
	TileCompHeight(c int) int
}

// BlkImgDataSrc provides rectangular blocks of reconstructed samples.
//
// Block coordinates passed in blk are relative to the current tile
// component. InternCompData may return a block that points into memory
// owned by the source; the caller must not modify it or keep it past the
// next call. CompData always returns samples owned by the caller: when blk
// carries a backing array of sufficient size it is reused, and blk.Type
// selects the returned representation.
type BlkImgDataSrc interface {
	ImgData
	InternCompData(blk *Block, c int) (*Block, error)
	CompData(blk *Block, c int) (*Block, error)
}

// CodeBlockSource provides code-blocks of quantized or dequantized
// coefficients for the current tile, together with the subband tree that
// organises them.
//
// Code-block coordinates (ULX, ULY) are positions inside the tile-component
// coefficient buffer, that is, they already include the owning subband's
// ULX and ULY.
type CodeBlockSource interface {
	ImgData

	// SubbandTree returns the synthesis subband tree of component c in the
	// current tile. The tree is owned by the source and valid until the
	// next tile change.
	SubbandTree(c int) (*SubbandTree, error)

	// CodeBlock returns code-block (m, n) (row, column) of leaf subband sb
	// of component c. dst may be nil or a block to reuse.
	CodeBlock(c, sb, m, n int, dst *Block) (*Block, error)
}

// ReversibilitySource reports whether a tile-component was produced using
// only reversible wavelet filters.
type ReversibilitySource interface {
	IsReversible(t, c int) (bool, error)
}
