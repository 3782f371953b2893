package j2krecon

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSubbandTreeOneLevel(t *testing.T) {
	tree, err := BuildSubbandTree(TreeParams{W: 4, H: 4, Levels: 1, Filter: Wavelet53})
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 5)

	root := tree.Root()
	assert.Equal(t, 1, root.ResLevel)
	assert.Equal(t, Wavelet53, root.HFilter)

	want := map[Orientation]image.Rectangle{
		OrientLL: image.Rect(0, 0, 2, 2),
		OrientHL: image.Rect(2, 0, 4, 2),
		OrientLH: image.Rect(0, 2, 2, 4),
		OrientHH: image.Rect(2, 2, 4, 4),
	}
	for o, r := range want {
		sb, err := tree.Node(root.Children[o])
		require.NoError(t, err)
		assert.Equal(t, o, sb.Orient)
		assert.Equal(t, r, sb.Rect(), "%s", o)
		assert.Equal(t, 1, sb.Level)
		assert.True(t, sb.IsLeaf())
	}
	ll := tree.Nodes[root.Children[OrientLL]]
	hh := tree.Nodes[root.Children[OrientHH]]
	assert.Equal(t, 0, ll.ResLevel)
	assert.Equal(t, 1, hh.ResLevel)
	assert.NoError(t, tree.Validate())
}

func TestBuildSubbandTreeOddOrigin(t *testing.T) {
	// A band starting on an odd column has more high-pass than low-pass
	// samples when its width is odd.
	tree, err := BuildSubbandTree(TreeParams{W: 3, H: 4, ULCX: 1, ULCY: 2, Levels: 1, Filter: Wavelet53})
	require.NoError(t, err)
	root := tree.Root()
	ll := tree.Nodes[root.Children[OrientLL]]
	hl := tree.Nodes[root.Children[OrientHL]]
	lh := tree.Nodes[root.Children[OrientLH]]

	assert.Equal(t, 1, ll.ULCX)
	assert.Equal(t, 1, ll.W)
	assert.Equal(t, 0, hl.ULCX)
	assert.Equal(t, 2, hl.W)
	assert.Equal(t, 1, hl.ULX, "HL follows LL in the buffer")
	assert.Equal(t, 2, ll.H)
	assert.Equal(t, 2, lh.H)
	assert.Equal(t, 2, lh.ULY)
	assert.NoError(t, tree.Validate())
}

func TestSubbandTreePartition(t *testing.T) {
	for _, p := range []TreeParams{
		{W: 7, H: 5, ULCX: 3, ULCY: 1, Levels: 3},
		{W: 64, H: 64, Levels: 5},
		{W: 1, H: 9, ULCX: 1, ULCY: 0, Levels: 4},
		{W: 37, H: 23, ULCX: 5, ULCY: 3, Levels: 2, CBlkW: 4, CBlkH: 8},
		{W: 0, H: 5, Levels: 2},
	} {
		tree, err := BuildSubbandTree(p)
		require.NoError(t, err)
		assert.Len(t, tree.Nodes, 1+4*p.Levels)
		assert.Len(t, tree.Leaves(), 1+3*p.Levels)
		require.NoError(t, tree.Validate(), "%+v", p)

		area := 0
		for _, idx := range tree.Leaves() {
			sb := &tree.Nodes[idx]
			area += sb.W * sb.H
		}
		assert.Equal(t, p.W*p.H, area, "leaves cover the tile-component")
	}
}

func TestCodeBlockGrid(t *testing.T) {
	tree, err := BuildSubbandTree(TreeParams{W: 37, H: 23, ULCX: 5, ULCY: 3, Levels: 2, CBlkW: 4, CBlkH: 8, Filter: Wavelet53})
	require.NoError(t, err)
	for _, idx := range tree.Leaves() {
		sb := &tree.Nodes[idx]
		covered := make(map[image.Point]int)
		for m := range sb.NumCBlkY {
			for n := range sb.NumCBlkX {
				r, err := sb.CodeBlockRect(m, n)
				require.NoError(t, err)
				require.False(t, r.Empty(), "code-block (%d,%d) of %v", m, n, sb)
				require.True(t, r.In(sb.Rect()))
				assert.LessOrEqual(t, r.Dx(), 4)
				assert.LessOrEqual(t, r.Dy(), 8)
				for y := r.Min.Y; y < r.Max.Y; y++ {
					for x := r.Min.X; x < r.Max.X; x++ {
						covered[image.Pt(x, y)]++
					}
				}
			}
		}
		assert.Len(t, covered, sb.W*sb.H, "%v", sb)
		for p, n := range covered {
			require.Equal(t, 1, n, "sample %v covered %d times", p, n)
		}
	}

	// The grid is anchored at canvas (0,0): with 4-wide code-blocks a band
	// starting at canvas column 2 has a first code-block two samples wide.
	sb := tree.Root()
	leaf := &tree.Nodes[sb.Children[OrientHL]]
	require.Equal(t, 2, leaf.ULCX)
	r, err := leaf.CodeBlockRect(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Dx())

	_, err = leaf.CodeBlockRect(leaf.NumCBlkY, 0)
	assert.ErrorIs(t, err, ErrInvalidSubband)
}

func TestResolutionNode(t *testing.T) {
	tree, err := BuildSubbandTree(TreeParams{W: 13, H: 9, ULCX: 1, Levels: 3, Filter: Wavelet97})
	require.NoError(t, err)

	type dims struct{ ResLevel, W, H int }
	var got []dims
	for r := -1; r <= 4; r++ {
		sb := &tree.Nodes[tree.ResolutionNode(r)]
		got = append(got, dims{sb.ResLevel, sb.W, sb.H})
	}
	want := []dims{
		{3, 13, 9}, // -1 selects full resolution
		{0, 1, 2},  // ceil(14/8) - ceil(1/8)
		{1, 3, 3},
		{2, 6, 5},
		{3, 13, 9},
		{3, 13, 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolution nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestSubbandTreeFilters(t *testing.T) {
	tree, err := BuildSubbandTree(TreeParams{W: 8, H: 8, Levels: 2, Filter: Wavelet97})
	require.NoError(t, err)
	dt, err := tree.DataType()
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, dt)
	assert.False(t, tree.Reversible())

	tree, err = BuildSubbandTree(TreeParams{W: 8, H: 8, Levels: 0, Filter: Wavelet97})
	require.NoError(t, err)
	dt, err = tree.DataType()
	require.NoError(t, err)
	assert.Equal(t, TypeInt, dt, "a tree without kernels holds integers")
	assert.True(t, tree.Reversible())

	mixed, err := BuildSubbandTree(TreeParams{W: 8, H: 8, Levels: 2, LevelFilters: []WaveletType{Wavelet53, Wavelet97}})
	require.NoError(t, err)
	_, err = mixed.DataType()
	assert.ErrorIs(t, err, ErrMixedFilters)
	assert.False(t, mixed.Reversible())

	_, err = BuildSubbandTree(TreeParams{W: 8, H: 8, Levels: 1, Filter: WaveletType(7)})
	assert.ErrorIs(t, err, ErrUnknownFilter)

	tree, err = BuildSubbandTree(TreeParams{W: 8, H: 8, Levels: 1})
	require.NoError(t, err)
	tree.Nodes[0].VFilter = WaveletType(7)
	_, err = tree.DataType()
	assert.ErrorIs(t, err, ErrUnknownFilter)

	_, err = tree.Node(len(tree.Nodes))
	assert.ErrorIs(t, err, ErrInvalidSubband)

	_, err = BuildSubbandTree(TreeParams{W: -1, H: 8})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
