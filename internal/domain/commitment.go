package domain

import "encoding/hex"

// TileCommitment is the full result of committing an image: per-tile leaf
// hashes, the padded tree levels, and the root. The leaf list and levels are
// internal working state; only the Summary is ever placed inside a proof.
type TileCommitment struct {
	Width    int
	Height   int
	TileSize int
	TilesX   int
	TilesY   int

	// LeafHashes is ordered row-major by (tileY*TilesX + tileX) and is NOT
	// padded; Levels[0] is the power-of-two padded leaf level.
	LeafHashes [][]byte
	Levels     [][][]byte
	Root       []byte

	HashAlg string
}

func (c TileCommitment) TileCount() int {
	return c.TilesX * c.TilesY
}

func (c TileCommitment) RootHex() string {
	return hex.EncodeToString(c.Root)
}

func (c TileCommitment) Summary() CommitmentSummary {
	return CommitmentSummary{
		Root:     c.RootHex(),
		Width:    c.Width,
		Height:   c.Height,
		TileSize: c.TileSize,
		HashAlg:  c.HashAlg,
	}
}

// CommitmentSummary is the public face of a commitment: root and geometry,
// never the leaf list.
type CommitmentSummary struct {
	Root     string `json:"root"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	TileSize int    `json:"tile_size,omitempty"`
	HashAlg  string `json:"hash_alg,omitempty"`
}

func (s CommitmentSummary) Equal(other CommitmentSummary) bool {
	return s.Root == other.Root && s.Width == other.Width && s.Height == other.Height
}

// Rect is a pixel-space rectangle with inclusive origin and exclusive extent.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// TileRange is a half-open range of tile grid coordinates: x in [MinX, MaxX),
// y in [MinY, MaxY).
type TileRange struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

func (t TileRange) Count() int {
	if t.MaxX <= t.MinX || t.MaxY <= t.MinY {
		return 0
	}
	return (t.MaxX - t.MinX) * (t.MaxY - t.MinY)
}

func (t TileRange) Contains(tileX, tileY int) bool {
	return tileX >= t.MinX && tileX < t.MaxX && tileY >= t.MinY && tileY < t.MaxY
}

// Indices returns the row-major tile indices covered by the range for a grid
// that is tilesX tiles wide.
func (t TileRange) Indices(tilesX int) []int {
	out := make([]int, 0, t.Count())
	for y := t.MinY; y < t.MaxY; y++ {
		for x := t.MinX; x < t.MaxX; x++ {
			out = append(out, y*tilesX+x)
		}
	}
	return out
}

// Corners returns the four corner tile coordinates of the range, deduplicated
// when the range is a single row or column.
func (t TileRange) Corners() [][2]int {
	if t.Count() == 0 {
		return nil
	}
	maxX := t.MaxX - 1
	maxY := t.MaxY - 1
	corners := [][2]int{{t.MinX, t.MinY}, {maxX, t.MinY}, {t.MinX, maxY}, {maxX, maxY}}
	seen := make(map[[2]int]struct{}, 4)
	out := make([][2]int, 0, 4)
	for _, c := range corners {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
