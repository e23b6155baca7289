package tiles

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/hashing"
	"tileproof/internal/infra/merkle"
	"tileproof/internal/infra/raster"
)

// Engine turns images into tiled merkle commitments. It is stateless apart
// from its construction-time parameters; one instance is safe for concurrent
// use.
type Engine struct {
	tileSize int
	maxDim   int
	hasher   hashing.TileHasher
	log      *zap.Logger
}

func NewEngine(opts config.Options, logger *zap.Logger) (*Engine, error) {
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", opts.TileSize)
	}
	hasher, err := hashing.New(opts.HashAlg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxDim := opts.MaxDimension
	if maxDim <= 0 {
		maxDim = config.Default().MaxDimension
	}
	return &Engine{tileSize: opts.TileSize, maxDim: maxDim, hasher: hasher, log: logger}, nil
}

func (e *Engine) TileSize() int { return e.tileSize }

func (e *Engine) Hasher() hashing.TileHasher { return e.hasher }

// ComputeCommitment decodes imageBytes and commits the flattened raster.
func (e *Engine) ComputeCommitment(imageBytes []byte) (domain.TileCommitment, error) {
	r, err := raster.Decode(imageBytes)
	if err != nil {
		return domain.TileCommitment{}, err
	}
	return e.CommitRaster(r)
}

// CommitRaster partitions the raster into tiles, hashes each tile bound to
// its grid position, and builds the padded merkle tree over the leaf list.
func (e *Engine) CommitRaster(r *raster.Raster) (domain.TileCommitment, error) {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return domain.TileCommitment{}, domain.ErrInvalidDimensions
	}
	if r.Width > e.maxDim || r.Height > e.maxDim {
		return domain.TileCommitment{}, fmt.Errorf("%w: %dx%d exceeds %d", domain.ErrInvalidDimensions, r.Width, r.Height, e.maxDim)
	}

	tilesX := ceilDiv(r.Width, e.tileSize)
	tilesY := ceilDiv(r.Height, e.tileSize)

	leaves := make([][]byte, 0, tilesX*tilesY)
	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			leaves = append(leaves, e.hasher.LeafHash(tileX, tileY, r.Tile(tileX, tileY, e.tileSize)))
		}
	}

	levels, err := merkle.BuildLevels(e.hasher, leaves)
	if err != nil {
		return domain.TileCommitment{}, err
	}

	commitment := domain.TileCommitment{
		Width:      r.Width,
		Height:     r.Height,
		TileSize:   e.tileSize,
		TilesX:     tilesX,
		TilesY:     tilesY,
		LeafHashes: leaves,
		Levels:     levels,
		Root:       levels[len(levels)-1][0],
		HashAlg:    e.hasher.Name(),
	}
	e.log.Debug("commitment computed",
		zap.Int("width", r.Width), zap.Int("height", r.Height),
		zap.Int("tiles", len(leaves)), zap.String("root", commitment.RootHex()))
	return commitment, nil
}

// MerkleProofForTile builds the inclusion proof for one tile index.
func (e *Engine) MerkleProofForTile(c domain.TileCommitment, tileIndex int) (domain.MerkleProof, error) {
	if tileIndex < 0 || tileIndex >= c.TileCount() {
		return domain.MerkleProof{}, fmt.Errorf("%w: %d of %d", domain.ErrIndexOutOfRange, tileIndex, c.TileCount())
	}
	path, err := merkle.Proof(c.Levels, c.TileCount(), tileIndex)
	if err != nil {
		return domain.MerkleProof{}, err
	}
	nodes := make([]domain.ProofNode, len(path))
	for i, node := range path {
		nodes[i] = domain.ProofNode{Sibling: hex.EncodeToString(node.Sibling), IsLeft: node.IsLeft}
	}
	return domain.MerkleProof{LeafIndex: tileIndex, Path: nodes}, nil
}

// VerifyMerkleProof recombines leafHex along the proof path and compares the
// result to rootHex. Malformed hex or hashes simply verify as false.
func (e *Engine) VerifyMerkleProof(leafHex string, proof domain.MerkleProof, rootHex string) bool {
	leaf, err := hex.DecodeString(leafHex)
	if err != nil {
		return false
	}
	root, err := hex.DecodeString(rootHex)
	if err != nil {
		return false
	}
	path := make([]merkle.Node, len(proof.Path))
	for i, node := range proof.Path {
		sibling, err := hex.DecodeString(node.Sibling)
		if err != nil {
			return false
		}
		path[i] = merkle.Node{Sibling: sibling, IsLeft: node.IsLeft}
	}
	ok, err := merkle.VerifyProof(e.hasher, leaf, path, root)
	return err == nil && ok
}

// TileRangeForRect maps a pixel rectangle onto the half-open tile grid range
// it overlaps, using floor for the low edge and ceil for the high edge.
func (e *Engine) TileRangeForRect(c domain.TileCommitment, rect domain.Rect) domain.TileRange {
	if rect.Empty() {
		return domain.TileRange{}
	}
	minX := max(rect.X/e.tileSize, 0)
	minY := max(rect.Y/e.tileSize, 0)
	maxX := min(ceilDiv(rect.X+rect.Width, e.tileSize), c.TilesX)
	maxY := min(ceilDiv(rect.Y+rect.Height, e.tileSize), c.TilesY)
	if maxX <= minX || maxY <= minY {
		return domain.TileRange{}
	}
	return domain.TileRange{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
