package usecase

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/canonical"
	"tileproof/internal/infra/raster"
	"tileproof/internal/infra/tiles"
)

// SelectiveReveal proves a disclosed sub-region came from a committed,
// undisclosed original.
type SelectiveReveal struct {
	engine *tiles.Engine
	opts   config.Options
	log    *zap.Logger
}

func NewSelectiveReveal(engine *tiles.Engine, opts config.Options, logger *zap.Logger) *SelectiveReveal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectiveReveal{engine: engine, opts: opts, log: logger}
}

// GenerateProof commits the original and the revealed region, derives the
// overlapping tile range, and emits merkle proofs for a bounded subset of the
// revealed tiles.
func (s *SelectiveReveal) GenerateProof(originalBytes []byte, region domain.Rect) (domain.RevealProof, error) {
	start := time.Now()

	original, err := raster.Decode(originalBytes)
	if err != nil {
		return domain.RevealProof{}, err
	}
	originalCommitment, err := s.engine.CommitRaster(original)
	if err != nil {
		return domain.RevealProof{}, err
	}

	revealed, err := original.SubRaster(region)
	if err != nil {
		return domain.RevealProof{}, fmt.Errorf("reveal region: %w", err)
	}
	revealedCommitment, err := s.engine.CommitRaster(revealed)
	if err != nil {
		return domain.RevealProof{}, err
	}

	tileRange := s.engine.TileRangeForRect(originalCommitment, region)
	indices := tileRange.Indices(originalCommitment.TilesX)

	budget := s.opts.RevealProofBudget
	if budget <= 0 {
		budget = config.Default().RevealProofBudget
	}
	if budget > len(indices) {
		budget = len(indices)
	}
	tileProofs := make([]domain.RevealedTile, 0, budget)
	for _, index := range indices[:budget] {
		merkleProof, err := s.engine.MerkleProofForTile(originalCommitment, index)
		if err != nil {
			return domain.RevealProof{}, err
		}
		tileProofs = append(tileProofs, domain.RevealedTile{
			Index:    index,
			LeafHash: hex.EncodeToString(originalCommitment.LeafHashes[index]),
			Proof:    merkleProof,
		})
	}

	proof := domain.RevealProof{
		Original:           originalCommitment.Summary(),
		Revealed:           revealedCommitment.Summary(),
		Region:             region,
		TileRange:          tileRange,
		RevealedTileCount:  tileRange.Count(),
		TotalOriginalTiles: originalCommitment.TileCount(),
		TileProofs:         tileProofs,
		Valid:              true,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	}

	proof.BindingCommitment, err = canonical.DigestHex(revealBinding(proof))
	if err != nil {
		return domain.RevealProof{}, fmt.Errorf("binding commitment: %w", err)
	}

	encoded, err := json.Marshal(proof)
	if err != nil {
		return domain.RevealProof{}, err
	}
	proof.Metrics = domain.ProofMetrics{
		ProvingTimeMS:  float64(time.Since(start).Microseconds()) / 1000,
		ProofSizeBytes: len(encoded),
	}
	return proof, nil
}

// VerifyProof recomputes the binding commitment, verifies every included
// merkle proof terminates at the claimed original root, and recomputes the
// revealed-region commitment when bytes are supplied.
func (s *SelectiveReveal) VerifyProof(proof domain.RevealProof, revealedBytes []byte) VerificationReport {
	report := newReport()

	expected, err := canonical.DigestHex(revealBinding(proof))
	if err != nil {
		report.record("binding_commitment", false, fmt.Sprintf("recompute binding commitment: %v", err))
	} else {
		report.record("binding_commitment", expected == proof.BindingCommitment, "binding commitment mismatch")
	}

	counts := proof.RevealedTileCount == proof.TileRange.Count() &&
		proof.RevealedTileCount <= proof.TotalOriginalTiles &&
		len(proof.TileProofs) <= proof.RevealedTileCount
	report.record("tile_counts", counts, "tile counts inconsistent with range")

	proofsOK := len(proof.TileProofs) > 0
	for _, tile := range proof.TileProofs {
		if !s.engine.VerifyMerkleProof(tile.LeafHash, tile.Proof, proof.Original.Root) {
			proofsOK = false
			break
		}
	}
	report.record("merkle_proofs", proofsOK, "included merkle proof does not reach original root")

	if revealedBytes != nil {
		recomputed, err := s.engine.ComputeCommitment(revealedBytes)
		switch {
		case err != nil:
			report.record("recomputed_commitment", false, fmt.Sprintf("recompute revealed commitment: %v", err))
		case recomputed.RootHex() != proof.Revealed.Root:
			report.record("recomputed_commitment", false, domain.ErrCommitmentMismatch.Error())
		default:
			report.record("recomputed_commitment", true, "")
		}
	}

	report.finalize()
	return report
}

func revealBinding(proof domain.RevealProof) map[string]any {
	return map[string]any{
		"original_root": proof.Original.Root,
		"revealed_root": proof.Revealed.Root,
		"region":        proof.Region,
		"tile_count":    proof.RevealedTileCount,
	}
}
