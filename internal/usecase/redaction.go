package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/canonical"
	"tileproof/internal/infra/raster"
	"tileproof/internal/infra/tiles"
)

// RedactionOptions selects how regions are obscured.
type RedactionOptions struct {
	Method string
	Sigma  float64
	Fill   [3]byte
}

// Redaction obscures regions and proves the rest of the image unchanged. The
// unchanged claim rests on sampled tile-hash equality, a weak witness rather
// than full coverage.
type Redaction struct {
	engine *tiles.Engine
	opts   config.Options
	log    *zap.Logger
}

func NewRedaction(engine *tiles.Engine, opts config.Options, logger *zap.Logger) *Redaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redaction{engine: engine, opts: opts, log: logger}
}

// RedactWithProof applies blur or solid fill per region sequentially and
// returns the redacted image bytes alongside the proof.
func (r *Redaction) RedactWithProof(originalBytes []byte, regions []domain.Rect, opts RedactionOptions) ([]byte, domain.RedactionProof, error) {
	start := time.Now()

	if len(regions) == 0 {
		return nil, domain.RedactionProof{}, domain.ErrEmptyRegion
	}
	method := opts.Method
	if method == "" {
		method = domain.RedactionMethodBlur
	}
	if method != domain.RedactionMethodBlur && method != domain.RedactionMethodFill {
		return nil, domain.RedactionProof{}, fmt.Errorf("unknown redaction method %q", method)
	}

	original, err := raster.Decode(originalBytes)
	if err != nil {
		return nil, domain.RedactionProof{}, err
	}
	originalCommitment, err := r.engine.CommitRaster(original)
	if err != nil {
		return nil, domain.RedactionProof{}, err
	}

	redacted := original.Clone()
	for i, region := range regions {
		switch method {
		case domain.RedactionMethodBlur:
			redacted, err = raster.BlurRegion(redacted, region, opts.Sigma)
		case domain.RedactionMethodFill:
			redacted, err = raster.FillRegion(redacted, region, opts.Fill)
		}
		if err != nil {
			return nil, domain.RedactionProof{}, fmt.Errorf("region %d: %w", i, err)
		}
	}
	redactedCommitment, err := r.engine.CommitRaster(redacted)
	if err != nil {
		return nil, domain.RedactionProof{}, err
	}

	affected := r.affectedTiles(originalCommitment, regions)
	totalTiles := originalCommitment.TileCount()
	spotChecks := r.spotCheckUnaffected(originalCommitment, redactedCommitment, affected)

	allMatch := true
	for _, check := range spotChecks {
		if !check.Match {
			allMatch = false
			break
		}
	}

	proof := domain.RedactionProof{
		Original:          originalCommitment.Summary(),
		Redacted:          redactedCommitment.Summary(),
		Regions:           regions,
		Method:            method,
		AffectedTileCount: len(affected),
		TotalTiles:        totalTiles,
		PreservedRatio:    formatRatio(totalTiles-len(affected), totalTiles),
		SpotChecks:        spotChecks,
		Valid:             allMatch,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	}

	proof.BindingCommitment, err = canonical.DigestHex(redactionBinding(proof))
	if err != nil {
		return nil, domain.RedactionProof{}, fmt.Errorf("binding commitment: %w", err)
	}

	redactedBytes, err := redacted.EncodePNG()
	if err != nil {
		return nil, domain.RedactionProof{}, err
	}

	encoded, err := json.Marshal(proof)
	if err != nil {
		return nil, domain.RedactionProof{}, err
	}
	proof.Metrics = domain.ProofMetrics{
		ProvingTimeMS:  float64(time.Since(start).Microseconds()) / 1000,
		ProofSizeBytes: len(encoded),
	}
	return redactedBytes, proof, nil
}

// VerifyRedactionProof checks structure, binding commitment, the sampled
// equality witness, and optionally recomputes the redacted commitment.
func (r *Redaction) VerifyRedactionProof(proof domain.RedactionProof, redactedBytes []byte) VerificationReport {
	report := newReport()

	structural := len(proof.Regions) > 0 && proof.AffectedTileCount >= 0 &&
		proof.TotalTiles > 0 && proof.AffectedTileCount <= proof.TotalTiles &&
		(proof.Method == domain.RedactionMethodBlur || proof.Method == domain.RedactionMethodFill)
	report.record("structure", structural, "redaction proof structure invalid")

	expected, err := canonical.DigestHex(redactionBinding(proof))
	if err != nil {
		report.record("binding_commitment", false, fmt.Sprintf("recompute binding commitment: %v", err))
	} else {
		report.record("binding_commitment", expected == proof.BindingCommitment, "binding commitment mismatch")
	}

	spotOK := true
	for _, check := range proof.SpotChecks {
		if !check.Match {
			spotOK = false
			break
		}
	}
	report.record("spot_checks", spotOK, "sampled unaffected tile differs")

	if redactedBytes != nil {
		recomputed, err := r.engine.ComputeCommitment(redactedBytes)
		switch {
		case err != nil:
			report.record("recomputed_commitment", false, fmt.Sprintf("recompute redacted commitment: %v", err))
		case recomputed.RootHex() != proof.Redacted.Root:
			report.record("recomputed_commitment", false, domain.ErrCommitmentMismatch.Error())
		default:
			report.record("recomputed_commitment", true, "")
		}
	}

	report.finalize()
	return report
}

// affectedTiles is the union of tile ranges intersecting each region, as a
// sorted index set.
func (r *Redaction) affectedTiles(c domain.TileCommitment, regions []domain.Rect) []int {
	seen := map[int]struct{}{}
	for _, region := range regions {
		for _, index := range r.engine.TileRangeForRect(c, region).Indices(c.TilesX) {
			seen[index] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for index := range seen {
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}

// spotCheckUnaffected samples up to the configured number of unaffected tile
// indices, spread across the grid, and compares leaf hashes exactly.
func (r *Redaction) spotCheckUnaffected(original, redacted domain.TileCommitment, affected []int) []domain.SpotCheck {
	limit := r.opts.RedactionSpotChecks
	if limit <= 0 {
		limit = config.Default().RedactionSpotChecks
	}
	affectedSet := make(map[int]struct{}, len(affected))
	for _, index := range affected {
		affectedSet[index] = struct{}{}
	}

	total := original.TileCount()
	unaffected := make([]int, 0, total-len(affected))
	for index := 0; index < total; index++ {
		if _, ok := affectedSet[index]; !ok {
			unaffected = append(unaffected, index)
		}
	}
	if len(unaffected) == 0 {
		return []domain.SpotCheck{}
	}

	step := len(unaffected) / limit
	if step < 1 {
		step = 1
	}
	checks := make([]domain.SpotCheck, 0, limit)
	for i := 0; i < len(unaffected) && len(checks) < limit; i += step {
		index := unaffected[i]
		match := index < redacted.TileCount() &&
			bytes.Equal(original.LeafHashes[index], redacted.LeafHashes[index])
		checks = append(checks, domain.SpotCheck{Index: index, Match: match})
	}
	return checks
}

func redactionBinding(proof domain.RedactionProof) map[string]any {
	return map[string]any{
		"original_root":  proof.Original.Root,
		"redacted_root":  proof.Redacted.Root,
		"regions":        proof.Regions,
		"affected_count": proof.AffectedTileCount,
	}
}

func formatRatio(preserved, total int) string {
	if total <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(preserved)/float64(total), 'f', 4, 64)
}
