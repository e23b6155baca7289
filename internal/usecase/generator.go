package usecase

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/canonical"
	"tileproof/internal/infra/tiles"
)

// Generator builds transformation proofs binding an original commitment to a
// transformed commitment. The original's leaf list stays internal; only root
// and geometry reach the proof object.
type Generator struct {
	engine *tiles.Engine
	opts   config.Options
	log    *zap.Logger
}

func NewGenerator(engine *tiles.Engine, opts config.Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{engine: engine, opts: opts, log: logger}
}

// GenerateProof computes (or accepts) the original commitment, fully computes
// the transformed commitment, and dispatches on the spec's kind. Unrecognized
// kinds degrade to the generic variant rather than erroring.
func (g *Generator) GenerateProof(originalBytes, transformedBytes []byte, spec domain.TransformationSpec, precomputed *domain.TileCommitment) (domain.TransformationProof, error) {
	start := time.Now()

	var original domain.TileCommitment
	var err error
	if precomputed != nil {
		original = *precomputed
	} else {
		original, err = g.engine.ComputeCommitment(originalBytes)
		if err != nil {
			return domain.TransformationProof{}, fmt.Errorf("original commitment: %w", err)
		}
	}
	transformed, err := g.engine.ComputeCommitment(transformedBytes)
	if err != nil {
		return domain.TransformationProof{}, fmt.Errorf("transformed commitment: %w", err)
	}

	kind := spec.Kind
	if !kind.Supported() {
		g.log.Debug("unsupported transformation kind, degrading to generic",
			zap.String("kind", string(kind)), zap.Error(domain.ErrUnsupportedTransformation))
		spec = domain.TransformationSpec{Kind: domain.KindGeneric}
	}

	proof := domain.TransformationProof{
		Kind:        spec.Kind,
		Original:    original.Summary(),
		Transformed: summaryWithoutTileSize(transformed),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	binding := map[string]any{
		"kind":             string(spec.Kind),
		"original_root":    original.RootHex(),
		"transformed_root": transformed.RootHex(),
	}

	switch spec.Kind {
	case domain.KindCrop:
		err = g.buildCrop(&proof, binding, original, transformed, spec.Crop)
	case domain.KindResize:
		g.buildResize(&proof, binding, original, transformed)
	case domain.KindGrayscale:
		g.buildGrayscale(&proof, binding, original, transformed)
	case domain.KindBlur:
		err = g.buildBlur(&proof, binding, original, transformed, spec.Blur)
	case domain.KindBrightness, domain.KindContrast:
		err = g.buildAdjust(&proof, binding, original, transformed, spec.Adjust)
	default:
		proof.Generic = &domain.GenericProof{DeclaredKind: string(kind)}
		proof.Valid = true
	}
	if err != nil {
		return domain.TransformationProof{}, err
	}

	proof.BindingCommitment, err = canonical.DigestHex(binding)
	if err != nil {
		return domain.TransformationProof{}, fmt.Errorf("binding commitment: %w", err)
	}

	encoded, err := json.Marshal(proof)
	if err != nil {
		return domain.TransformationProof{}, err
	}
	proof.Metrics = domain.ProofMetrics{
		ProvingTimeMS:  float64(time.Since(start).Microseconds()) / 1000,
		ProofSizeBytes: len(encoded),
	}
	return proof, nil
}

func (g *Generator) buildCrop(proof *domain.TransformationProof, binding map[string]any, original, transformed domain.TileCommitment, spec *domain.CropSpec) error {
	if spec == nil || spec.Region.Empty() {
		return fmt.Errorf("crop: %w", domain.ErrEmptyRegion)
	}
	tileRange := g.engine.TileRangeForRect(original, spec.Region)

	// Merkle proofs for the four corner tiles only. Bounded proof size is a
	// deliberate space/soundness tradeoff, not full coverage.
	corners := tileRange.Corners()
	leaves := make([]string, 0, len(corners))
	proofs := make([]domain.MerkleProof, 0, len(corners))
	for _, corner := range corners {
		index := corner[1]*original.TilesX + corner[0]
		merkleProof, err := g.engine.MerkleProofForTile(original, index)
		if err != nil {
			return fmt.Errorf("corner tile %d: %w", index, err)
		}
		leaves = append(leaves, hex.EncodeToString(original.LeafHashes[index]))
		proofs = append(proofs, merkleProof)
	}

	dimensionsMatch := transformed.Width == spec.Region.Width && transformed.Height == spec.Region.Height
	proof.Crop = &domain.CropProof{
		Region:          spec.Region,
		TileRange:       tileRange,
		CornerLeaves:    leaves,
		CornerProofs:    proofs,
		DimensionsMatch: dimensionsMatch,
	}
	proof.Valid = dimensionsMatch
	binding["region"] = spec.Region
	binding["tile_range"] = tileRange
	return nil
}

func (g *Generator) buildResize(proof *domain.TransformationProof, binding map[string]any, original, transformed domain.TileCommitment) {
	scaleX := float64(transformed.Width) / float64(original.Width)
	scaleY := float64(transformed.Height) / float64(original.Height)
	proof.Resize = &domain.ResizeProof{
		ScaleX:          scaleX,
		ScaleY:          scaleY,
		AspectPreserved: math.Abs(scaleX-scaleY) < g.opts.AspectEpsilon,
	}
	proof.Valid = scaleX > 0 && scaleY > 0
	binding["scale_x"] = scaleX
	binding["scale_y"] = scaleY
}

func (g *Generator) buildGrayscale(proof *domain.TransformationProof, binding map[string]any, original, transformed domain.TileCommitment) {
	sampled := sampleTileIndices(original.Root, original.TileCount(), g.opts.GrayscaleSamples)

	// Reported consistency witness over the sampled leaf pairs. Non-binding:
	// a prover controlling both images can pass the sample while differing
	// elsewhere.
	witness := make([]map[string]any, 0, len(sampled))
	for _, index := range sampled {
		entry := map[string]any{"index": index, "original_leaf": hex.EncodeToString(original.LeafHashes[index])}
		if index < transformed.TileCount() {
			entry["transformed_leaf"] = hex.EncodeToString(transformed.LeafHashes[index])
		}
		witness = append(witness, entry)
	}
	digest, err := canonical.DigestHex(witness)
	if err != nil {
		digest = ""
	}

	proof.Grayscale = &domain.GrayscaleProof{SampledTiles: sampled, WitnessDigest: digest}
	proof.Valid = sameDimensions(original, transformed)
	binding["sampled_tiles"] = sampled
}

func (g *Generator) buildBlur(proof *domain.TransformationProof, binding map[string]any, original, transformed domain.TileCommitment, spec *domain.BlurSpec) error {
	if spec == nil || spec.Sigma <= 0 {
		return fmt.Errorf("blur: sigma must be positive")
	}
	kernelSize := 2*int(math.Ceil(2*spec.Sigma)) + 1
	proof.Blur = &domain.BlurProof{Sigma: spec.Sigma, KernelSize: kernelSize}
	proof.Valid = sameDimensions(original, transformed)
	binding["sigma"] = spec.Sigma
	binding["kernel_size"] = kernelSize
	return nil
}

func (g *Generator) buildAdjust(proof *domain.TransformationProof, binding map[string]any, original, transformed domain.TileCommitment, spec *domain.AdjustSpec) error {
	if spec == nil {
		return fmt.Errorf("%s: adjustment factor required", proof.Kind)
	}
	inRange := spec.Factor >= g.opts.FactorMin && spec.Factor <= g.opts.FactorMax
	proof.Adjust = &domain.AdjustProof{Factor: spec.Factor, InRange: inRange}
	proof.Valid = inRange && sameDimensions(original, transformed)
	binding["factor"] = spec.Factor
	return nil
}

func sameDimensions(a, b domain.TileCommitment) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// summaryWithoutTileSize is the transformed side of a proof: root and dims
// are public, the grid geometry is not needed.
func summaryWithoutTileSize(c domain.TileCommitment) domain.CommitmentSummary {
	summary := c.Summary()
	summary.TileSize = 0
	return summary
}

// sampleTileIndices derives a deterministic sample from the commitment root
// so the witness is reproducible without a randomness source.
func sampleTileIndices(root []byte, tileCount, samples int) []int {
	if tileCount <= 0 || samples <= 0 {
		return []int{}
	}
	if samples > tileCount {
		samples = tileCount
	}
	seen := make(map[int]struct{}, samples)
	out := make([]int, 0, samples)
	for i := 0; len(out) < samples && i+1 < len(root)*2; i++ {
		hi := root[(2*i)%len(root)]
		lo := root[(2*i+1)%len(root)]
		index := (int(hi)<<8 | int(lo) + i) % tileCount
		if _, ok := seen[index]; ok {
			continue
		}
		seen[index] = struct{}{}
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}
