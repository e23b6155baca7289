package domain

// TransformationKind discriminates the proof union. Unknown kinds degrade to
// KindGeneric at generation time rather than erroring.
type TransformationKind string

const (
	KindCrop       TransformationKind = "crop"
	KindResize     TransformationKind = "resize"
	KindGrayscale  TransformationKind = "grayscale"
	KindBlur       TransformationKind = "blur"
	KindBrightness TransformationKind = "brightness"
	KindContrast   TransformationKind = "contrast"
	KindGeneric    TransformationKind = "generic"

	// KindSelectiveReveal and KindRedaction are not transformation proof tags;
	// they exist so the fraud detector can whitelist every proof family it
	// inspects under one kind vocabulary.
	KindSelectiveReveal TransformationKind = "selective_reveal"
	KindRedaction       TransformationKind = "redaction"
)

func (k TransformationKind) Supported() bool {
	switch k {
	case KindCrop, KindResize, KindGrayscale, KindBlur, KindBrightness, KindContrast, KindGeneric:
		return true
	}
	return false
}

// PreservesDimensions reports whether the transformation must keep the input
// geometry byte-for-byte equal.
func (k TransformationKind) PreservesDimensions() bool {
	switch k {
	case KindGrayscale, KindBlur, KindBrightness, KindContrast:
		return true
	}
	return false
}

// TransformationSpec names a transformation and carries its parameters. Only
// the field matching Kind is consulted.
type TransformationSpec struct {
	Kind   TransformationKind `json:"kind"`
	Crop   *CropSpec          `json:"crop,omitempty"`
	Resize *ResizeSpec        `json:"resize,omitempty"`
	Blur   *BlurSpec          `json:"blur,omitempty"`
	Adjust *AdjustSpec        `json:"adjust,omitempty"`
}

type CropSpec struct {
	Region Rect `json:"region"`
}

type ResizeSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type BlurSpec struct {
	Sigma float64 `json:"sigma"`
}

// AdjustSpec covers brightness and contrast; Factor 1.0 is identity.
type AdjustSpec struct {
	Factor float64 `json:"factor"`
}

// ProofMetrics is reporting only; it never participates in verification.
type ProofMetrics struct {
	ProvingTimeMS  float64 `json:"proving_time_ms"`
	ProofSizeBytes int     `json:"proof_size_bytes"`
}

// TransformationProof binds an original commitment to a transformed commitment
// for one transformation. It is a tagged union: Kind selects exactly one of
// the variant pointers, and everything else is common.
type TransformationProof struct {
	Kind        TransformationKind `json:"kind"`
	Original    CommitmentSummary  `json:"original"`
	Transformed CommitmentSummary  `json:"transformed"`

	BindingCommitment string `json:"binding_commitment"`
	Valid             bool   `json:"valid"`
	Timestamp         string `json:"timestamp,omitempty"`

	Metrics ProofMetrics `json:"metrics"`

	Crop      *CropProof      `json:"crop,omitempty"`
	Resize    *ResizeProof    `json:"resize,omitempty"`
	Grayscale *GrayscaleProof `json:"grayscale,omitempty"`
	Blur      *BlurProof      `json:"blur,omitempty"`
	Adjust    *AdjustProof    `json:"adjust,omitempty"`
	Generic   *GenericProof   `json:"generic,omitempty"`
}

// WellFormed reports whether exactly one variant is populated and it matches
// the declared kind.
func (p TransformationProof) WellFormed() bool {
	count := 0
	if p.Crop != nil {
		count++
	}
	if p.Resize != nil {
		count++
	}
	if p.Grayscale != nil {
		count++
	}
	if p.Blur != nil {
		count++
	}
	if p.Adjust != nil {
		count++
	}
	if p.Generic != nil {
		count++
	}
	if count != 1 {
		return false
	}
	switch p.Kind {
	case KindCrop:
		return p.Crop != nil
	case KindResize:
		return p.Resize != nil
	case KindGrayscale:
		return p.Grayscale != nil
	case KindBlur:
		return p.Blur != nil
	case KindBrightness, KindContrast:
		return p.Adjust != nil
	case KindGeneric:
		return p.Generic != nil
	}
	return false
}

// CropProof carries the tile-grid range the crop overlaps on the original and
// merkle proofs for the range's corner tiles only. Corner coverage bounds the
// proof size; it is a deliberate space/soundness tradeoff, not full coverage.
type CropProof struct {
	Region          Rect          `json:"region"`
	TileRange       TileRange     `json:"tile_range"`
	CornerLeaves    []string      `json:"corner_leaves"`
	CornerProofs    []MerkleProof `json:"corner_proofs"`
	DimensionsMatch bool          `json:"dimensions_match"`
}

type ResizeProof struct {
	ScaleX          float64 `json:"scale_x"`
	ScaleY          float64 `json:"scale_y"`
	AspectPreserved bool    `json:"aspect_preserved"`
}

// GrayscaleProof reports a sampled tile witness. The sample is advisory, not
// binding: a dishonest prover controlling both images can pass it.
type GrayscaleProof struct {
	SampledTiles  []int  `json:"sampled_tiles"`
	WitnessDigest string `json:"witness_digest"`
}

type BlurProof struct {
	Sigma      float64 `json:"sigma"`
	KernelSize int     `json:"kernel_size"`
}

type AdjustProof struct {
	Factor  float64 `json:"factor"`
	InRange bool    `json:"in_range"`
}

// GenericProof is the fallback variant for unrecognized transformation kinds:
// binding commitment only, no type-specific checks.
type GenericProof struct {
	DeclaredKind string `json:"declared_kind,omitempty"`
}
