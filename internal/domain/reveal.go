package domain

// RevealedTile pairs one disclosed tile's leaf hash with its inclusion proof
// against the original root.
type RevealedTile struct {
	Index    int         `json:"index"`
	LeafHash string      `json:"leaf_hash"`
	Proof    MerkleProof `json:"proof"`
}

// RevealProof shows that a disclosed sub-region came from a committed,
// undisclosed original. TileProofs is a bounded subset of the overlapping
// tiles, not full coverage.
type RevealProof struct {
	Original CommitmentSummary `json:"original"`
	Revealed CommitmentSummary `json:"revealed"`

	Region             Rect      `json:"region"`
	TileRange          TileRange `json:"tile_range"`
	RevealedTileCount  int       `json:"revealed_tile_count"`
	TotalOriginalTiles int       `json:"total_original_tiles"`

	TileProofs []RevealedTile `json:"tile_proofs"`

	BindingCommitment string       `json:"binding_commitment"`
	Valid             bool         `json:"valid"`
	Timestamp         string       `json:"timestamp,omitempty"`
	Metrics           ProofMetrics `json:"metrics"`
}

// SpotCheck records one sampled unaffected-tile hash comparison between the
// original and redacted commitments.
type SpotCheck struct {
	Index int  `json:"index"`
	Match bool `json:"match"`
}

// RedactionProof obscures regions while claiming the remainder is unmodified.
// SpotChecks sample unaffected tiles; sampling is a weak witness, documented
// as such, not a soundness guarantee.
type RedactionProof struct {
	Original CommitmentSummary `json:"original"`
	Redacted CommitmentSummary `json:"redacted"`

	Regions           []Rect `json:"regions"`
	Method            string `json:"method"`
	AffectedTileCount int    `json:"affected_tile_count"`
	TotalTiles        int    `json:"total_tiles"`
	PreservedRatio    string `json:"preserved_ratio"`

	SpotChecks []SpotCheck `json:"spot_checks"`

	BindingCommitment string       `json:"binding_commitment"`
	Valid             bool         `json:"valid"`
	Timestamp         string       `json:"timestamp,omitempty"`
	Metrics           ProofMetrics `json:"metrics"`
}

// Redaction methods.
const (
	RedactionMethodBlur = "blur"
	RedactionMethodFill = "fill"
)
