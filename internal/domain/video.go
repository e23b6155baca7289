package domain

// FrameCommitment is one keyframe's tile commitment inside a video commitment.
type FrameCommitment struct {
	Index      int               `json:"index"`
	Commitment CommitmentSummary `json:"commitment"`
}

// VideoCommitment is a merkle tree over per-keyframe commitment roots. Each
// video-level leaf binds the frame index to its root, mirroring the tile
// position binding that blocks reordering.
type VideoCommitment struct {
	FrameCount int               `json:"frame_count"`
	Frames     []FrameCommitment `json:"frames"`
	Root       string            `json:"root"`
	HashAlg    string            `json:"hash_alg,omitempty"`
}

// FrameProof shows one keyframe belongs to a committed video.
type FrameProof struct {
	FrameIndex int         `json:"frame_index"`
	FrameRoot  string      `json:"frame_root"`
	Proof      MerkleProof `json:"proof"`
	VideoRoot  string      `json:"video_root"`
}
