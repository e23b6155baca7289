package usecase

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"tileproof/internal/domain"
	"tileproof/internal/infra/merkle"
	"tileproof/internal/infra/tiles"
)

// Video commits keyframe sequences. The video root is a merkle tree over
// per-frame commitment roots, each video-level leaf bound to its frame index
// so a reordered sequence commits to a different root.
type Video struct {
	engine *tiles.Engine
	log    *zap.Logger
}

func NewVideo(engine *tiles.Engine, logger *zap.Logger) *Video {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Video{engine: engine, log: logger}
}

// CommitKeyframes commits each keyframe image and builds the video tree over
// the frame roots in order.
func (v *Video) CommitKeyframes(frames [][]byte) (domain.VideoCommitment, error) {
	if len(frames) == 0 {
		return domain.VideoCommitment{}, domain.ErrNoFrames
	}

	hasher := v.engine.Hasher()
	frameCommitments := make([]domain.FrameCommitment, 0, len(frames))
	leaves := make([][]byte, 0, len(frames))
	for i, frameBytes := range frames {
		commitment, err := v.engine.ComputeCommitment(frameBytes)
		if err != nil {
			return domain.VideoCommitment{}, fmt.Errorf("frame %d: %w", i, err)
		}
		frameCommitments = append(frameCommitments, domain.FrameCommitment{
			Index:      i,
			Commitment: commitment.Summary(),
		})
		leaves = append(leaves, hasher.LeafHash(i, 0, commitment.Root))
	}

	levels, err := merkle.BuildLevels(hasher, leaves)
	if err != nil {
		return domain.VideoCommitment{}, err
	}
	root := levels[len(levels)-1][0]

	v.log.Debug("video commitment computed",
		zap.Int("frames", len(frames)), zap.String("root", hex.EncodeToString(root)))
	return domain.VideoCommitment{
		FrameCount: len(frames),
		Frames:     frameCommitments,
		Root:       hex.EncodeToString(root),
		HashAlg:    hasher.Name(),
	}, nil
}

// FrameProof proves one keyframe's membership in the committed video. The
// video tree is rebuilt from the stored frame roots; only roots are needed,
// never the frame pixels.
func (v *Video) FrameProof(video domain.VideoCommitment, frameIndex int) (domain.FrameProof, error) {
	if frameIndex < 0 || frameIndex >= video.FrameCount {
		return domain.FrameProof{}, fmt.Errorf("%w: frame %d of %d", domain.ErrIndexOutOfRange, frameIndex, video.FrameCount)
	}

	hasher := v.engine.Hasher()
	leaves := make([][]byte, 0, video.FrameCount)
	for _, frame := range video.Frames {
		root, err := hex.DecodeString(frame.Commitment.Root)
		if err != nil {
			return domain.FrameProof{}, fmt.Errorf("frame %d root: %w", frame.Index, err)
		}
		leaves = append(leaves, hasher.LeafHash(frame.Index, 0, root))
	}
	levels, err := merkle.BuildLevels(hasher, leaves)
	if err != nil {
		return domain.FrameProof{}, err
	}

	path, err := merkle.Proof(levels, len(leaves), frameIndex)
	if err != nil {
		return domain.FrameProof{}, err
	}
	nodes := make([]domain.ProofNode, len(path))
	for i, node := range path {
		nodes[i] = domain.ProofNode{Sibling: hex.EncodeToString(node.Sibling), IsLeft: node.IsLeft}
	}
	return domain.FrameProof{
		FrameIndex: frameIndex,
		FrameRoot:  video.Frames[frameIndex].Commitment.Root,
		Proof:      domain.MerkleProof{LeafIndex: frameIndex, Path: nodes},
		VideoRoot:  video.Root,
	}, nil
}

// VerifyFrameProof recombines the index-bound frame leaf along the proof path
// and compares against the video root.
func (v *Video) VerifyFrameProof(proof domain.FrameProof) bool {
	frameRoot, err := hex.DecodeString(proof.FrameRoot)
	if err != nil {
		return false
	}
	leaf := v.engine.Hasher().LeafHash(proof.FrameIndex, 0, frameRoot)
	return v.engine.VerifyMerkleProof(hex.EncodeToString(leaf), proof.Proof, proof.VideoRoot)
}
