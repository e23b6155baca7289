package usecase

import (
	"errors"
	"testing"

	"tileproof/internal/domain"
)

func testFrames(t *testing.T, count int) [][]byte {
	t.Helper()
	frames := make([][]byte, count)
	for i := range frames {
		frames[i] = gradientPNG(t, 64+8*i, 64)
	}
	return frames
}

func TestCommitKeyframes(t *testing.T) {
	video := NewVideo(testEngine(t), nil)

	commitment, err := video.CommitKeyframes(testFrames(t, 4))
	if err != nil {
		t.Fatalf("commit keyframes: %v", err)
	}
	if commitment.FrameCount != 4 || len(commitment.Frames) != 4 {
		t.Fatalf("frame count %d", commitment.FrameCount)
	}
	if commitment.Root == "" {
		t.Fatal("missing video root")
	}
	for i, frame := range commitment.Frames {
		if frame.Index != i {
			t.Fatalf("frame %d carries index %d", i, frame.Index)
		}
		if frame.Commitment.Root == "" {
			t.Fatalf("frame %d missing root", i)
		}
	}
}

func TestCommitKeyframesEmpty(t *testing.T) {
	video := NewVideo(testEngine(t), nil)
	if _, err := video.CommitKeyframes(nil); !errors.Is(err, domain.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestReorderedFramesChangeRoot(t *testing.T) {
	video := NewVideo(testEngine(t), nil)
	frames := testFrames(t, 3)

	forward, err := video.CommitKeyframes(frames)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	swapped := [][]byte{frames[1], frames[0], frames[2]}
	reordered, err := video.CommitKeyframes(swapped)
	if err != nil {
		t.Fatalf("commit reordered: %v", err)
	}
	if forward.Root == reordered.Root {
		t.Fatal("reordering frames did not change the video root")
	}
}

func TestFrameProofRoundTrip(t *testing.T) {
	video := NewVideo(testEngine(t), nil)
	commitment, err := video.CommitKeyframes(testFrames(t, 5))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	for index := 0; index < commitment.FrameCount; index++ {
		proof, err := video.FrameProof(commitment, index)
		if err != nil {
			t.Fatalf("frame proof %d: %v", index, err)
		}
		if !video.VerifyFrameProof(proof) {
			t.Fatalf("frame proof %d did not verify", index)
		}
	}

	if _, err := video.FrameProof(commitment, 5); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestFrameProofRejectsWrongIndex(t *testing.T) {
	video := NewVideo(testEngine(t), nil)
	commitment, err := video.CommitKeyframes(testFrames(t, 4))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	proof, err := video.FrameProof(commitment, 1)
	if err != nil {
		t.Fatalf("frame proof: %v", err)
	}
	proof.FrameIndex = 2
	if video.VerifyFrameProof(proof) {
		t.Fatal("proof verified under a different frame index")
	}
}
