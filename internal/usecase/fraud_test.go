package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/policyfraud"
)

func honestGrayscaleProof(t *testing.T) domain.TransformationProof {
	t.Helper()
	generator := NewGenerator(testEngine(t), config.Default(), nil)
	original := gradientPNG(t, 96, 96)
	spec := domain.TransformationSpec{Kind: domain.KindGrayscale}
	proof, err := generator.GenerateProof(original, transformPNG(t, original, spec), spec, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return proof
}

func TestQuickCheckPassesHonestProof(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	result := detector.QuickCheck(honestGrayscaleProof(t))
	if result.FraudDetected {
		t.Fatalf("honest proof flagged: %s", result.Reason)
	}
	if len(result.ChecksPerformed) == 0 {
		t.Fatal("no checks recorded")
	}
	if result.Elapsed > 100*time.Millisecond {
		t.Fatalf("quick check took %v", result.Elapsed)
	}
}

func TestQuickCheckFlagsNil(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	result := detector.QuickCheck(nil)
	if !result.FraudDetected {
		t.Fatal("nil proof not flagged")
	}
	var nilProof *domain.TransformationProof
	if result := detector.QuickCheck(nilProof); !result.FraudDetected {
		t.Fatal("typed nil proof not flagged")
	}
}

func TestQuickCheckFlagsUnknownKind(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	proof := honestGrayscaleProof(t)
	proof.Kind = "hologram"
	result := detector.QuickCheck(proof)
	if !result.FraudDetected {
		t.Fatal("unknown kind not flagged")
	}
	if !strings.Contains(result.Reason, "hologram") {
		t.Fatalf("reason %q does not name the kind", result.Reason)
	}
}

func TestQuickCheckFlagsBadHashShape(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	proof := honestGrayscaleProof(t)
	proof.Original.Root = "<script>"
	if result := detector.QuickCheck(proof); !result.FraudDetected {
		t.Fatal("malformed root not flagged")
	}
}

func TestQuickCheckFlagsAbsurdDimensions(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)

	proof := honestGrayscaleProof(t)
	proof.Original.Width = 2000000
	if result := detector.QuickCheck(proof); !result.FraudDetected {
		t.Fatal("oversized dimension not flagged")
	}

	proof = honestGrayscaleProof(t)
	proof.Transformed.Width = 10000
	proof.Transformed.Height = 2
	if result := detector.QuickCheck(proof); !result.FraudDetected {
		t.Fatal("absurd aspect ratio not flagged")
	}
}

func TestQuickCheckFlagsTimestamps(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)

	proof := honestGrayscaleProof(t)
	proof.Timestamp = time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	if result := detector.QuickCheck(proof); !result.FraudDetected {
		t.Fatal("future timestamp not flagged")
	}

	proof = honestGrayscaleProof(t)
	proof.Timestamp = time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	if result := detector.QuickCheck(proof); !result.FraudDetected {
		t.Fatal("stale timestamp not flagged")
	}

	proof = honestGrayscaleProof(t)
	proof.Timestamp = "yesterday-ish"
	if result := detector.QuickCheck(proof); !result.FraudDetected {
		t.Fatal("unparseable timestamp not flagged")
	}
}

func TestQuickCheckWithPolicyGate(t *testing.T) {
	ctx := context.Background()
	policy, err := policyfraud.NewEngine(ctx, "")
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	detector := NewFraudDetector(config.Default(), policy, nil)

	honest := honestGrayscaleProof(t)
	if result := detector.QuickCheck(honest); result.FraudDetected {
		t.Fatalf("honest proof flagged by policy: %s", result.Reason)
	}

	found := false
	for _, name := range detector.QuickCheck(honest).ChecksPerformed {
		if name == "policy" {
			found = true
		}
	}
	if !found {
		t.Fatal("policy check did not run")
	}
}

func TestDeepCheckFlagsIdenticalRoots(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	proof := honestGrayscaleProof(t)
	proof.Transformed.Root = proof.Original.Root
	result := detector.DeepCheck(proof)
	if !result.FraudDetected {
		t.Fatal("identical roots not flagged")
	}
}

func TestDeepCheckFlagsImpossibleCrop(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	proof := domain.TransformationProof{
		Kind:              domain.KindCrop,
		Original:          domain.CommitmentSummary{Root: strings.Repeat("a", 64), Width: 100, Height: 100},
		Transformed:       domain.CommitmentSummary{Root: strings.Repeat("b", 64), Width: 200, Height: 100},
		BindingCommitment: strings.Repeat("c", 64),
		Valid:             true,
		Crop:              &domain.CropProof{DimensionsMatch: true},
	}
	result := detector.DeepCheck(proof)
	if !result.FraudDetected {
		t.Fatal("crop larger than original not flagged")
	}
	if !strings.Contains(result.Reason, "crop output exceeds") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestDeepCheckPassesHonestProof(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)
	result := detector.DeepCheck(honestGrayscaleProof(t))
	if result.FraudDetected {
		t.Fatalf("honest proof flagged: %s", result.Reason)
	}
}

func TestBatchCheckCounts(t *testing.T) {
	detector := NewFraudDetector(config.Default(), nil, nil)

	honest := honestGrayscaleProof(t)
	bad := honestGrayscaleProof(t)
	bad.Original.Root = "???"

	report := detector.BatchCheck([]any{honest, bad, nil, honest})
	if report.Total != 4 {
		t.Fatalf("total %d, want 4", report.Total)
	}
	if report.Flagged != 2 {
		t.Fatalf("flagged %d, want 2", report.Flagged)
	}
	if len(report.Results) != 4 {
		t.Fatalf("results %d", len(report.Results))
	}
	if report.Results[0].FraudDetected || !report.Results[1].FraudDetected || !report.Results[2].FraudDetected {
		t.Fatal("per-item outcomes out of order")
	}
}

func TestQuickCheckAcceptsRevealAndRedactionProofs(t *testing.T) {
	engine := testEngine(t)
	detector := NewFraudDetector(config.Default(), nil, nil)

	reveal := NewSelectiveReveal(engine, config.Default(), nil)
	revealProof, err := reveal.GenerateProof(gradientPNG(t, 128, 128), domain.Rect{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if result := detector.QuickCheck(revealProof); result.FraudDetected {
		t.Fatalf("reveal proof flagged: %s", result.Reason)
	}

	redaction := NewRedaction(engine, config.Default(), nil)
	_, redactionProof, err := redaction.RedactWithProof(gradientPNG(t, 128, 128), []domain.Rect{{Width: 32, Height: 32}}, RedactionOptions{})
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if result := detector.QuickCheck(redactionProof); result.FraudDetected {
		t.Fatalf("redaction proof flagged: %s", result.Reason)
	}
}
