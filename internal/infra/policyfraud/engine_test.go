package policyfraud

import (
	"context"
	"testing"
)

func TestDefaultModuleDeniesBadCrop(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, "")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	denials, err := engine.Deny(ctx, map[string]any{
		"kind":  "crop",
		"valid": true,
		"crop": map[string]any{
			"region": map[string]any{"width": 0, "height": 10},
		},
	})
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if len(denials) != 1 {
		t.Fatalf("expected one denial, got %v", denials)
	}
	if denials[0] != "crop region has non-positive width" {
		t.Fatalf("unexpected denial message %q", denials[0])
	}
}

func TestDefaultModulePassesValidProof(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, "")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	denials, err := engine.Deny(ctx, map[string]any{
		"kind":  "crop",
		"valid": true,
		"crop": map[string]any{
			"region": map[string]any{"width": 32, "height": 32},
		},
	})
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if len(denials) != 0 {
		t.Fatalf("expected no denials, got %v", denials)
	}
}

func TestDefaultModuleDeniesSelfInvalid(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, "")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	denials, err := engine.Deny(ctx, map[string]any{"kind": "grayscale", "valid": false})
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if len(denials) != 1 || denials[0] != "proof declares itself invalid" {
		t.Fatalf("unexpected denials %v", denials)
	}
}

func TestCustomModule(t *testing.T) {
	ctx := context.Background()
	module := `package tileproof.fraud

deny[msg] {
	input.kind == "resize"
	msg := "resize is banned here"
}
`
	engine, err := NewEngine(ctx, module)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	denials, err := engine.Deny(ctx, map[string]any{"kind": "resize"})
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if len(denials) != 1 || denials[0] != "resize is banned here" {
		t.Fatalf("unexpected denials %v", denials)
	}
}

func TestNewEngineRejectsBrokenModule(t *testing.T) {
	if _, err := NewEngine(context.Background(), "package broken {"); err == nil {
		t.Fatal("expected error for unparseable module")
	}
}
