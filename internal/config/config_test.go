package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	opts := Default()
	if opts.TileSize != 32 {
		t.Fatalf("tile size %d", opts.TileSize)
	}
	if opts.HashAlg != "sha256" {
		t.Fatalf("hash alg %q", opts.HashAlg)
	}
	if opts.MaxProofAge != 24*time.Hour || opts.MaxFutureSkew != 60*time.Second {
		t.Fatalf("proof age bounds %v / %v", opts.MaxProofAge, opts.MaxFutureSkew)
	}
	if opts.QuickCheckBudget != 10*time.Millisecond {
		t.Fatalf("quick check budget %v", opts.QuickCheckBudget)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TILEPROOF_TILE_SIZE", "64")
	t.Setenv("TILEPROOF_HASH_ALG", "mimc")
	t.Setenv("TILEPROOF_MAX_PROOF_AGE_HOURS", "48")

	opts := FromEnv()
	if opts.TileSize != 64 {
		t.Fatalf("tile size %d", opts.TileSize)
	}
	if opts.HashAlg != "mimc" {
		t.Fatalf("hash alg %q", opts.HashAlg)
	}
	if opts.MaxProofAge != 48*time.Hour {
		t.Fatalf("proof age %v", opts.MaxProofAge)
	}
}

func TestFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("TILEPROOF_TILE_SIZE", "zero")
	t.Setenv("TILEPROOF_CONCURRENCY", "-3")

	opts := FromEnv()
	if opts.TileSize != 32 {
		t.Fatalf("tile size %d, want default 32", opts.TileSize)
	}
	if opts.Concurrency != 4 {
		t.Fatalf("concurrency %d, want default 4", opts.Concurrency)
	}
}
