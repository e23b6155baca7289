package config

import (
	"os"
	"strconv"
	"time"
)

// Options carries every tunable the engine and services take at construction.
// Nothing in this package is read from globals after construction; callers
// that want env-driven wiring go through FromEnv once and pass the result in.
type Options struct {
	TileSize     int
	HashAlg      string
	MaxDimension int

	Concurrency int

	AspectEpsilon    float64
	FactorMin        float64
	FactorMax        float64
	GrayscaleSamples int

	RevealProofBudget   int
	RedactionSpotChecks int

	MaxProofAge      time.Duration
	MaxFutureSkew    time.Duration
	QuickCheckBudget time.Duration

	QRChunkBytes  int
	VerifyBaseURL string
}

func Default() Options {
	return Options{
		TileSize:            32,
		HashAlg:             "sha256",
		MaxDimension:        100000,
		Concurrency:         4,
		AspectEpsilon:       0.01,
		FactorMin:           0,
		FactorMax:           3,
		GrayscaleSamples:    4,
		RevealProofBudget:   4,
		RedactionSpotChecks: 10,
		MaxProofAge:         24 * time.Hour,
		MaxFutureSkew:       60 * time.Second,
		QuickCheckBudget:    10 * time.Millisecond,
		QRChunkBytes:        800,
		VerifyBaseURL:       "https://verify.tileproof.dev/v",
	}
}

func FromEnv() Options {
	opts := Default()
	opts.TileSize = envIntDefault("TILEPROOF_TILE_SIZE", opts.TileSize)
	opts.HashAlg = envDefault("TILEPROOF_HASH_ALG", opts.HashAlg)
	opts.MaxDimension = envIntDefault("TILEPROOF_MAX_DIMENSION", opts.MaxDimension)
	opts.Concurrency = envIntDefault("TILEPROOF_CONCURRENCY", opts.Concurrency)
	opts.GrayscaleSamples = envIntDefault("TILEPROOF_GRAYSCALE_SAMPLES", opts.GrayscaleSamples)
	opts.RevealProofBudget = envIntDefault("TILEPROOF_REVEAL_PROOF_BUDGET", opts.RevealProofBudget)
	opts.RedactionSpotChecks = envIntDefault("TILEPROOF_REDACTION_SPOT_CHECKS", opts.RedactionSpotChecks)
	opts.QRChunkBytes = envIntDefault("TILEPROOF_QR_CHUNK_BYTES", opts.QRChunkBytes)
	opts.VerifyBaseURL = envDefault("TILEPROOF_VERIFY_BASE_URL", opts.VerifyBaseURL)
	if hours := envIntDefault("TILEPROOF_MAX_PROOF_AGE_HOURS", 0); hours > 0 {
		opts.MaxProofAge = time.Duration(hours) * time.Hour
	}
	return opts
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
