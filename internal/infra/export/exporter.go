package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tileproof/internal/domain"
	"tileproof/internal/infra/canonical"
)

const BundleVersion = "v1"

// Bundle is the portable JSON form of a proof chain. Signature is an
// integrity digest over the anchor fields, not a cryptographic signature.
type Bundle struct {
	Version    string                   `json:"version"`
	ChainID    string                   `json:"chain_id"`
	ExportedAt string                   `json:"exported_at"`
	Original   domain.CommitmentSummary `json:"original"`
	Final      domain.CommitmentSummary `json:"final"`
	Steps      []domain.ChainStep       `json:"steps"`
	StepCount  int                      `json:"step_count"`
	Signature  string                   `json:"signature"`
}

// ImportReport is the outcome of an import. Tamper is advisory; the chain is
// still returned so callers can inspect what arrived.
type ImportReport struct {
	Chain    domain.ProofChain `json:"chain"`
	Bundle   Bundle            `json:"-"`
	Tampered bool              `json:"tampered"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Exporter serializes proof chains to portable bundles and back.
type Exporter struct {
	log *zap.Logger
}

func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{log: logger}
}

// BuildBundle assembles the bundle for a chain, including its integrity
// signature.
func (e *Exporter) BuildBundle(chain domain.ProofChain, exportedAt string) (Bundle, error) {
	if chain.ChainID == "" {
		return Bundle{}, errors.New("chain_id is required")
	}
	steps := make([]domain.ChainStep, len(chain.Steps))
	copy(steps, chain.Steps)

	bundle := Bundle{
		Version:    BundleVersion,
		ChainID:    chain.ChainID,
		ExportedAt: exportedAt,
		Original:   chain.Original,
		Final:      chain.Final(),
		Steps:      steps,
		StepCount:  len(steps),
	}
	signature, err := bundleSignature(bundle)
	if err != nil {
		return Bundle{}, err
	}
	bundle.Signature = signature
	return bundle, nil
}

// ExportJSON is the canonical serialized form of the chain's bundle.
func (e *Exporter) ExportJSON(chain domain.ProofChain, exportedAt string) ([]byte, error) {
	bundle, err := e.BuildBundle(chain, exportedAt)
	if err != nil {
		return nil, err
	}
	return canonical.Marshal(bundle)
}

// ImportJSON parses a bundle, recomputes its signature, and reconstructs the
// chain. A signature mismatch does not fail the import; it is reported as a
// tamper warning.
func (e *Exporter) ImportJSON(data []byte) (ImportReport, error) {
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return ImportReport{}, fmt.Errorf("parse bundle: %w", err)
	}
	if bundle.ChainID == "" {
		return ImportReport{}, errors.New("bundle is missing chain_id")
	}

	report := ImportReport{Bundle: bundle, Warnings: []string{}}
	if bundle.Version != BundleVersion {
		report.Warnings = append(report.Warnings, fmt.Sprintf("bundle version %q, expected %q", bundle.Version, BundleVersion))
	}
	if bundle.StepCount != len(bundle.Steps) {
		report.Tampered = true
		report.Warnings = append(report.Warnings, "step_count does not match steps")
	}

	expected, err := bundleSignature(bundle)
	if err != nil {
		return ImportReport{}, err
	}
	if expected != bundle.Signature {
		report.Tampered = true
		report.Warnings = append(report.Warnings, "bundle signature mismatch")
		e.log.Warn("imported bundle failed signature check", zap.String("chain_id", bundle.ChainID))
	}

	report.Chain = domain.ProofChain{
		ChainID:  bundle.ChainID,
		Original: bundle.Original,
		Steps:    bundle.Steps,
		Running:  bundle.Final,
	}
	if report.Chain.Steps == nil {
		report.Chain.Steps = []domain.ChainStep{}
	}
	return report, nil
}

// bundleSignature digests the anchor fields only, so cosmetic re-encoding of
// the JSON does not change it but any change to roots or step count does.
func bundleSignature(bundle Bundle) (string, error) {
	return canonical.DigestHex(map[string]any{
		"original_root": bundle.Original.Root,
		"final_root":    bundle.Final.Root,
		"step_count":    bundle.StepCount,
	})
}
