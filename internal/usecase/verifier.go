package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/tiles"
)

// VerificationReport is the structured outcome of a verification. Malformed
// input never raises; it lands here as a failed check with a reason.
type VerificationReport struct {
	Valid  bool            `json:"valid"`
	Checks map[string]bool `json:"checks"`
	Errors []string        `json:"errors,omitempty"`
}

func newReport() VerificationReport {
	return VerificationReport{Checks: map[string]bool{}, Errors: []string{}}
}

func (r *VerificationReport) record(name string, ok bool, reason string) {
	r.Checks[name] = ok
	if !ok && reason != "" {
		r.Errors = append(r.Errors, reason)
	}
}

func (r *VerificationReport) finalize() {
	r.Valid = true
	for _, ok := range r.Checks {
		if !ok {
			r.Valid = false
			return
		}
	}
}

// Verifier checks transformation proofs. All checks are independent and all
// must pass. Without the original pixels the binding commitment can only be
// format-checked, which is a documented weak integrity check; recomputing the
// transformed commitment from supplied bytes is the one fully sound check.
type Verifier struct {
	engine *tiles.Engine
	opts   config.Options
	log    *zap.Logger
}

func NewVerifier(engine *tiles.Engine, opts config.Options, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{engine: engine, opts: opts, log: logger}
}

// Verify runs the independent check set over the proof. transformedBytes may
// be nil; when supplied the claimed transformed root is recomputed from them.
func (v *Verifier) Verify(proof domain.TransformationProof, transformedBytes []byte) VerificationReport {
	report := newReport()

	structural := proof.WellFormed()
	report.record("structure", structural, "proof shape does not match a known tag")

	supported := proof.Kind.Supported()
	report.record("kind_supported", supported, fmt.Sprintf("unsupported kind %q", proof.Kind))

	report.record("binding_format", hashShaped(proof.BindingCommitment), "binding commitment is not hash shaped")

	if structural && supported {
		report.record("dimensions", v.checkDimensions(proof), "dimension rule violated for tag")
		report.record("tag_validity", v.checkTagValidity(proof), "tag-specific validity check failed")
	}

	if transformedBytes != nil {
		recomputed, err := v.engine.ComputeCommitment(transformedBytes)
		switch {
		case err != nil:
			report.record("recomputed_commitment", false, fmt.Sprintf("recompute transformed commitment: %v", err))
		case recomputed.RootHex() != proof.Transformed.Root:
			report.record("recomputed_commitment", false, domain.ErrCommitmentMismatch.Error())
		default:
			report.record("recomputed_commitment", true, "")
		}
	}

	report.finalize()
	return report
}

func (v *Verifier) checkDimensions(proof domain.TransformationProof) bool {
	orig := proof.Original
	trans := proof.Transformed
	if orig.Width <= 0 || orig.Height <= 0 || trans.Width <= 0 || trans.Height <= 0 {
		return false
	}
	switch proof.Kind {
	case domain.KindCrop:
		return trans.Width <= orig.Width && trans.Height <= orig.Height
	case domain.KindResize:
		return true
	case domain.KindGrayscale, domain.KindBlur, domain.KindBrightness, domain.KindContrast:
		return trans.Width == orig.Width && trans.Height == orig.Height
	}
	return true
}

func (v *Verifier) checkTagValidity(proof domain.TransformationProof) bool {
	switch proof.Kind {
	case domain.KindCrop:
		return proof.Crop.DimensionsMatch &&
			proof.Transformed.Width == proof.Crop.Region.Width &&
			proof.Transformed.Height == proof.Crop.Region.Height
	case domain.KindResize:
		return proof.Resize.ScaleX > 0 && proof.Resize.ScaleY > 0
	case domain.KindBlur:
		return proof.Blur.Sigma > 0
	case domain.KindBrightness, domain.KindContrast:
		return proof.Adjust.InRange &&
			proof.Adjust.Factor >= v.opts.FactorMin && proof.Adjust.Factor <= v.opts.FactorMax
	}
	return true
}

// hashShaped accepts hex strings of 32-128 chars or decimal strings of at
// least 10 digits (field-element style commitments).
func hashShaped(s string) bool {
	if len(s) >= 32 && len(s) <= 128 && allHex(s) {
		return true
	}
	return len(s) >= 10 && allDigits(s)
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return len(s) > 0
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
