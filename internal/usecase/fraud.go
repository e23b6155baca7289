package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
	"tileproof/internal/infra/policyfraud"
)

// FraudDetector is the cheap pre-filter run before expensive verification.
// Every entry point returns a structured result and never raises: an internal
// fault is recovered and reported as a generic fraud reason.
type FraudDetector struct {
	opts   config.Options
	policy *policyfraud.Engine
	log    *zap.Logger
	now    func() time.Time
}

// NewFraudDetector builds a detector. policy may be nil to skip the rego gate.
func NewFraudDetector(opts config.Options, policy *policyfraud.Engine, logger *zap.Logger) *FraudDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FraudDetector{opts: opts, policy: policy, log: logger, now: time.Now}
}

// proofFacts is the normalized view the checks run over, extracted once from
// whichever proof family was handed in.
type proofFacts struct {
	kind        domain.TransformationKind
	hashes      []string
	dims        [][2]int
	origDims    [2]int
	transDims   [2]int
	timestamp   string
	regionCount int
	needsRegion bool
	valid       bool
	rootsEqual  bool
	metrics     domain.ProofMetrics
	document    any
}

// QuickCheck runs the sub-10ms structural/semantic pre-filter, short-circuiting
// on the first failure.
func (d *FraudDetector) QuickCheck(proof any) (result domain.FraudCheckResult) {
	start := d.now()
	performed := []string{}
	defer func() {
		if r := recover(); r != nil {
			result = domain.FraudCheckResult{
				FraudDetected:   true,
				Reason:          "internal fault during fraud check",
				ChecksPerformed: performed,
				Elapsed:         d.now().Sub(start),
			}
		}
	}()

	fail := func(reason string) domain.FraudCheckResult {
		return domain.FraudCheckResult{
			FraudDetected:   true,
			Reason:          reason,
			ChecksPerformed: performed,
			Elapsed:         d.now().Sub(start),
		}
	}

	performed = append(performed, "structure")
	facts, ok := factsFor(proof)
	if !ok {
		return fail("proof is nil or not a recognized proof object")
	}

	performed = append(performed, "kind_whitelist")
	if !kindWhitelisted(facts.kind) {
		return fail(fmt.Sprintf("kind %q is not whitelisted", facts.kind))
	}

	performed = append(performed, "hash_shape")
	for _, h := range facts.hashes {
		if !hashShaped(h) {
			return fail("embedded commitment is not hash shaped")
		}
	}

	performed = append(performed, "dimensions")
	for _, dim := range facts.dims {
		if reason := checkDims(dim, d.maxDimension()); reason != "" {
			return fail(reason)
		}
	}

	performed = append(performed, "timestamp")
	if reason := d.checkTimestamp(facts.timestamp); reason != "" {
		return fail(reason)
	}

	performed = append(performed, "tag_invariant")
	if facts.needsRegion && facts.regionCount <= 0 {
		return fail("proof kind requires at least one region")
	}

	if d.policy != nil {
		performed = append(performed, "policy")
		denials, err := d.policy.Deny(context.Background(), facts.document)
		if err != nil {
			return fail("internal fault during fraud check")
		}
		if len(denials) > 0 {
			return fail("policy denied: " + strings.Join(denials, "; "))
		}
	}

	elapsed := d.now().Sub(start)
	if budget := d.opts.QuickCheckBudget; budget > 0 && elapsed > budget {
		d.log.Debug("quick check exceeded its latency budget",
			zap.Duration("elapsed", elapsed), zap.Duration("budget", budget))
	}
	return domain.FraudCheckResult{
		FraudDetected:   false,
		ChecksPerformed: performed,
		Elapsed:         elapsed,
	}
}

// DeepCheck runs QuickCheck and then semantic impossibility rules that need
// the full proof in view.
func (d *FraudDetector) DeepCheck(proof any) (result domain.FraudCheckResult) {
	start := d.now()
	quick := d.QuickCheck(proof)
	if quick.FraudDetected {
		return quick
	}
	performed := quick.ChecksPerformed
	defer func() {
		if r := recover(); r != nil {
			result = domain.FraudCheckResult{
				FraudDetected:   true,
				Reason:          "internal fault during fraud check",
				ChecksPerformed: performed,
				Elapsed:         d.now().Sub(start),
			}
		}
	}()

	fail := func(reason string) domain.FraudCheckResult {
		return domain.FraudCheckResult{
			FraudDetected:   true,
			Reason:          reason,
			ChecksPerformed: performed,
			Elapsed:         d.now().Sub(start),
		}
	}

	facts, _ := factsFor(proof)

	performed = append(performed, "root_inequality")
	if facts.rootsEqual && facts.kind != domain.KindGeneric {
		return fail("original and transformed roots are identical for a non-identity transform")
	}

	performed = append(performed, "valid_flag")
	if !facts.valid {
		return fail("proof declares itself invalid")
	}

	performed = append(performed, "impossibility")
	switch facts.kind {
	case domain.KindCrop:
		if facts.transDims[0] > facts.origDims[0] || facts.transDims[1] > facts.origDims[1] {
			return fail("crop output exceeds input dimensions")
		}
	case domain.KindGrayscale, domain.KindBlur, domain.KindBrightness, domain.KindContrast:
		if facts.transDims != facts.origDims {
			return fail("dimension-preserving transform changed dimensions")
		}
	}

	performed = append(performed, "metrics")
	if facts.metrics.ProvingTimeMS < 0 || facts.metrics.ProofSizeBytes < 0 {
		return fail("negative proof metrics")
	}

	return domain.FraudCheckResult{
		FraudDetected:   false,
		ChecksPerformed: performed,
		Elapsed:         d.now().Sub(start),
	}
}

// BatchCheck quick-checks every proof and aggregates.
func (d *FraudDetector) BatchCheck(proofs []any) domain.BatchFraudReport {
	start := d.now()
	results := make([]domain.FraudCheckResult, 0, len(proofs))
	flagged := 0
	for _, proof := range proofs {
		result := d.QuickCheck(proof)
		if result.FraudDetected {
			flagged++
		}
		results = append(results, result)
	}
	return domain.BatchFraudReport{
		Results: results,
		Total:   len(proofs),
		Flagged: flagged,
		Elapsed: d.now().Sub(start),
	}
}

func (d *FraudDetector) maxDimension() int {
	if d.opts.MaxDimension > 0 {
		return d.opts.MaxDimension
	}
	return config.Default().MaxDimension
}

func (d *FraudDetector) checkTimestamp(timestamp string) string {
	if timestamp == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return "timestamp is not parseable"
	}
	now := d.now()
	skew := d.opts.MaxFutureSkew
	if skew <= 0 {
		skew = config.Default().MaxFutureSkew
	}
	maxAge := d.opts.MaxProofAge
	if maxAge <= 0 {
		maxAge = config.Default().MaxProofAge
	}
	if parsed.After(now.Add(skew)) {
		return "timestamp is in the future"
	}
	if parsed.Before(now.Add(-maxAge)) {
		return "timestamp exceeds the maximum proof age"
	}
	return ""
}

func checkDims(dim [2]int, maxDim int) string {
	width, height := dim[0], dim[1]
	if width < 1 || height < 1 || width > maxDim || height > maxDim {
		return fmt.Sprintf("dimension %dx%d outside [1,%d]", width, height, maxDim)
	}
	if width > height*100 || height > width*100 {
		return fmt.Sprintf("aspect ratio of %dx%d exceeds 100:1", width, height)
	}
	return ""
}

func kindWhitelisted(kind domain.TransformationKind) bool {
	return kind.Supported() || kind == domain.KindSelectiveReveal || kind == domain.KindRedaction
}

func factsFor(proof any) (*proofFacts, bool) {
	switch p := proof.(type) {
	case domain.TransformationProof:
		return transformationFacts(p), true
	case *domain.TransformationProof:
		if p == nil {
			return nil, false
		}
		return transformationFacts(*p), true
	case domain.RevealProof:
		return revealFacts(p), true
	case *domain.RevealProof:
		if p == nil {
			return nil, false
		}
		return revealFacts(*p), true
	case domain.RedactionProof:
		return redactionFacts(p), true
	case *domain.RedactionProof:
		if p == nil {
			return nil, false
		}
		return redactionFacts(*p), true
	}
	return nil, false
}

func transformationFacts(p domain.TransformationProof) *proofFacts {
	return &proofFacts{
		kind:       p.Kind,
		hashes:     []string{p.Original.Root, p.Transformed.Root, p.BindingCommitment},
		dims:       [][2]int{{p.Original.Width, p.Original.Height}, {p.Transformed.Width, p.Transformed.Height}},
		origDims:   [2]int{p.Original.Width, p.Original.Height},
		transDims:  [2]int{p.Transformed.Width, p.Transformed.Height},
		timestamp:  p.Timestamp,
		valid:      p.Valid,
		rootsEqual: p.Original.Root == p.Transformed.Root,
		metrics:    p.Metrics,
		document:   toDocument(p),
	}
}

func revealFacts(p domain.RevealProof) *proofFacts {
	return &proofFacts{
		kind:        domain.KindSelectiveReveal,
		hashes:      []string{p.Original.Root, p.Revealed.Root, p.BindingCommitment},
		dims:        [][2]int{{p.Original.Width, p.Original.Height}, {p.Revealed.Width, p.Revealed.Height}},
		origDims:    [2]int{p.Original.Width, p.Original.Height},
		transDims:   [2]int{p.Revealed.Width, p.Revealed.Height},
		timestamp:   p.Timestamp,
		regionCount: boolToCount(!p.Region.Empty()),
		needsRegion: true,
		valid:       p.Valid,
		rootsEqual:  false,
		metrics:     p.Metrics,
		document:    toDocument(p),
	}
}

func redactionFacts(p domain.RedactionProof) *proofFacts {
	return &proofFacts{
		kind:        domain.KindRedaction,
		hashes:      []string{p.Original.Root, p.Redacted.Root, p.BindingCommitment},
		dims:        [][2]int{{p.Original.Width, p.Original.Height}, {p.Redacted.Width, p.Redacted.Height}},
		origDims:    [2]int{p.Original.Width, p.Original.Height},
		transDims:   [2]int{p.Redacted.Width, p.Redacted.Height},
		timestamp:   p.Timestamp,
		regionCount: len(p.Regions),
		needsRegion: true,
		valid:       p.Valid,
		rootsEqual:  p.Original.Root == p.Redacted.Root,
		metrics:     p.Metrics,
		document:    toDocument(p),
	}
}

// toDocument converts a proof to the generic JSON form the policy engine
// evaluates over.
func toDocument(proof any) any {
	encoded, err := json.Marshal(proof)
	if err != nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil
	}
	return doc
}

func boolToCount(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
