package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tileproof/internal/config"
	"tileproof/internal/domain"
)

// BatchItem is one outcome inside a batch run. Exactly one of Value and Err
// is meaningful, selected by Err == "".
type BatchItem[R any] struct {
	Index int    `json:"index"`
	Value R      `json:"value"`
	Err   string `json:"error,omitempty"`
}

// BatchReport carries per-item outcomes in input order plus run aggregates.
// One failing item never aborts the rest of the batch.
type BatchReport[R any] struct {
	RunID      string         `json:"run_id"`
	Items      []BatchItem[R] `json:"items"`
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
	Throughput float64        `json:"items_per_second"`
}

// Run fans inputs out over at most concurrency workers in fixed-size chunks
// and collects results in input order. A panicking item is recovered and
// recorded as that item's failure.
func Run[T, R any](inputs []T, concurrency int, fn func(T) (R, error)) BatchReport[R] {
	start := time.Now()
	if concurrency <= 0 {
		concurrency = config.Default().Concurrency
	}

	items := make([]BatchItem[R], len(inputs))
	for chunkStart := 0; chunkStart < len(inputs); chunkStart += concurrency {
		chunkEnd := min(chunkStart+concurrency, len(inputs))
		var wg sync.WaitGroup
		for i := chunkStart; i < chunkEnd; i++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						items[index] = BatchItem[R]{Index: index, Err: fmt.Sprintf("panic: %v", r)}
					}
				}()
				value, err := fn(inputs[index])
				if err != nil {
					items[index] = BatchItem[R]{Index: index, Err: err.Error()}
					return
				}
				items[index] = BatchItem[R]{Index: index, Value: value}
			}(i)
		}
		wg.Wait()
	}

	succeeded := 0
	for _, item := range items {
		if item.Err == "" {
			succeeded++
		}
	}
	elapsed := time.Since(start)
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(len(inputs)) / elapsed.Seconds()
	}
	return BatchReport[R]{
		RunID:      uuid.NewString(),
		Items:      items,
		Total:      len(inputs),
		Succeeded:  succeeded,
		Failed:     len(inputs) - succeeded,
		Elapsed:    elapsed,
		Throughput: throughput,
	}
}

// BatchProcessor bundles the proof services behind bulk entry points.
type BatchProcessor struct {
	generator *Generator
	verifier  *Verifier
	reveal    *SelectiveReveal
	redaction *Redaction
	opts      config.Options
	log       *zap.Logger
}

func NewBatchProcessor(generator *Generator, verifier *Verifier, reveal *SelectiveReveal, redaction *Redaction, opts config.Options, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		generator: generator,
		verifier:  verifier,
		reveal:    reveal,
		redaction: redaction,
		opts:      opts,
		log:       logger,
	}
}

// GenerateInput pairs the images and spec for one proof generation.
type GenerateInput struct {
	Original    []byte
	Transformed []byte
	Spec        domain.TransformationSpec
}

// VerifyInput pairs a proof with optional transformed bytes.
type VerifyInput struct {
	Proof            domain.TransformationProof
	TransformedBytes []byte
}

// RevealInput pairs an original with the region to disclose.
type RevealInput struct {
	Original []byte
	Region   domain.Rect
}

// RedactInput pairs an original with its redaction request.
type RedactInput struct {
	Original []byte
	Regions  []domain.Rect
	Options  RedactionOptions
}

// RedactOutput is the paired result of one redaction.
type RedactOutput struct {
	Redacted []byte
	Proof    domain.RedactionProof
}

func (b *BatchProcessor) CommitAll(images [][]byte) BatchReport[domain.CommitmentSummary] {
	report := Run(images, b.opts.Concurrency, func(imageBytes []byte) (domain.CommitmentSummary, error) {
		commitment, err := b.generator.engine.ComputeCommitment(imageBytes)
		if err != nil {
			return domain.CommitmentSummary{}, err
		}
		return commitment.Summary(), nil
	})
	b.logRun("commit", report.RunID, report.Total, report.Failed)
	return report
}

func (b *BatchProcessor) GenerateAll(inputs []GenerateInput) BatchReport[domain.TransformationProof] {
	report := Run(inputs, b.opts.Concurrency, func(in GenerateInput) (domain.TransformationProof, error) {
		return b.generator.GenerateProof(in.Original, in.Transformed, in.Spec, nil)
	})
	b.logRun("generate", report.RunID, report.Total, report.Failed)
	return report
}

func (b *BatchProcessor) VerifyAll(inputs []VerifyInput) BatchReport[VerificationReport] {
	report := Run(inputs, b.opts.Concurrency, func(in VerifyInput) (VerificationReport, error) {
		return b.verifier.Verify(in.Proof, in.TransformedBytes), nil
	})
	b.logRun("verify", report.RunID, report.Total, report.Failed)
	return report
}

func (b *BatchProcessor) RevealAll(inputs []RevealInput) BatchReport[domain.RevealProof] {
	report := Run(inputs, b.opts.Concurrency, func(in RevealInput) (domain.RevealProof, error) {
		return b.reveal.GenerateProof(in.Original, in.Region)
	})
	b.logRun("reveal", report.RunID, report.Total, report.Failed)
	return report
}

func (b *BatchProcessor) RedactAll(inputs []RedactInput) BatchReport[RedactOutput] {
	report := Run(inputs, b.opts.Concurrency, func(in RedactInput) (RedactOutput, error) {
		redacted, proof, err := b.redaction.RedactWithProof(in.Original, in.Regions, in.Options)
		if err != nil {
			return RedactOutput{}, err
		}
		return RedactOutput{Redacted: redacted, Proof: proof}, nil
	})
	b.logRun("redact", report.RunID, report.Total, report.Failed)
	return report
}

func (b *BatchProcessor) logRun(op, runID string, total, failed int) {
	b.log.Info("batch run complete",
		zap.String("op", op), zap.String("run_id", runID),
		zap.Int("total", total), zap.Int("failed", failed))
}
