package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tileproof/internal/domain"
)

// ChainManager builds append-only proof chains for multi-step editing
// sessions. Each appended proof must take the chain's running commitment as
// its input; anything else is a discontinuity and the append is refused.
type ChainManager struct {
	mu    sync.Mutex
	chain domain.ProofChain
	log   *zap.Logger
}

// NewChainManager opens a chain anchored at the original commitment.
func NewChainManager(original domain.CommitmentSummary, logger *zap.Logger) *ChainManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainManager{
		chain: domain.ProofChain{
			ChainID:   uuid.NewString(),
			Original:  original,
			Steps:     []domain.ChainStep{},
			Running:   original,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		log: logger,
	}
}

// AddProof appends a step. The proof's original root must equal the running
// commitment's root or the chain would silently fork.
func (m *ChainManager) AddProof(proof domain.TransformationProof) (domain.ChainStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if proof.Original.Root != m.chain.Running.Root {
		return domain.ChainStep{}, fmt.Errorf("%w: step input %s does not match running commitment %s",
			domain.ErrChainDiscontinuity, proof.Original.Root, m.chain.Running.Root)
	}

	step := domain.ChainStep{
		Index:   len(m.chain.Steps),
		Proof:   proof,
		Input:   m.chain.Running,
		Output:  proof.Transformed,
		AddedAt: time.Now().UTC().Format(time.RFC3339),
	}
	m.chain.Steps = append(m.chain.Steps, step)
	m.chain.Running = proof.Transformed

	m.log.Debug("chain step appended",
		zap.String("chain_id", m.chain.ChainID),
		zap.Int("index", step.Index),
		zap.String("kind", string(proof.Kind)))
	return step, nil
}

// Chain returns a snapshot; the steps slice is copied so callers cannot
// mutate accepted history.
func (m *ChainManager) Chain() domain.ProofChain {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.chain
	snapshot.Steps = make([]domain.ChainStep, len(m.chain.Steps))
	copy(snapshot.Steps, m.chain.Steps)
	return snapshot
}

// VerifyChain replays the linkage invariant over a chain, typically one that
// was round-tripped through export.
func VerifyChain(chain domain.ProofChain) error {
	running := chain.Original.Root
	for i, step := range chain.Steps {
		if step.Index != i {
			return fmt.Errorf("%w: step %d carries index %d", domain.ErrChainDiscontinuity, i, step.Index)
		}
		if step.Input.Root != running || step.Proof.Original.Root != running {
			return fmt.Errorf("%w: step %d input does not match prior output", domain.ErrChainDiscontinuity, i)
		}
		if step.Output.Root != step.Proof.Transformed.Root {
			return fmt.Errorf("%w: step %d output does not match its proof", domain.ErrChainDiscontinuity, i)
		}
		running = step.Output.Root
	}
	if chain.Running.Root != running {
		return fmt.Errorf("%w: running commitment does not match final step", domain.ErrChainDiscontinuity)
	}
	return nil
}
