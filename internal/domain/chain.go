package domain

// ChainStep is one accepted transformation in an editing session. Input must
// equal the chain's running commitment at the time the step was appended.
type ChainStep struct {
	Index   int                 `json:"index"`
	Proof   TransformationProof `json:"proof"`
	Input   CommitmentSummary   `json:"input"`
	Output  CommitmentSummary   `json:"output"`
	AddedAt string              `json:"added_at"`
}

// ProofChain is built once per editing session and only ever extended by
// append. Original never changes; Running is the last step's output, or
// Original when the chain is empty.
type ProofChain struct {
	ChainID   string            `json:"chain_id"`
	Original  CommitmentSummary `json:"original"`
	Steps     []ChainStep       `json:"steps"`
	Running   CommitmentSummary `json:"running"`
	CreatedAt string            `json:"created_at"`
}

func (c ProofChain) StepCount() int {
	return len(c.Steps)
}

// Final is the commitment the chain currently stands for.
func (c ProofChain) Final() CommitmentSummary {
	if len(c.Steps) == 0 {
		return c.Original
	}
	return c.Steps[len(c.Steps)-1].Output
}
