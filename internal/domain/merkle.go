package domain

// ProofNode is one step of a merkle inclusion path. Sibling is hex encoded so
// the node survives JSON export unchanged; IsLeft records whether the sibling
// sits to the left of the running hash when recombining.
type ProofNode struct {
	Sibling string `json:"sibling"`
	IsLeft  bool   `json:"is_left"`
}

// MerkleProof is the minimal sibling path from one leaf to the root.
type MerkleProof struct {
	LeafIndex int         `json:"leaf_index"`
	Path      []ProofNode `json:"path"`
}

func (p MerkleProof) Depth() int {
	return len(p.Path)
}
