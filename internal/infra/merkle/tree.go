package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"tileproof/internal/infra/hashing"
)

var (
	ErrEmptyTree      = errors.New("empty merkle tree")
	ErrInvalidHashLen = errors.New("invalid hash length")
	ErrInvalidIndex   = errors.New("invalid leaf index")
	ErrInvalidLevels  = errors.New("invalid tree levels")
)

// Node is one sibling step of an inclusion path. IsLeft records whether the
// sibling sits to the left of the running hash when recombining upward.
type Node struct {
	Sibling []byte
	IsLeft  bool
}

// BuildLevels pads the leaf list to the next power of two with the hasher's
// zero hash, then builds the tree bottom-up pairing adjacent nodes (an odd
// trailing node is paired with itself). Levels[0] is the padded leaf level;
// the final level holds the single root.
func BuildLevels(hasher hashing.TileHasher, leaves [][]byte) ([][][]byte, error) {
	level, err := cloneAndValidateLeaves(hasher, leaves)
	if err != nil {
		return nil, err
	}

	padded := padToPowerOfTwo(hasher, level)
	levels := [][][]byte{padded}
	current := padded
	for len(current) > 1 {
		next := make([][]byte, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			right := current[i]
			if i+1 < len(current) {
				right = current[i+1]
			}
			next = append(next, hasher.NodeHash(current[i], right))
		}
		levels = append(levels, next)
		current = next
	}
	return levels, nil
}

// Root builds the tree and returns only the root hash.
func Root(hasher hashing.TileHasher, leaves [][]byte) ([]byte, error) {
	levels, err := BuildLevels(hasher, leaves)
	if err != nil {
		return nil, err
	}
	return cloneHash(levels[len(levels)-1][0]), nil
}

// Proof walks from leaf leafIndex to the root collecting the sibling hash and
// orientation at each level. leafIndex addresses the unpadded leaf list.
func Proof(levels [][][]byte, leafCount int, leafIndex int) ([]Node, error) {
	if len(levels) == 0 || len(levels[0]) == 0 {
		return nil, ErrEmptyTree
	}
	if len(levels[len(levels)-1]) != 1 {
		return nil, ErrInvalidLevels
	}
	if leafIndex < 0 || leafIndex >= leafCount || leafCount > len(levels[0]) {
		return nil, ErrInvalidIndex
	}

	path := make([]Node, 0, len(levels)-1)
	index := leafIndex
	for depth := 0; depth < len(levels)-1; depth++ {
		level := levels[depth]
		siblingIndex := index ^ 1
		if siblingIndex >= len(level) {
			siblingIndex = index
		}
		path = append(path, Node{
			Sibling: cloneHash(level[siblingIndex]),
			IsLeft:  siblingIndex < index,
		})
		index /= 2
	}
	return path, nil
}

// VerifyProof recombines the leaf hash along the recorded path and compares
// the result to the expected root.
func VerifyProof(hasher hashing.TileHasher, leafHash []byte, path []Node, expectedRoot []byte) (bool, error) {
	if err := validateHash(hasher, leafHash); err != nil {
		return false, err
	}
	if err := validateHash(hasher, expectedRoot); err != nil {
		return false, err
	}
	current := cloneHash(leafHash)
	for i, node := range path {
		if err := validateHash(hasher, node.Sibling); err != nil {
			return false, fmt.Errorf("path node %d: %w", i, err)
		}
		if node.IsLeft {
			current = hasher.NodeHash(node.Sibling, current)
		} else {
			current = hasher.NodeHash(current, node.Sibling)
		}
	}
	return bytes.Equal(current, expectedRoot), nil
}

func padToPowerOfTwo(hasher hashing.TileHasher, leaves [][]byte) [][]byte {
	target := 1
	for target < len(leaves) {
		target <<= 1
	}
	if target == len(leaves) {
		return leaves
	}
	filler := hasher.ZeroHash()
	padded := make([][]byte, len(leaves), target)
	copy(padded, leaves)
	for len(padded) < target {
		padded = append(padded, cloneHash(filler))
	}
	return padded
}

func cloneAndValidateLeaves(hasher hashing.TileHasher, leaves [][]byte) ([][]byte, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	out := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		if err := validateHash(hasher, leaf); err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		out[i] = cloneHash(leaf)
	}
	return out, nil
}

func validateHash(hasher hashing.TileHasher, hash []byte) error {
	if len(hash) != hasher.Size() {
		return ErrInvalidHashLen
	}
	return nil
}

func cloneHash(hash []byte) []byte {
	if hash == nil {
		return nil
	}
	out := make([]byte, len(hash))
	copy(out, hash)
	return out
}
