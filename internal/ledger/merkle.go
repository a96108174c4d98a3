package ledger

import (
	"crypto/sha256"
)

// Domain separators keep leaf and interior hashes from colliding: a crafted
// payload can never masquerade as an interior node.
var (
	leafSeparator = []byte{0x00}
	nodeSeparator = []byte{0x01}
)

// LeafHash computes the ledger's content hash for stored payload bytes.
func LeafHash(data []byte) []byte {
	h := sha256.New()
	h.Write(leafSeparator)
	h.Write(data)
	return h.Sum(nil)
}

func nodeHash(left, right []byte) []byte {
	h := sha256.New()
	h.Write(nodeSeparator)
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// MerkleRoot folds ordered leaf hashes into a single root, bottom-up. Odd
// levels duplicate their last hash before pairing, the standard balancing
// rule, so the construction is deterministic for a given entry order.
// Returns nil for zero leaves; a sealed batch always has at least one.
func MerkleRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return nil
	}
	level := make([][]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, nodeHash(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}
