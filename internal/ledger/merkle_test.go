package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerkleRoot(t *testing.T) {
	t.Run("empty input yields no root", func(t *testing.T) {
		assert.Nil(t, MerkleRoot(nil))
	})

	t.Run("single leaf promotes to root", func(t *testing.T) {
		leaf := LeafHash([]byte("only"))
		assert.Equal(t, leaf, MerkleRoot([][]byte{leaf}))
	})

	t.Run("deterministic over identical leaves", func(t *testing.T) {
		leaves := [][]byte{
			LeafHash([]byte("a")),
			LeafHash([]byte("b")),
			LeafHash([]byte("c")),
		}
		require.Equal(t, MerkleRoot(leaves), MerkleRoot(leaves))
	})

	t.Run("odd layer duplicates the last leaf", func(t *testing.T) {
		a, b, c := LeafHash([]byte("a")), LeafHash([]byte("b")), LeafHash([]byte("c"))
		want := nodeHash(nodeHash(a, b), nodeHash(c, c))
		assert.Equal(t, want, MerkleRoot([][]byte{a, b, c}))
	})

	t.Run("leaf order matters", func(t *testing.T) {
		a, b := LeafHash([]byte("a")), LeafHash([]byte("b"))
		assert.NotEqual(t, MerkleRoot([][]byte{a, b}), MerkleRoot([][]byte{b, a}))
	})

	t.Run("leaf and node hashing are domain separated", func(t *testing.T) {
		left, right := LeafHash([]byte("l")), LeafHash([]byte("r"))
		concat := append(append([]byte{}, left...), right...)
		assert.NotEqual(t, LeafHash(concat), nodeHash(left, right))
	})
}
