package prooflog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Root computes the binary Merkle root of an ordered list of hex-encoded
// hashes. The tree is built over the list exactly as given: reordering
// leaves changes the root.
//
//   - empty list: the root is SHA-256 of the empty byte sequence, so the
//     root is defined for every run including an empty one.
//   - single leaf: the root is the leaf itself (hex case normalized).
//   - otherwise: adjacent pairs are combined left to right by hashing the
//     concatenation of their raw bytes; an odd layer carries its last
//     element by pairing it with itself.
func Root(hashes []string) (string, error) {
	if len(hashes) == 0 {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:]), nil
	}

	layer := make([][]byte, len(hashes))
	for i, h := range hashes {
		b, err := hex.DecodeString(h)
		if err != nil {
			return "", fmt.Errorf("leaf %d: %w", i, err)
		}
		layer[i] = b
	}

	for len(layer) > 1 {
		next := make([][]byte, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			left := layer[i]
			right := left
			if i+1 < len(layer) {
				right = layer[i+1]
			}
			h := sha256.New()
			h.Write(left)
			h.Write(right)
			next = append(next, h.Sum(nil))
		}
		layer = next
	}

	return hex.EncodeToString(layer[0]), nil
}
