package prooflog

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func hashPair(left, right string) string {
	lb, _ := hex.DecodeString(left)
	rb, _ := hex.DecodeString(right)
	sum := sha256.Sum256(append(lb, rb...))
	return hex.EncodeToString(sum[:])
}

func TestRootEmpty(t *testing.T) {
	sum := sha256.Sum256(nil)
	want := hex.EncodeToString(sum[:])

	got, err := Root(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Root(nil) = %s, want %s", got, want)
	}
}

func TestRootSingle(t *testing.T) {
	h := strings.Repeat("ab", 32)
	got, err := Root([]string{h})
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("Root([h]) = %s, want %s", got, h)
	}

	// Hex case is normalized on the way through.
	upper := strings.ToUpper(h)
	got, err = Root([]string{upper})
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("Root([upper]) = %s, want %s", got, h)
	}
}

func TestRootPair(t *testing.T) {
	h1 := strings.Repeat("00", 32)
	h2 := strings.Repeat("01", 32)
	want := hashPair(h1, h2)

	got, err := Root([]string{h1, h2})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Root([h1,h2]) = %s, want %s", got, want)
	}
}

func TestRootOddLayerDuplicatesLast(t *testing.T) {
	h1 := strings.Repeat("00", 32)
	h2 := strings.Repeat("01", 32)
	h3 := strings.Repeat("02", 32)
	want := hashPair(hashPair(h1, h2), hashPair(h3, h3))

	got, err := Root([]string{h1, h2, h3})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Root([h1,h2,h3]) = %s, want %s", got, want)
	}
}

func TestRootPureAndOrderSensitive(t *testing.T) {
	hashes := []string{
		strings.Repeat("0a", 32),
		strings.Repeat("0b", 32),
		strings.Repeat("0c", 32),
		strings.Repeat("0d", 32),
	}

	first, err := Root(hashes)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Root(hashes)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("repeated calls differ: %s vs %s", first, second)
	}

	swapped := []string{hashes[1], hashes[0], hashes[2], hashes[3]}
	other, err := Root(swapped)
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Error("permuting leaves did not change the root")
	}
}

func TestRootInvalidHex(t *testing.T) {
	if _, err := Root([]string{"not-hex"}); err == nil {
		t.Error("expected error for invalid hex leaf")
	}
	if _, err := Root([]string{strings.Repeat("00", 32), "zz"}); err == nil {
		t.Error("expected error for invalid hex leaf in second position")
	}
}
