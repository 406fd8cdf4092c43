package common

import (
	"encoding/hex"
	"testing"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	n := 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 2*n {
		t.Fatalf("len = %d, want %d", len(s), 2*n)
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "" {
		t.Fatalf("got %q, want empty", s)
	}
}

func TestMakeRandHexString_EntropyHint(t *testing.T) {
	n := 16
	a, err := MakeRandHexString(n)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MakeRandHexString(n)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Logf("warning: two MakeRandHexString(%d) results are identical; extremely unlikely", n)
	}
}
