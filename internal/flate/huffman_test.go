// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flate

import (
	"testing"

	"github.com/cosnicolaou/gunzip/internal/bitstream"
)

func TestCanonicalCodes(t *testing.T) {
	// The worked example from RFC 1951 §3.2.2: alphabet ABCDEFGH with
	// lengths (3, 3, 3, 3, 3, 2, 4, 4) receives the codes
	// 010, 011, 100, 101, 110, 00, 1110, 1111.
	tree, err := newHuffmanTree([]uint8{3, 3, 3, 3, 3, 2, 4, 4})
	if err != nil {
		t.Fatal(err)
	}
	codes := []struct {
		code   uint32
		length uint8
		sym    uint16
	}{
		{0x2, 3, 0}, {0x3, 3, 1}, {0x4, 3, 2}, {0x5, 3, 3},
		{0x6, 3, 4}, {0x0, 2, 5}, {0xe, 4, 6}, {0xf, 4, 7},
	}
	wr := &bitWriter{}
	for _, c := range codes {
		wr.writeCode(c.code, uint(c.length))
	}
	rd := bitstream.New(wr.bytes())
	for _, c := range codes {
		sym, err := tree.decode(rd)
		if err != nil {
			t.Fatalf("code %#x: %v", c.code, err)
		}
		if got, want := sym, c.sym; got != want {
			t.Errorf("code %#x: got symbol %v, want %v", c.code, got, want)
		}
	}
}

func TestSingleCode(t *testing.T) {
	// One symbol of length one: a zero bit reaches it, a one bit has
	// no leaf to land on.
	tree, err := newHuffmanTree([]uint8{0, 0, 0, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	rd := bitstream.New([]byte{0x00})
	sym, err := tree.decode(rd)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sym, uint16(5); got != want {
		t.Errorf("got symbol %v, want %v", got, want)
	}
	rd = bitstream.New([]byte{0x01})
	if _, err := tree.decode(rd); err == nil {
		t.Errorf("expected an error for the unassigned branch")
	}
}

func TestEmptyTree(t *testing.T) {
	tree, err := newHuffmanTree(make([]uint8, 19))
	if err != nil {
		t.Fatal(err)
	}
	rd := bitstream.New([]byte{0x00})
	if _, err := tree.decode(rd); err == nil {
		t.Errorf("expected an error decoding with an empty tree")
	}
}

func TestMalformedLengths(t *testing.T) {
	for _, tc := range []struct {
		name    string
		lengths []uint8
	}{
		{"over-subscribed", []uint8{1, 1, 1}},
		{"over-subscribed deep", []uint8{2, 2, 2, 2, 1}},
		{"length out of range", []uint8{16, 0, 0}},
	} {
		if _, err := newHuffmanTree(tc.lengths); err == nil {
			t.Errorf("%v: expected an error", tc.name)
		}
	}
}

func TestDeepChain(t *testing.T) {
	// A single maximally long code over a tiny alphabet exercises the
	// interior-node chain allocation.
	tree, err := newHuffmanTree([]uint8{15})
	if err != nil {
		t.Fatal(err)
	}
	wr := &bitWriter{}
	wr.writeCode(0, 15)
	sym, err := tree.decode(bitstream.New(wr.bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sym, uint16(0); got != want {
		t.Errorf("got symbol %v, want %v", got, want)
	}
}
