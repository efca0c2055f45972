// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flate

import (
	"github.com/cosnicolaou/gunzip/internal/bitstream"
)

// A huffmanTree is a binary tree which is navigated, bit-by-bit, to
// reach a symbol.
type huffmanTree struct {
	// nodes contains the interior nodes of the tree. nodes[0] is the
	// root and nextNode is the index of the next element of nodes to
	// use as the tree is being constructed.
	nodes    []huffmanNode
	nextNode int
}

// A huffmanNode is an interior node. zero and one contain indexes into
// the nodes slice of the tree, or invalidNodeValue when the child on
// that branch is a leaf, in which case the symbol is in
// zeroValue/oneValue. A child of 0 means the branch is unassigned;
// node 0 is the root and is never a child.
type huffmanNode struct {
	zero, one           uint16
	zeroValue, oneValue uint16
}

// invalidNodeValue is an invalid index which marks a leaf node in the
// tree.
const invalidNodeValue = 0xffff

// newHuffmanTree builds the canonical Huffman tree for a code-length
// vector as specified by RFC 1951 §3.2.2: shorter codes sort first
// numerically and codes of equal length are assigned in ascending
// symbol order. A zero length means the symbol is absent. A vector in
// which every length is zero yields an empty tree; decoding with it
// fails.
func newHuffmanTree(lengths []uint8) (huffmanTree, error) {
	var maxLen uint8
	var count [maxCodeLen + 1]int
	for _, l := range lengths {
		if l > maxCodeLen {
			return huffmanTree{}, StructuralError("code length out of range")
		}
		if l > 0 {
			count[l]++
			if l > maxLen {
				maxLen = l
			}
		}
	}

	// A tree for an alphabet of N symbols needs at most 2N-1 nodes; an
	// incomplete code over a tiny alphabet can chain one interior node
	// per code bit instead.
	size := 2*len(lengths) - 1
	if chain := len(lengths) + maxCodeLen; size < chain {
		size = chain
	}
	t := huffmanTree{
		nodes:    make([]huffmanNode, size),
		nextNode: 1,
	}
	if maxLen == 0 {
		return t, nil
	}

	// The starting code for each length: nextCode[b] follows all codes
	// of length b-1, left shifted one position.
	var nextCode [maxCodeLen + 1]uint32
	code := uint32(0)
	for b := uint8(1); b <= maxLen; b++ {
		code = (code + uint32(count[b-1])) << 1
		nextCode[b] = code
	}

	for i, l := range lengths {
		if l == 0 {
			continue
		}
		code := nextCode[l]
		nextCode[l]++
		if code >= 1<<l {
			return huffmanTree{}, StructuralError("over-subscribed code lengths")
		}
		if err := t.insert(uint16(i), code, l); err != nil {
			return huffmanTree{}, err
		}
	}
	return t, nil
}

// insert descends from the root following the bits of code from most
// to least significant, allocating interior nodes on demand, and
// records sym at the terminal position.
func (t *huffmanTree) insert(sym uint16, code uint32, length uint8) error {
	idx := uint16(0)
	for bit := int(length) - 1; bit >= 0; bit-- {
		node := &t.nodes[idx]
		child, value := &node.zero, &node.zeroValue
		if code>>uint(bit)&1 != 0 {
			child, value = &node.one, &node.oneValue
		}
		if bit == 0 {
			if *child != 0 {
				return StructuralError("conflicting code assignments")
			}
			*child = invalidNodeValue
			*value = sym
			return nil
		}
		switch *child {
		case invalidNodeValue:
			return StructuralError("conflicting code assignments")
		case 0:
			if t.nextNode == len(t.nodes) {
				return StructuralError("too many interior nodes")
			}
			*child = uint16(t.nextNode)
			t.nextNode++
		}
		idx = *child
	}
	return nil
}

// decode reads bits from the given bitstream reader and navigates the
// tree until a symbol is found. A branch with no child, including any
// branch of an empty tree, is malformed input.
func (t *huffmanTree) decode(br *bitstream.Reader) (uint16, error) {
	idx := uint16(0)
	for {
		node := &t.nodes[idx]
		next, value := node.zero, node.zeroValue
		if br.NextBit() != 0 {
			next, value = node.one, node.oneValue
		}
		if next == invalidNodeValue {
			return value, nil
		}
		if next == 0 {
			return 0, StructuralError("invalid huffman code")
		}
		idx = next
	}
}
