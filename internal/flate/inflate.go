// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package flate decompresses DEFLATE (RFC 1951) streams held entirely
// in memory.
package flate

import (
	"errors"
	"sync"

	"github.com/cosnicolaou/gunzip/internal/bitstream"
)

// A StructuralError is returned when the compressed data is found to
// be syntactically invalid.
type StructuralError string

func (s StructuralError) Error() string {
	return "deflate data invalid: " + string(s)
}

// ErrNoSpace is returned by InflateInto when the supplied buffer is
// too small to hold the decompressed stream.
var ErrNoSpace = errors.New("flate: output buffer too small")

// Inflate decompresses the DEFLATE stream at the start of src and
// returns the decompressed bytes. sizeHint, when positive, pre-sizes
// the output buffer; the buffer grows past it as needed. Bits beyond
// the final block are ignored.
func Inflate(src []byte, sizeHint int) ([]byte, error) {
	d := &decoder{br: bitstream.New(src)}
	if sizeHint > 0 {
		d.out = make([]byte, 0, sizeHint)
	}
	if err := d.inflate(); err != nil {
		return nil, err
	}
	return d.out, nil
}

// InflateInto decompresses the DEFLATE stream at the start of src into
// dst and returns the number of bytes produced. It returns ErrNoSpace
// if dst is too small.
func InflateInto(dst, src []byte) (int, error) {
	d := &decoder{br: bitstream.New(src), out: dst, sized: true}
	if err := d.inflate(); err != nil {
		return d.n, err
	}
	return d.n, nil
}

// decoder holds the per-call state for decompressing one stream. All
// of it lives on the call path so that concurrent decodes of disjoint
// buffers cannot interfere.
type decoder struct {
	br    *bitstream.Reader
	out   []byte
	n     int
	sized bool // out is a caller-supplied region and must not grow.
}

func (d *decoder) emit(b byte) error {
	if d.sized {
		if d.n == len(d.out) {
			return ErrNoSpace
		}
		d.out[d.n] = b
		d.n++
		return nil
	}
	d.out = append(d.out, b)
	d.n++
	return nil
}

// copyMatch services a back-reference. The copy is byte-at-a-time so
// that an overlapping reference (distance < length) replicates the
// bytes written earlier in the same copy.
func (d *decoder) copyMatch(length, distance int) error {
	if distance <= 0 || distance > d.n {
		return StructuralError("invalid back-reference distance")
	}
	for i := 0; i < length; i++ {
		if err := d.emit(d.out[d.n-distance]); err != nil {
			return err
		}
	}
	return nil
}

// inflate runs the per-block state machine until a block with the
// final bit set has been consumed.
func (d *decoder) inflate() error {
	for {
		final := d.br.NextBit()
		var err error
		switch btype := d.br.ReadBits(2); btype {
		case 0:
			err = d.storedBlock()
		case 1:
			lit, dist := fixedTrees()
			err = d.huffmanBlock(lit, dist)
		case 2:
			err = d.dynamicBlock()
		default:
			err = StructuralError("reserved block type")
		}
		if err != nil {
			return err
		}
		if final == 1 {
			return nil
		}
	}
}

// storedBlock copies a raw block. The stream is padded to the next
// byte boundary, then LEN and its ones-complement NLEN precede the
// bytes themselves.
func (d *decoder) storedBlock() error {
	d.br.AlignByte()
	length := d.br.ReadBits(16)
	nlen := d.br.ReadBits(16)
	if length^0xffff != nlen {
		return StructuralError("stored block length check failed")
	}
	for i := uint32(0); i < length; i++ {
		b := byte(d.br.ReadBits(8))
		if d.br.Exhausted() {
			return StructuralError("truncated stored block")
		}
		if err := d.emit(b); err != nil {
			return err
		}
	}
	return nil
}

// huffmanBlock decodes the body of a compressed block: literals,
// end-of-block, and length/distance pairs.
func (d *decoder) huffmanBlock(lit, dist *huffmanTree) error {
	for {
		if d.br.Exhausted() {
			return StructuralError("truncated block")
		}
		sym, err := lit.decode(d.br)
		if err != nil {
			return err
		}
		switch {
		case sym < endBlockMarker:
			if err := d.emit(byte(sym)); err != nil {
				return err
			}
		case sym == endBlockMarker:
			// An end-of-block completed by the zero bits an exhausted
			// reader yields is a truncation, not a block end.
			if d.br.Exhausted() {
				return StructuralError("truncated block")
			}
			return nil
		case sym <= maxLengthCode:
			code := sym - lengthCodesStart
			length := int(lengthBase[code]) + int(d.br.ReadBits(uint(lengthExtra[code])))
			dsym, err := dist.decode(d.br)
			if err != nil {
				return err
			}
			if dsym >= numDistanceCodes {
				return StructuralError("reserved distance code")
			}
			distance := int(distanceBase[dsym]) + int(d.br.ReadBits(uint(distanceExtra[dsym])))
			if err := d.copyMatch(length, distance); err != nil {
				return err
			}
		default:
			return StructuralError("invalid literal/length symbol")
		}
	}
}

// dynamicBlock reads the code-length-of-code-lengths sub-protocol and
// builds the block's literal/length and distance trees before decoding
// its body.
func (d *decoder) dynamicBlock() error {
	hlit := int(d.br.ReadBits(5)) + 257
	hdist := int(d.br.ReadBits(5)) + 1
	hclen := int(d.br.ReadBits(4)) + 4

	var clLengths [numCodeLengths]uint8
	for i := 0; i < hclen; i++ {
		clLengths[clOrder[i]] = uint8(d.br.ReadBits(3))
	}
	clTree, err := newHuffmanTree(clLengths[:])
	if err != nil {
		return err
	}

	// The literal/length and distance code-length vectors are
	// transmitted as one sequence, so a repeat may run from the end of
	// the first into the start of the second.
	lengths := make([]uint8, hlit+hdist)
	if err := d.readCodeLengths(&clTree, lengths); err != nil {
		return err
	}
	litTree, err := newHuffmanTree(lengths[:hlit])
	if err != nil {
		return err
	}
	distTree, err := newHuffmanTree(lengths[hlit:])
	if err != nil {
		return err
	}
	return d.huffmanBlock(&litTree, &distTree)
}

// readCodeLengths fills lengths using the code-length alphabet:
// symbols 0..15 are literal lengths, 16 repeats the previous length
// 3-6 times, 17 and 18 repeat zero 3-10 and 11-138 times.
func (d *decoder) readCodeLengths(cl *huffmanTree, lengths []uint8) error {
	for i := 0; i < len(lengths); {
		if d.br.Exhausted() {
			return StructuralError("truncated code lengths")
		}
		sym, err := cl.decode(d.br)
		if err != nil {
			return err
		}
		var repeat int
		var value uint8
		switch {
		case sym <= 15:
			lengths[i] = uint8(sym)
			i++
			continue
		case sym == 16:
			if i == 0 {
				return StructuralError("repeat with no previous code length")
			}
			repeat = 3 + int(d.br.ReadBits(2))
			value = lengths[i-1]
		case sym == 17:
			repeat = 3 + int(d.br.ReadBits(3))
		case sym == 18:
			repeat = 11 + int(d.br.ReadBits(7))
		default:
			return StructuralError("invalid code length symbol")
		}
		if i+repeat > len(lengths) {
			return StructuralError("code length repeat past end of alphabet")
		}
		for ; repeat > 0; repeat-- {
			lengths[i] = value
			i++
		}
	}
	return nil
}

// The fixed-Huffman tables of RFC 1951 §3.2.6 are immutable once
// built and shared by every decode.
var (
	fixedOnce           sync.Once
	fixedLit, fixedDist huffmanTree
)

func fixedTrees() (*huffmanTree, *huffmanTree) {
	fixedOnce.Do(func() {
		var lit [maxNumLit]uint8
		for i := range lit {
			switch {
			case i < 144:
				lit[i] = 8
			case i < 256:
				lit[i] = 9
			case i < 280:
				lit[i] = 7
			default:
				lit[i] = 8
			}
		}
		var dist [maxNumDist]uint8
		for i := range dist {
			dist[i] = 5
		}
		// The fixed vectors are well formed; neither build can fail.
		fixedLit, _ = newHuffmanTree(lit[:])
		fixedDist, _ = newHuffmanTree(dist[:])
	})
	return &fixedLit, &fixedDist
}
