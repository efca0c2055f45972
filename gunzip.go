// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package gunzip decompresses GZIP (RFC 1952) members held entirely in
// memory. The whole compressed input must be present; the decoder
// performs no I/O, keeps no state between calls and is safe for
// concurrent use on disjoint buffers. Decoding stops at the end of the
// first member; trailing bytes, including any concatenated members,
// are ignored.
package gunzip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/cosnicolaou/gunzip/internal/flate"
)

var (
	// ErrMagic indicates that the input does not start with the two
	// GZIP magic bytes.
	ErrMagic = errors.New("gunzip: invalid magic number")

	// ErrMethod indicates a compression method other than deflate.
	ErrMethod = errors.New("gunzip: unsupported compression method")

	// ErrCorrupt indicates structurally invalid input: a damaged
	// header, a malformed deflate stream or a truncated member. The
	// wrapped error carries the detail.
	ErrCorrupt = errors.New("gunzip: invalid compressed data")

	// ErrNoSpace is returned by DecodeInto when the supplied output
	// region is too small for the decompressed member.
	ErrNoSpace = errors.New("gunzip: output buffer too small")
)

type decodeOpts struct {
	verifyChecksum bool
}

// DecodeOption represents an option to Decode and DecodeInto.
type DecodeOption func(*decodeOpts)

// VerifyChecksum verifies the member trailer after a successful
// decode: the CRC-32 of the decompressed bytes and the recorded size
// (modulo 2^32) must both match. A mismatch is reported as ErrCorrupt.
// Verification assumes the input holds a single member since the
// trailer is taken from the end of the input.
func VerifyChecksum() DecodeOption {
	return func(o *decodeOpts) {
		o.verifyChecksum = true
	}
}

// maxExpansion is the worst-case deflate expansion ratio, 1032:1 (a
// 258 byte match can be coded in two bits). It bounds the allocation
// implied by the untrusted ISIZE trailer field.
const maxExpansion = 1032

// Decode decompresses the GZIP member at the start of input and
// returns the decompressed bytes. The output buffer is sized from the
// member trailer and grows if the trailer under-reports.
func Decode(input []byte, opts ...DecodeOption) ([]byte, error) {
	o := applyOpts(opts)
	payload, trailer, err := frame(input)
	if err != nil {
		return nil, err
	}
	hint := int(PeekSize(input))
	if limit := len(payload)*maxExpansion + 64; hint > limit {
		hint = limit
	}
	out, err := flate.Inflate(payload, hint)
	if err != nil {
		return nil, mapFlateError(err)
	}
	if o.verifyChecksum {
		if err := checkTrailer(trailer, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeInto decompresses the GZIP member at the start of input into
// dst and returns the number of bytes produced. PeekSize reports the
// size dst needs; ErrNoSpace is returned if dst is smaller than the
// member decompresses to.
func DecodeInto(dst, input []byte, opts ...DecodeOption) (int, error) {
	o := applyOpts(opts)
	payload, trailer, err := frame(input)
	if err != nil {
		return 0, err
	}
	n, err := flate.InflateInto(dst, payload)
	if err != nil {
		return n, mapFlateError(err)
	}
	if o.verifyChecksum {
		if err := checkTrailer(trailer, dst[:n]); err != nil {
			return n, err
		}
	}
	return n, nil
}

func applyOpts(opts []DecodeOption) decodeOpts {
	var o decodeOpts
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func mapFlateError(err error) error {
	if errors.Is(err, flate.ErrNoSpace) {
		return ErrNoSpace
	}
	return fmt.Errorf("%w: %v", ErrCorrupt, err)
}

func checkTrailer(trailer, out []byte) error {
	if got, want := crc32.ChecksumIEEE(out), binary.LittleEndian.Uint32(trailer[:4]); got != want {
		return fmt.Errorf("%w: mismatched CRCs: calculated=0x%08x != stored=0x%08x", ErrCorrupt, got, want)
	}
	if got, want := uint32(len(out)), binary.LittleEndian.Uint32(trailer[4:]); got != want {
		return fmt.Errorf("%w: mismatched sizes: produced=%v != stored=%v", ErrCorrupt, got, want)
	}
	return nil
}
