// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package gunzip

import (
	"encoding/binary"
	"fmt"
	"time"
)

// GZIP member layout, per RFC 1952.
//
//	.magic:16     = 0x1f, 0x8b
//	.cm:8         = 8 for deflate
//	.flg:8        = FTEXT, FHCRC, FEXTRA, FNAME, FCOMMENT
//	.mtime:32     .xfl:8  .os:8
//	[.xlen:16 .extra]  [.name\0]  [.comment\0]  [.hcrc:16]
//	... deflate stream ...
//	.crc32:32     .isize:32
const (
	gzipMagic0    = 0x1f
	gzipMagic1    = 0x8b
	methodDeflate = 8

	flagText      = 1 << 0
	flagHeaderCRC = 1 << 1
	flagExtra     = 1 << 2
	flagName      = 1 << 3
	flagComment   = 1 << 4

	baseHeaderSize = 10
	trailerSize    = 8
)

// Header records the fields of a GZIP member header. The optional
// fields are empty when the corresponding FLG bit is clear.
type Header struct {
	Name    string    // FNAME, original file name
	Comment string    // FCOMMENT
	Extra   []byte    // FEXTRA payload, excluding the XLEN prefix
	ModTime time.Time // MTIME, zero when the member records none
	OS      byte      // originating operating system
	Text    bool      // FTEXT, content claimed to be text
}

// ParseHeader parses the GZIP member header at the start of input. It
// returns the header and the offset of the first byte of the deflate
// stream. Reserved FLG bits are accepted.
func ParseHeader(input []byte) (Header, int, error) {
	var hdr Header
	if len(input) < 2 {
		return hdr, 0, fmt.Errorf("%w: %v byte header", ErrCorrupt, len(input))
	}
	if input[0] != gzipMagic0 || input[1] != gzipMagic1 {
		return hdr, 0, fmt.Errorf("%w: %02x%02x", ErrMagic, input[0], input[1])
	}
	if len(input) < baseHeaderSize {
		return hdr, 0, fmt.Errorf("%w: %v byte header", ErrCorrupt, len(input))
	}
	if cm := input[2]; cm != methodDeflate {
		return hdr, 0, fmt.Errorf("%w: method %v", ErrMethod, cm)
	}
	flg := input[3]
	if mtime := binary.LittleEndian.Uint32(input[4:8]); mtime != 0 {
		hdr.ModTime = time.Unix(int64(mtime), 0)
	}
	hdr.OS = input[9]
	hdr.Text = flg&flagText != 0

	n := baseHeaderSize
	if flg&flagExtra != 0 {
		if len(input) < n+2 {
			return hdr, 0, fmt.Errorf("%w: truncated extra field", ErrCorrupt)
		}
		xlen := int(binary.LittleEndian.Uint16(input[n : n+2]))
		n += 2
		if len(input) < n+xlen {
			return hdr, 0, fmt.Errorf("%w: truncated extra field", ErrCorrupt)
		}
		hdr.Extra = append([]byte(nil), input[n:n+xlen]...)
		n += xlen
	}
	var err error
	if flg&flagName != 0 {
		if hdr.Name, n, err = readTerminated(input, n); err != nil {
			return hdr, 0, fmt.Errorf("%w: unterminated name", ErrCorrupt)
		}
	}
	if flg&flagComment != 0 {
		if hdr.Comment, n, err = readTerminated(input, n); err != nil {
			return hdr, 0, fmt.Errorf("%w: unterminated comment", ErrCorrupt)
		}
	}
	if flg&flagHeaderCRC != 0 {
		if len(input) < n+2 {
			return hdr, 0, fmt.Errorf("%w: truncated header crc", ErrCorrupt)
		}
		n += 2
	}
	return hdr, n, nil
}

// readTerminated consumes bytes up to and including the first zero
// byte and returns them as a string.
func readTerminated(input []byte, pos int) (string, int, error) {
	for i := pos; i < len(input); i++ {
		if input[i] == 0 {
			return string(input[pos:i]), i + 1, nil
		}
	}
	return "", pos, fmt.Errorf("missing terminator")
}

// PeekSize returns the decompressed size recorded in the member
// trailer (ISIZE, the size modulo 2^32), or 0 if the input is too
// short to carry a header and trailer. It can be used to size the
// output region passed to DecodeInto.
func PeekSize(input []byte) uint32 {
	if len(input) < baseHeaderSize+trailerSize {
		return 0
	}
	return binary.LittleEndian.Uint32(input[len(input)-4:])
}

// frame locates the deflate payload and the 8 byte trailer.
func frame(input []byte) (payload, trailer []byte, err error) {
	_, n, err := ParseHeader(input)
	if err != nil {
		return nil, nil, err
	}
	if len(input) < n+trailerSize {
		return nil, nil, fmt.Errorf("%w: missing trailer", ErrCorrupt)
	}
	return input[n : len(input)-trailerSize], input[len(input)-trailerSize:], nil
}
