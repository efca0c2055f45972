// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package internal

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/klauspost/compress/gzip"
)

// Seed for the pseudorandom generator so that test corpora are stable
// across runs.
const fixedRandSeed = 0x1234

// GenPredictableRandomData generates random data starting with a fixed
// known seed.
func GenPredictableRandomData(size int) []byte {
	gen := rand.New(rand.NewSource(fixedRandSeed))
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// GzipMember compresses data as a single in-memory gzip member at the
// supplied compression level, using an encoder independent of this
// module.
func GzipMember(data []byte, level int) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw, err := gzip.NewWriterLevel(buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer for level %v: %v", level, err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress %v bytes: %v", len(data), err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close member: %v", err)
	}
	return buf.Bytes(), nil
}

// GzipMemberHeader is like GzipMember but sets the optional header
// fields from hdr.
func GzipMemberHeader(data []byte, hdr gzip.Header) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := gzip.NewWriter(buf)
	zw.Header = hdr
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress %v bytes: %v", len(data), err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close member: %v", err)
	}
	return buf.Bytes(), nil
}

// FirstN returns at most the first n bytes of b.
func FirstN(n int, b []byte) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
