// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flate

// Alphabet geometry from RFC 1951. The literal/length alphabet has 288
// symbols of which 286 and 287 never appear in a conforming stream;
// the distance alphabet has 32 symbols of which 30 and 31 are
// reserved; the 19 symbol code-length alphabet describes the other two
// in dynamic blocks.
const (
	maxNumLit        = 288
	maxNumDist       = 32
	numCodeLengths   = 19
	endBlockMarker   = 256
	lengthCodesStart = 257
	maxLengthCode    = 285
	numDistanceCodes = 30

	maxCodeLen   = 15
	maxCLCodeLen = 7
)

// Length codes 257..285 map to a base length plus a number of extra
// bits read directly from the stream.
var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10,
	11, 13, 15, 17,
	19, 23, 27, 31,
	35, 43, 51, 59,
	67, 83, 99, 115,
	131, 163, 195, 227,
	258,
}

var lengthExtra = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1,
	2, 2, 2, 2,
	3, 3, 3, 3,
	4, 4, 4, 4,
	5, 5, 5, 5,
	0,
}

// Distance codes 0..29 map likewise; codes >= 4 read (code-2)/2 extra
// bits.
var distanceBase = [30]uint32{
	1, 2, 3, 4,
	5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257,
	385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193,
	12289, 16385, 24577,
}

var distanceExtra = [30]uint8{
	0, 0, 0, 0,
	1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7,
	7, 8, 8, 9, 9, 10, 10, 11, 11, 12,
	12, 13, 13,
}

// Order in which dynamic blocks transmit the code lengths of the
// code-length alphabet itself.
var clOrder = [numCodeLengths]uint8{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}
