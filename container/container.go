// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package container implements a batch archive format for independently
// serialized formula packets: a sequence of packets length-prefixed
// into one stream, then compressed as a whole. It supplements the
// engine's core one-packet-at-a-time public API with the batching story
// a real deployment needs to avoid paying a compressor's fixed overhead
// once per record.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/elh/formula/compr"
	"github.com/elh/formula/internal/ints"
)

const magic = "FMCN"

// Writer accumulates packets into one uncompressed stream and produces
// a compressed archive on Close.
type Writer struct {
	algorithm  string
	compressor compr.Compressor
	buf        []byte
	offsets    ints.Intervals
}

// NewWriter returns a Writer that will compress the final archive with
// the named algorithm ("zstd", "zstd-better", or "s2" — see
// compr.Compression).
func NewWriter(algorithm string) (*Writer, error) {
	c := compr.Compression(algorithm)
	if c == nil {
		return nil, fmt.Errorf("container: unknown compression algorithm %q", algorithm)
	}
	return &Writer{algorithm: algorithm, compressor: c}, nil
}

// Append adds one already-serialized packet (as produced by
// formula.Serialize, formula.SerializeToVec, ...) to the stream.
func (w *Writer) Append(packet []byte) {
	start := len(w.buf)
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(packet)))
	w.buf = append(w.buf, prefix[:]...)
	w.buf = append(w.buf, packet...)
	w.offsets = append(w.offsets, ints.Interval{Start: start + 4, End: len(w.buf)})
}

// Len returns the number of packets appended so far.
func (w *Writer) Len() int { return len(w.offsets) }

// ChunkCount reports how many reader-side chunks of chunkSize packets
// each would be needed to cover everything appended so far, for
// callers that want to plan parallel decompression work ahead of time.
func (w *Writer) ChunkCount(chunkSize int) int {
	if chunkSize <= 0 || len(w.offsets) == 0 {
		return 0
	}
	return int(ints.ChunkCount(uint64(len(w.offsets)), uint64(chunkSize)))
}

// Close compresses the accumulated stream and returns the archive
// bytes, ready to be written out or handed to Open.
func (w *Writer) Close() []byte {
	compressed := w.compressor.Compress(w.buf, nil)
	return encodeHeader(w.compressor.Name(), len(w.offsets), len(w.buf), compressed)
}

// Reader inverts Writer: it decompresses an archive once and hands
// back packets by index, or a contiguous byte range spanning several
// packets for bulk scanning.
type Reader struct {
	data    []byte
	offsets ints.Intervals
}

// Open decompresses archive and indexes its packets.
func Open(archive []byte) (*Reader, error) {
	algorithm, count, uncompressedLen, payload, err := decodeHeader(archive)
	if err != nil {
		return nil, err
	}
	dec := compr.Decompression(algorithm)
	if dec == nil {
		return nil, fmt.Errorf("container: unknown compression algorithm %q", algorithm)
	}
	data := make([]byte, uncompressedLen)
	if uncompressedLen > 0 {
		if err := dec.Decompress(payload, data); err != nil {
			return nil, fmt.Errorf("container: decompress: %w", err)
		}
	}
	offsets := make(ints.Intervals, 0, count)
	pos := 0
	for i := 0; i < count; i++ {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("container: truncated packet directory")
		}
		n := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		start := pos
		pos += n
		if pos > len(data) {
			return nil, fmt.Errorf("container: truncated packet %d", i)
		}
		offsets = append(offsets, ints.Interval{Start: start, End: pos})
	}
	return &Reader{data: data, offsets: offsets}, nil
}

// Len returns the number of packets in the archive.
func (r *Reader) Len() int { return len(r.offsets) }

// Packet returns the raw bytes of the i'th packet, suitable for
// formula.Deserialize.
func (r *Reader) Packet(i int) []byte {
	iv := r.offsets[i]
	return r.data[iv.Start:iv.End]
}

// Range returns the contiguous decompressed bytes spanning packets
// [start, end), length-prefixes included, for a caller that wants to
// re-chunk or forward a sub-range without touching individual packets.
func (r *Reader) Range(start, end int) []byte {
	if start >= end || start < 0 || end > len(r.offsets) {
		return nil
	}
	lo := r.offsets[start].Start - 4
	hi := r.offsets[end-1].End
	return r.data[lo:hi]
}

// encodeHeader writes: magic(4) | algorithm length(1) | algorithm bytes
// | packet count(4) | uncompressed length(8) | compressed payload.
func encodeHeader(algorithm string, count, uncompressedLen int, payload []byte) []byte {
	out := make([]byte, 0, 4+1+len(algorithm)+4+8+len(payload))
	out = append(out, magic...)
	out = append(out, byte(len(algorithm)))
	out = append(out, algorithm...)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(count))
	out = append(out, countBuf[:]...)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(uncompressedLen))
	out = append(out, lenBuf[:]...)
	return append(out, payload...)
}

func decodeHeader(archive []byte) (algorithm string, count, uncompressedLen int, payload []byte, err error) {
	if len(archive) < len(magic)+1 || string(archive[:len(magic)]) != magic {
		return "", 0, 0, nil, fmt.Errorf("container: not an archive (bad magic)")
	}
	pos := len(magic)
	algoLen := int(archive[pos])
	pos++
	if pos+algoLen+4+8 > len(archive) {
		return "", 0, 0, nil, fmt.Errorf("container: truncated header")
	}
	algorithm = string(archive[pos : pos+algoLen])
	pos += algoLen
	count = int(binary.LittleEndian.Uint32(archive[pos : pos+4]))
	pos += 4
	uncompressedLen = int(binary.LittleEndian.Uint64(archive[pos : pos+8]))
	pos += 8
	return algorithm, count, uncompressedLen, archive[pos:], nil
}
