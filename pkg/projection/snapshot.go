package projection

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
)

// Snapshot format: a small header followed by one snappy-compressed block per
// CSR section. Snapshots let a projected graph be reloaded without the
// external projection subsystem; a loaded graph is as immutable as a built one.
//
// Layout:
//
//	magic "GPRJ" | version u16 | nameLen u16 | name
//	numNodes u64 | numEdges u64 | maxDegree u64
//	7 blocks: keys, fwdOffsets, fwdTargets, fwdWeights,
//	          revOffsets, revTargets, revWeights
//	each block: compressedLen u32 | snappy data
const (
	snapshotMagic   = "GPRJ"
	snapshotVersion = 1
)

// WriteSnapshot serializes the graph to w.
func (g *Graph) WriteSnapshot(w io.Writer) error {
	var hdr [4 + 2 + 2]byte
	copy(hdr[:4], snapshotMagic)
	binary.LittleEndian.PutUint16(hdr[4:6], snapshotVersion)
	if len(g.name) > math.MaxUint16 {
		return &ProjectionError{Op: "snapshot", Graph: g.name, Cause: ErrSnapshotFormat}
	}
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(len(g.name)))
	if _, err := w.Write(hdr[:]); err != nil {
		return snapshotError(g.name, err)
	}
	if _, err := io.WriteString(w, g.name); err != nil {
		return snapshotError(g.name, err)
	}

	var counts [24]byte
	binary.LittleEndian.PutUint64(counts[0:8], uint64(g.numNodes))
	binary.LittleEndian.PutUint64(counts[8:16], uint64(g.numEdges))
	binary.LittleEndian.PutUint64(counts[16:24], uint64(g.maxDegree))
	if _, err := w.Write(counts[:]); err != nil {
		return snapshotError(g.name, err)
	}

	blocks := [][]byte{
		uint64Bytes(g.keys),
		uint32Bytes(g.fwdOffsets),
		uint32Bytes(g.fwdTargets),
		float64Bytes(g.fwdWeights),
		uint32Bytes(g.revOffsets),
		uint32Bytes(g.revTargets),
		float64Bytes(g.revWeights),
	}
	for _, raw := range blocks {
		compressed := snappy.Encode(nil, raw)
		var sz [4]byte
		binary.LittleEndian.PutUint32(sz[:], uint32(len(compressed)))
		if _, err := w.Write(sz[:]); err != nil {
			return snapshotError(g.name, err)
		}
		if _, err := w.Write(compressed); err != nil {
			return snapshotError(g.name, err)
		}
	}
	return nil
}

// ReadSnapshot deserializes a graph from r.
func ReadSnapshot(r io.Reader) (*Graph, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, snapshotError("", err)
	}
	if string(hdr[:4]) != snapshotMagic {
		return nil, &ProjectionError{Op: "snapshot", Cause: ErrSnapshotFormat}
	}
	if binary.LittleEndian.Uint16(hdr[4:6]) != snapshotVersion {
		return nil, &ProjectionError{Op: "snapshot", Cause: ErrSnapshotVersion}
	}

	nameBuf := make([]byte, binary.LittleEndian.Uint16(hdr[6:8]))
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, snapshotError("", err)
	}
	name := string(nameBuf)

	var counts [24]byte
	if _, err := io.ReadFull(r, counts[:]); err != nil {
		return nil, snapshotError(name, err)
	}

	g := &Graph{
		name:      name,
		numNodes:  int(binary.LittleEndian.Uint64(counts[0:8])),
		numEdges:  int(binary.LittleEndian.Uint64(counts[8:16])),
		maxDegree: int(binary.LittleEndian.Uint64(counts[16:24])),
	}

	blocks := make([][]byte, 7)
	for i := range blocks {
		var sz [4]byte
		if _, err := io.ReadFull(r, sz[:]); err != nil {
			return nil, snapshotError(name, err)
		}
		compressed := make([]byte, binary.LittleEndian.Uint32(sz[:]))
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, snapshotError(name, err)
		}
		raw, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, &ProjectionError{Op: "snapshot", Graph: name, Cause: fmt.Errorf("%w: %v", ErrSnapshotFormat, err)}
		}
		blocks[i] = raw
	}

	g.keys = bytesUint64(blocks[0])
	g.fwdOffsets = bytesUint32(blocks[1])
	g.fwdTargets = bytesUint32(blocks[2])
	g.fwdWeights = bytesFloat64(blocks[3])
	g.revOffsets = bytesUint32(blocks[4])
	g.revTargets = bytesUint32(blocks[5])
	g.revWeights = bytesFloat64(blocks[6])

	if len(g.keys) != g.numNodes || len(g.fwdOffsets) != g.numNodes+1 || len(g.revOffsets) != g.numNodes+1 {
		return nil, &ProjectionError{Op: "snapshot", Graph: name, Cause: ErrSnapshotFormat}
	}
	if err := checkCSR(g.fwdOffsets, g.fwdTargets, g.fwdWeights, g.numNodes); err != nil {
		return nil, &ProjectionError{Op: "snapshot", Graph: name, Cause: err}
	}
	if err := checkCSR(g.revOffsets, g.revTargets, g.revWeights, g.numNodes); err != nil {
		return nil, &ProjectionError{Op: "snapshot", Graph: name, Cause: err}
	}
	return g, nil
}

// checkCSR verifies one adjacency direction is internally consistent, so a
// truncated or corrupt snapshot fails here instead of panicking on first
// neighbor access.
func checkCSR(offsets, targets []uint32, weights []float64, numNodes int) error {
	if offsets[0] != 0 {
		return ErrSnapshotFormat
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return ErrSnapshotFormat
		}
	}
	total := int(offsets[len(offsets)-1])
	if len(targets) != total || len(weights) != total {
		return ErrSnapshotFormat
	}
	for _, v := range targets {
		if int(v) >= numNodes {
			return ErrSnapshotFormat
		}
	}
	return nil
}

// OpenSnapshot loads a snapshot file through a memory map, so large
// projections are paged in on demand during decode instead of read up front.
func OpenSnapshot(path string) (*Graph, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, snapshotError("", err)
	}
	defer ra.Close()

	return ReadSnapshot(io.NewSectionReader(ra, 0, int64(ra.Len())))
}

func snapshotError(name string, cause error) error {
	return &ProjectionError{Op: "snapshot", Graph: name, Cause: cause}
}

func uint32Bytes(s []uint32) []byte {
	buf := make([]byte, 4*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

func uint64Bytes(s []uint64) []byte {
	buf := make([]byte, 8*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint64(buf[8*i:], v)
	}
	return buf
}

func float64Bytes(s []float64) []byte {
	buf := make([]byte, 8*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func bytesUint32(buf []byte) []uint32 {
	s := make([]uint32, len(buf)/4)
	for i := range s {
		s[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return s
}

func bytesUint64(buf []byte) []uint64 {
	s := make([]uint64, len(buf)/8)
	for i := range s {
		s[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return s
}

func bytesFloat64(buf []byte) []float64 {
	s := make([]float64, len(buf)/8)
	for i := range s {
		s[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return s
}
