package projection

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
)

func TestSnapshotRoundtrip(t *testing.T) {
	b := NewBuilder("snapshot-test")
	if err := b.AddWeightedEdge(100, 200, 1.5); err != nil {
		t.Fatalf("AddWeightedEdge failed: %v", err)
	}
	if err := b.AddWeightedEdge(200, 300, 2.5); err != nil {
		t.Fatalf("AddWeightedEdge failed: %v", err)
	}
	b.AddNode(400) // isolated

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := g.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	loaded, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}

	assertGraphsEqual(t, g, loaded)
}

func TestOpenSnapshotFromFile(t *testing.T) {
	b := NewBuilder("file-test")
	for i := uint64(0); i < 100; i++ {
		if err := b.AddEdge(i, (i+1)%100); err != nil {
			t.Fatalf("AddEdge failed: %v", err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "graph.snap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if err := g.WriteSnapshot(f); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}

	loaded, err := OpenSnapshot(path)
	if err != nil {
		t.Fatalf("OpenSnapshot failed: %v", err)
	}

	assertGraphsEqual(t, g, loaded)
}

func TestReadSnapshotBadMagic(t *testing.T) {
	data := []byte("XXXX\x01\x00\x00\x00 trailing garbage")
	if _, err := ReadSnapshot(bytes.NewReader(data)); !errors.Is(err, ErrSnapshotFormat) {
		t.Fatalf("expected ErrSnapshotFormat, got %v", err)
	}
}

func TestReadSnapshotBadVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("GPRJ")
	buf.Write([]byte{0xFF, 0x00}) // version 255
	buf.Write([]byte{0x00, 0x00}) // empty name
	if _, err := ReadSnapshot(&buf); !errors.Is(err, ErrSnapshotVersion) {
		t.Fatalf("expected ErrSnapshotVersion, got %v", err)
	}
}

// replaceSnapshotBlock reassembles a snapshot with block index idx swapped for
// the snappy encoding of raw. Block order matches the writer: keys,
// fwdOffsets, fwdTargets, fwdWeights, revOffsets, revTargets, revWeights.
func replaceSnapshotBlock(t *testing.T, snap []byte, idx int, raw []byte) []byte {
	t.Helper()

	nameLen := int(binary.LittleEndian.Uint16(snap[6:8]))
	pos := 8 + nameLen + 24

	var out bytes.Buffer
	out.Write(snap[:pos])
	for i := 0; i < 7; i++ {
		compressedLen := int(binary.LittleEndian.Uint32(snap[pos : pos+4]))
		block := snap[pos : pos+4+compressedLen]
		pos += 4 + compressedLen

		if i == idx {
			compressed := snappy.Encode(nil, raw)
			var sz [4]byte
			binary.LittleEndian.PutUint32(sz[:], uint32(len(compressed)))
			out.Write(sz[:])
			out.Write(compressed)
			continue
		}
		out.Write(block)
	}
	return out.Bytes()
}

func TestReadSnapshotRejectsInconsistentCSR(t *testing.T) {
	g := buildTestGraph(t, "corrupt")
	var buf bytes.Buffer
	if err := g.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}
	snap := buf.Bytes()

	cases := []struct {
		name string
		idx  int
		raw  []byte
	}{
		{"empty fwdTargets", 2, nil},
		{"empty revTargets", 5, nil},
		{"fwdTarget out of range", 2, uint32Bytes([]uint32{99})},
		{"non-monotonic fwdOffsets", 1, uint32Bytes([]uint32{0, 1, 0})},
		{"fwdOffsets not starting at zero", 1, uint32Bytes([]uint32{1, 1, 1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			corrupted := replaceSnapshotBlock(t, snap, tc.idx, tc.raw)
			if _, err := ReadSnapshot(bytes.NewReader(corrupted)); !errors.Is(err, ErrSnapshotFormat) {
				t.Fatalf("expected ErrSnapshotFormat, got %v", err)
			}
		})
	}
}

func TestReadSnapshotTruncated(t *testing.T) {
	g := buildTestGraph(t, "trunc")
	var buf bytes.Buffer
	if err := g.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	data := buf.Bytes()
	if _, err := ReadSnapshot(bytes.NewReader(data[:len(data)/2])); err == nil {
		t.Fatal("expected error for truncated snapshot")
	}
}

func assertGraphsEqual(t *testing.T, want, got *Graph) {
	t.Helper()

	if got.Name() != want.Name() {
		t.Fatalf("Name = %q, want %q", got.Name(), want.Name())
	}
	if got.NumNodes() != want.NumNodes() || got.NumEdges() != want.NumEdges() {
		t.Fatalf("counts = (%d, %d), want (%d, %d)",
			got.NumNodes(), got.NumEdges(), want.NumNodes(), want.NumEdges())
	}
	if got.MaxDegree() != want.MaxDegree() {
		t.Fatalf("MaxDegree = %d, want %d", got.MaxDegree(), want.MaxDegree())
	}

	for u := uint32(0); u < uint32(want.NumNodes()); u++ {
		if got.Key(u) != want.Key(u) {
			t.Fatalf("Key(%d) = %d, want %d", u, got.Key(u), want.Key(u))
		}
		if !equalSlices(got.OutNeighbors(u), want.OutNeighbors(u)) {
			t.Fatalf("OutNeighbors(%d) = %v, want %v", u, got.OutNeighbors(u), want.OutNeighbors(u))
		}
		if !equalSlices(got.InNeighbors(u), want.InNeighbors(u)) {
			t.Fatalf("InNeighbors(%d) = %v, want %v", u, got.InNeighbors(u), want.InNeighbors(u))
		}
		for i, w := range want.OutWeights(u) {
			if got.OutWeights(u)[i] != w {
				t.Fatalf("OutWeights(%d)[%d] = %f, want %f", u, i, got.OutWeights(u)[i], w)
			}
		}
	}
}
