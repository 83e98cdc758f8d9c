package index

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"lexconnect/types"
)

var flatMagic = [4]byte{'L', 'X', 'I', 'X'}

const flatVersion = 1

// FlatIndex is an exact L2 index over densely packed float32 rows,
// persisted as a single binary file. Search is brute force, which is fine
// for a corpus of tens of thousands of chunks.
type FlatIndex struct {
	dim  int
	data []float32 // len(data) == count*dim
}

func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, types.ConfigErrorf("index dimension must be positive, got %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

func (f *FlatIndex) Dim() int { return f.dim }

func (f *FlatIndex) Count(_ context.Context) (int, error) {
	return len(f.data) / f.dim, nil
}

func (f *FlatIndex) Add(_ context.Context, vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return types.ConfigErrorf("vector dimension %d does not match index dimension %d", len(v), f.dim)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

func (f *FlatIndex) Search(_ context.Context, query []float32, topK int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, types.ConfigErrorf("query dimension %d does not match index dimension %d", len(query), f.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	n := len(f.data) / f.dim
	hits := make([]Hit, 0, n)
	for i := 0; i < n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var d float32
		for j := range row {
			diff := row[j] - query[j]
			d += diff * diff
		}
		hits = append(hits, Hit{Position: i, Distance: d})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Save writes the whole index to path. Called once after the ingestion pass.
func (f *FlatIndex) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.Write(flatMagic[:]); err != nil {
		return err
	}
	header := []uint32{flatVersion, uint32(f.dim), uint32(len(f.data) / f.dim)}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, f.data); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Sync()
}

// LoadFlatIndex reads a previously saved index. A missing file is
// ErrIndexNotFound so callers can distinguish setup errors from an
// intentionally empty corpus.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	if magic != flatMagic {
		return nil, fmt.Errorf("not a vector index file: %s", path)
	}
	var version, dim, count uint32
	for _, dst := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("read index header: %w", err)
		}
	}
	if version != flatVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}
	if dim == 0 {
		return nil, types.ConfigErrorf("index file %s has zero dimension", path)
	}

	data := make([]float32, int(dim)*int(count))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("read index rows: %w", err)
	}
	return &FlatIndex{dim: int(dim), data: data}, nil
}

// OpenOrCreateFlat loads the index at path or starts an empty one if it does
// not exist yet. Used by the loader, which legitimately starts from scratch.
func OpenOrCreateFlat(path string, dim int) (*FlatIndex, error) {
	idx, err := LoadFlatIndex(path)
	if err == nil {
		if idx.dim != dim {
			return nil, types.ConfigErrorf("existing index dimension %d does not match embedder dimension %d", idx.dim, dim)
		}
		return idx, nil
	}
	if errors.Is(err, ErrIndexNotFound) {
		return NewFlatIndex(dim)
	}
	return nil, err
}
