// Package storage implements the on-disk array format read by the batched
// label-issue finder.
//
// A file is a 16-byte header followed by rows*cols float64 values in
// row-major order:
//
//	offset 0  magic "CLGA"
//	offset 4  uint32 version
//	offset 8  uint32 rows
//	offset 12 uint32 cols
//
// All integers and values are little endian. Files are memory mapped, so
// GetChunk copies only the requested rows into memory.
package storage

import (
	"encoding/binary"
	"math"
	"os"
	"sync"
	"syscall"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

const (
	// Magic identifies an array file.
	Magic = "CLGA"
	// Version is the format version written by this package.
	Version uint32 = 1
	// HeaderSize is the byte length of the header.
	HeaderSize = 16

	elementSize = 8
)

// Array is a memory-mapped float64 matrix.
type Array struct {
	file     *os.File
	mmap     []byte
	rows     int
	cols     int
	writable bool
	mu       sync.RWMutex
}

// Create creates (or truncates) path as a zero-filled rows×cols array open
// for writing. Call Close to flush it.
func Create(path string, rows, cols int) (*Array, error) {
	if rows < 1 || cols < 1 {
		return nil, errors.NewValidationError("shape", "rows and cols must be positive", [2]int{rows, cols})
	}
	if uint64(rows) > math.MaxUint32 || uint64(cols) > math.MaxUint32 {
		return nil, errors.NewValidationError("shape", "rows and cols must fit in uint32", [2]int{rows, cols})
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create array file %s", path)
	}

	size := int64(HeaderSize) + int64(rows)*int64(cols)*elementSize
	if err := file.Truncate(size); err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to resize array file")
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to mmap array file")
	}

	copy(data[0:4], Magic)
	binary.LittleEndian.PutUint32(data[4:8], Version)
	binary.LittleEndian.PutUint32(data[8:12], uint32(rows))
	binary.LittleEndian.PutUint32(data[12:16], uint32(cols))

	return &Array{file: file, mmap: data, rows: rows, cols: cols, writable: true}, nil
}

// Open maps an existing array file read-only.
func Open(path string) (*Array, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open array file %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to stat array file")
	}
	if info.Size() < HeaderSize {
		_ = file.Close()
		return nil, errors.NewValueError("storage.Open", "file too short for array header")
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(info.Size()),
		syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to mmap array file")
	}

	a := &Array{file: file, mmap: data}
	if err := a.readHeader(info.Size()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Array) readHeader(size int64) error {
	if string(a.mmap[0:4]) != Magic {
		return errors.NewValueError("storage.Open", "bad magic, not an array file")
	}
	if v := binary.LittleEndian.Uint32(a.mmap[4:8]); v != Version {
		return errors.NewValueError("storage.Open", "unsupported array version")
	}
	a.rows = int(binary.LittleEndian.Uint32(a.mmap[8:12]))
	a.cols = int(binary.LittleEndian.Uint32(a.mmap[12:16]))
	if want := int64(HeaderSize) + int64(a.rows)*int64(a.cols)*elementSize; want != size {
		return errors.NewValueError("storage.Open", "file size does not match header shape")
	}
	return nil
}

// Rows returns the number of rows.
func (a *Array) Rows() int { return a.rows }

// Cols returns the number of columns.
func (a *Array) Cols() int { return a.cols }

// Dims returns rows and cols.
func (a *Array) Dims() (int, int) { return a.rows, a.cols }

func (a *Array) offset(row, col int) int {
	return HeaderSize + (row*a.cols+col)*elementSize
}

// GetChunk copies rows [startRow, endRow) into a new dense matrix.
func (a *Array) GetChunk(startRow, endRow int) (*mat.Dense, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if startRow < 0 || endRow > a.rows || startRow >= endRow {
		return nil, errors.NewValueError("storage.GetChunk", "invalid row range")
	}

	n := endRow - startRow
	data := make([]float64, n*a.cols)
	base := a.offset(startRow, 0)
	for i := range data {
		idx := base + i*elementSize
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.mmap[idx : idx+elementSize]))
	}
	return mat.NewDense(n, a.cols, data), nil
}

// SetChunk writes chunk starting at startRow. The array must have been
// opened with Create.
func (a *Array) SetChunk(startRow int, chunk mat.Matrix) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.writable {
		return errors.NewValueError("storage.SetChunk", "array is read-only")
	}
	rows, cols := chunk.Dims()
	if cols != a.cols {
		return errors.NewDimensionError("storage.SetChunk", a.cols, cols, 1)
	}
	if startRow < 0 || startRow+rows > a.rows {
		return errors.NewValueError("storage.SetChunk", "chunk does not fit in array")
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx := a.offset(startRow+i, j)
			binary.LittleEndian.PutUint64(a.mmap[idx:idx+elementSize], math.Float64bits(chunk.At(i, j)))
		}
	}
	return nil
}

// IterateChunks calls fn on consecutive chunks of at most chunkSize rows.
func (a *Array) IterateChunks(chunkSize int, fn func(chunk *mat.Dense, startRow int) error) error {
	if chunkSize <= 0 {
		return errors.NewValidationError("chunk_size", "must be positive", chunkSize)
	}
	for start := 0; start < a.rows; start += chunkSize {
		end := min(start+chunkSize, a.rows)
		chunk, err := a.GetChunk(start, end)
		if err != nil {
			return err
		}
		if err := fn(chunk, start); err != nil {
			return err
		}
	}
	return nil
}

// Close unmaps and closes the file.
func (a *Array) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mmap != nil {
		if err := syscall.Munmap(a.mmap); err != nil {
			return errors.Wrap(err, "failed to unmap array file")
		}
		a.mmap = nil
	}
	return a.file.Close()
}

// WriteMatrix stores m at path.
func WriteMatrix(path string, m mat.Matrix) error {
	rows, cols := m.Dims()
	a, err := Create(path, rows, cols)
	if err != nil {
		return err
	}
	if err := a.SetChunk(0, m); err != nil {
		_ = a.Close()
		return err
	}
	return a.Close()
}

// WriteLabels stores labels at path as a single-column array.
func WriteLabels(path string, labels []int) error {
	col := make([]float64, len(labels))
	for i, l := range labels {
		col[i] = float64(l)
	}
	if len(col) == 0 {
		return errors.ErrEmptyData
	}
	return WriteMatrix(path, mat.NewDense(len(col), 1, col))
}
