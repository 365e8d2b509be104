package sim

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// FlashStats counts destructive flash operations.
type FlashStats struct {
	Erases   int
	Programs int
}

// nor holds the sector image and applies NOR semantics to it: erase sets
// every byte to hal.ErasedByte, program can only clear bits.
type nor struct {
	data      []byte
	pageSize  int
	stats     FlashStats
	faultNext error
}

func newNOR(sectorSize, pageSize int) (*nor, error) {
	if sectorSize <= 0 || pageSize <= 0 || sectorSize%pageSize != 0 {
		return nil, fmt.Errorf("%w: sector %d, page %d", pkg.ErrInvalidGeometry, sectorSize, pageSize)
	}
	n := &nor{data: make([]byte, sectorSize), pageSize: pageSize}
	n.erase()
	return n, nil
}

func (n *nor) erase() {
	for i := range n.data {
		n.data[i] = hal.ErasedByte
	}
}

func (n *nor) readAt(buf []byte, offset int) error {
	if offset < 0 || offset+len(buf) > len(n.data) {
		return fmt.Errorf("%w: read %d bytes at %d", pkg.ErrOutOfRange, len(buf), offset)
	}
	copy(buf, n.data[offset:])
	return nil
}

func (n *nor) checkProgram(offset int, data []byte) error {
	if offset < 0 || offset%n.pageSize != 0 || offset+n.pageSize > len(n.data) {
		return fmt.Errorf("%w: program page at %d", pkg.ErrOutOfRange, offset)
	}
	if len(data) != n.pageSize {
		return fmt.Errorf("%w: program %d bytes, page is %d", pkg.ErrBufferTooSmall, len(data), n.pageSize)
	}
	return nil
}

func (n *nor) program(offset int, data []byte) {
	for i, b := range data {
		n.data[offset+i] &= b
	}
}

func (n *nor) takeFault() error {
	err := n.faultNext
	n.faultNext = nil
	return err
}

// MemoryFlash is an in-memory NOR flash sector.
type MemoryFlash struct {
	mutex sync.Mutex
	nor   *nor
}

// NewMemoryFlash creates an erased in-memory sector.
func NewMemoryFlash(sectorSize, pageSize int) (*MemoryFlash, error) {
	n, err := newNOR(sectorSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &MemoryFlash{nor: n}, nil
}

// SectorSize returns the sector size.
func (m *MemoryFlash) SectorSize() int {
	return len(m.nor.data)
}

// PageSize returns the page size.
func (m *MemoryFlash) PageSize() int {
	return m.nor.pageSize
}

// ReadAt reads len(buf) bytes at offset.
func (m *MemoryFlash) ReadAt(buf []byte, offset int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.nor.readAt(buf, offset)
}

// EraseSector fills the sector with hal.ErasedByte.
func (m *MemoryFlash) EraseSector() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.nor.takeFault(); err != nil {
		return err
	}
	m.nor.erase()
	m.nor.stats.Erases++
	return nil
}

// ProgramPage ANDs data into the page at offset.
func (m *MemoryFlash) ProgramPage(offset int, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.nor.checkProgram(offset, data); err != nil {
		return err
	}
	if err := m.nor.takeFault(); err != nil {
		return err
	}
	m.nor.program(offset, data)
	m.nor.stats.Programs++
	return nil
}

// Stats returns the number of erases and programs performed so far.
func (m *MemoryFlash) Stats() FlashStats {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.nor.stats
}

// Bytes returns a copy of the sector image.
func (m *MemoryFlash) Bytes() []byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]byte(nil), m.nor.data...)
}

// FailNext makes the next erase or program return err without touching
// the sector.
func (m *MemoryFlash) FailNext(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nor.faultNext = err
}

// FileFlash is a NOR flash sector backed by an image file, so calibration
// survives simulator restarts. Every erase and program is written through.
type FileFlash struct {
	mutex sync.Mutex
	file  *os.File
	nor   *nor
}

// OpenFileFlash opens the sector image at path, creating an erased image
// when the file does not exist. An existing image must be exactly
// sectorSize bytes.
func OpenFileFlash(path string, sectorSize, pageSize int) (*FileFlash, error) {
	n, err := newNOR(sectorSize, pageSize)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	switch stat.Size() {
	case 0:
		if _, err := file.WriteAt(n.data, 0); err != nil {
			file.Close()
			return nil, fmt.Errorf("initialize flash image: %w", err)
		}
	case int64(sectorSize):
		if _, err := io.ReadFull(io.NewSectionReader(file, 0, int64(sectorSize)), n.data); err != nil {
			file.Close()
			return nil, fmt.Errorf("read flash image: %w", err)
		}
	default:
		file.Close()
		return nil, fmt.Errorf("%w: image %s is %d bytes, sector is %d",
			pkg.ErrInvalidGeometry, path, stat.Size(), sectorSize)
	}

	pkg.LogDebug(pkg.ComponentHAL, "flash image opened", "path", path, "size", sectorSize)
	return &FileFlash{file: file, nor: n}, nil
}

// SectorSize returns the sector size.
func (f *FileFlash) SectorSize() int {
	return len(f.nor.data)
}

// PageSize returns the page size.
func (f *FileFlash) PageSize() int {
	return f.nor.pageSize
}

// ReadAt reads len(buf) bytes at offset.
func (f *FileFlash) ReadAt(buf []byte, offset int) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.nor.readAt(buf, offset)
}

// EraseSector fills the sector with hal.ErasedByte and writes it through.
func (f *FileFlash) EraseSector() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nor.erase()
	f.nor.stats.Erases++
	_, err := f.file.WriteAt(f.nor.data, 0)
	return err
}

// ProgramPage ANDs data into the page at offset and writes it through.
func (f *FileFlash) ProgramPage(offset int, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.nor.checkProgram(offset, data); err != nil {
		return err
	}
	f.nor.program(offset, data)
	f.nor.stats.Programs++
	_, err := f.file.WriteAt(f.nor.data[offset:offset+f.nor.pageSize], int64(offset))
	return err
}

// Stats returns the number of erases and programs performed so far.
func (f *FileFlash) Stats() FlashStats {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.nor.stats
}

// Sync flushes the image to disk.
func (f *FileFlash) Sync() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.file.Sync()
}

// Close closes the underlying file.
func (f *FileFlash) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.file.Close()
}

// Compile-time interface checks
var (
	_ hal.Flash = (*MemoryFlash)(nil)
	_ hal.Flash = (*FileFlash)(nil)
)
