package stream

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// MmapSource is an io.ReadCloser over a file's entire contents, mapped into
// memory read-only rather than copied through a buffered read loop. Useful
// for large grammar containers or input files that a Driver would otherwise
// have to stream through its growable buffer in MinNewData-sized chunks.
type MmapSource struct {
	data []byte
	pos  int
}

// OpenMmap mmaps the file at path read-only and returns a MmapSource ready
// to Read. Close must be called to release the mapping.
func OpenMmap(path string) (*MmapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return &MmapSource{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &MmapSource{data: data}, nil
}

// Read implements io.Reader over the mapped region.
func (m *MmapSource) Read(p []byte) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Close unmaps the backing memory region. Safe to call on a zero-length
// MmapSource (OpenMmap never mapped anything).
func (m *MmapSource) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
