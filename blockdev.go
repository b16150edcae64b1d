package fat

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"
)

// BytesBlocks is a BlockDevice backed by a byte slice. Useful for RAM disks
// and tests.
type BytesBlocks struct {
	buf []byte
}

// NewBytesBlocks returns a zeroed in-memory device of numBlocks 512 byte blocks.
func NewBytesBlocks(numBlocks int) *BytesBlocks {
	return &BytesBlocks{buf: make([]byte, blockSize*numBlocks)}
}

func (b *BytesBlocks) ReadBlocks(dst []byte, startBlock int64) error {
	off, end, err := b.span(len(dst), startBlock)
	if err != nil {
		return err
	}
	copy(dst, b.buf[off:end])
	return nil
}

func (b *BytesBlocks) WriteBlocks(data []byte, startBlock int64) error {
	off, end, err := b.span(len(data), startBlock)
	if err != nil {
		return err
	}
	copy(b.buf[off:end], data)
	return nil
}

func (b *BytesBlocks) span(n int, startBlock int64) (off, end int64, err error) {
	if n%blockSize != 0 {
		return 0, 0, errors.New("length not multiple of block size")
	} else if startBlock < 0 {
		return 0, 0, errors.New("invalid startBlock")
	}
	off = startBlock * blockSize
	end = off + int64(n)
	if end > int64(len(b.buf)) {
		return 0, 0, errors.New("access past end of device")
	}
	return off, end, nil
}

// Size returns the size of the device in bytes.
func (b *BytesBlocks) Size() int64 { return int64(len(b.buf)) }

// NumBlocks returns the number of blocks of the device.
func (b *BytesBlocks) NumBlocks() int64 { return int64(len(b.buf) / blockSize) }

// Bytes returns the device contents. Not a copy.
func (b *BytesBlocks) Bytes() []byte { return b.buf }

// FileBlocks is a BlockDevice backed by a file of an [afero.Fs], usually a
// disk image on the OS filesystem.
type FileBlocks struct {
	f afero.File
}

// OpenFileBlocks opens name on fsys as a block device. Use os.O_RDONLY for
// read only access, in which case writes fail.
func OpenFileBlocks(fsys afero.Fs, name string, flag int) (*FileBlocks, error) {
	f, err := fsys.OpenFile(name, flag, 0)
	if err != nil {
		return nil, err
	}
	return &FileBlocks{f: f}, nil
}

// CreateFileBlocks creates or truncates name on fsys and sizes it to
// numBlocks zeroed blocks.
func CreateFileBlocks(fsys afero.Fs, name string, numBlocks int64) (*FileBlocks, error) {
	f, err := fsys.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(numBlocks * blockSize); err != nil {
		f.Close()
		return nil, err
	}
	return &FileBlocks{f: f}, nil
}

func (fb *FileBlocks) ReadBlocks(dst []byte, startBlock int64) error {
	n, err := fb.f.ReadAt(dst, startBlock*blockSize)
	if n == len(dst) {
		return nil
	} else if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func (fb *FileBlocks) WriteBlocks(data []byte, startBlock int64) error {
	_, err := fb.f.WriteAt(data, startBlock*blockSize)
	return err
}

// Size returns the size of the image in bytes.
func (fb *FileBlocks) Size() (int64, error) {
	info, err := fb.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Sync commits the image contents to stable storage.
func (fb *FileBlocks) Sync() error { return fb.f.Sync() }

func (fb *FileBlocks) Close() error { return fb.f.Close() }
