package fat

import "strconv"

// volumeError is the return code of volume operations.
type volumeError uint8

const (
	_ volumeError = iota
	// ErrIO matches any *IOError with errors.Is.
	ErrIO
	// ErrInvalidVolume is returned by Mount when the MBR or boot sector
	// does not describe a supported FAT volume.
	ErrInvalidVolume
	// ErrOutOfSpace is returned when the allocator finds no free cluster
	// or no free run of the requested length. The volume remains usable.
	ErrOutOfSpace
	// ErrInvalidCluster is returned when a cluster number outside
	// [2, last cluster] is used, either by the caller or as a chain link.
	ErrInvalidCluster
	// ErrNotMounted is returned by operations on a volume that was never
	// mounted, failed to mount or was wiped.
	ErrNotMounted
	// ErrInvalidArgument is returned for malformed arguments such as a
	// zero length contiguous allocation.
	ErrInvalidArgument
)

func (e volumeError) Error() string {
	switch e {
	case ErrIO:
		return "fat: block device I/O error"
	case ErrInvalidVolume:
		return "fat: no valid FAT volume"
	case ErrOutOfSpace:
		return "fat: no free clusters"
	case ErrInvalidCluster:
		return "fat: cluster out of range"
	case ErrNotMounted:
		return "fat: volume not mounted"
	case ErrInvalidArgument:
		return "fat: invalid argument"
	}
	return "fat: error " + strconv.Itoa(int(e))
}

// IOError is a failed block transfer. It unwraps to the error returned by
// the BlockDevice.
type IOError struct {
	Op    string // "read" or "write".
	Block uint32
	Err   error
}

func (e *IOError) Error() string {
	return "fat: " + e.Op + " block " + strconv.FormatUint(uint64(e.Block), 10) + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
