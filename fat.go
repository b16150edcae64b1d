package fat

import (
	"context"
	"log/slog"
)

// BlockDevice is the storage a Volume is mounted on. Blocks are 512 bytes and
// the volume transfers exactly one block per call. Both methods must be
// synchronous: when they return the transfer has completed or failed.
type BlockDevice interface {
	ReadBlocks(dst []byte, startBlock int64) error
	WriteBlocks(data []byte, startBlock int64) error
}

// sector index type.
type lba uint32

const (
	blockSize = 512
	badLBA    = ^lba(0)

	// Cluster count thresholds that select the FAT type.
	clustMaxFAT12 = 4085
	clustMaxFAT16 = 65525

	mask28bits = 0x0FFF_FFFF

	sizeDirEntry = 32
)

// Format is the FAT variant of a mounted volume.
type Format uint8

const (
	// FormatUnknown is the format of a volume that is not mounted.
	FormatUnknown Format = iota
	FormatFAT12
	FormatFAT16
	FormatFAT32
)

func (f Format) String() string {
	switch f {
	case FormatFAT12:
		return "FAT12"
	case FormatFAT16:
		return "FAT16"
	case FormatFAT32:
		return "FAT32"
	}
	return "unmounted"
}

// freeCount is the cached number of free clusters. It is unknown
// until a full FAT scan computes it.
type freeCount struct {
	known bool
	n     uint32
}

// Volume is a mounted FAT12, FAT16 or FAT32 filesystem. All block I/O goes
// through a single sector cache owned by the Volume. A Volume is not safe for
// concurrent use.
type Volume struct {
	fstype           Format
	clusterShift     uint8
	blocksPerCluster uint8
	rootEntries      uint16 // Fixed root directory capacity. 0 on FAT32.

	blocksPerFAT uint32
	volStart     lba
	fatStart     lba
	// rootStart is a block number on FAT12/16 and the first cluster of the
	// root directory chain on FAT32.
	rootStart   uint32
	dataStart   lba
	totalBlocks uint32
	lastCluster uint32 // Valid clusters are [2, lastCluster].

	allocSearchStart uint32
	free             freeCount
	trackFree        bool

	cache sectorCache
	log   *slog.Logger
}

// clusterCount returns the number of data clusters on the volume.
func (v *Volume) clusterCount() uint32 { return v.lastCluster - 1 }

// clusterStart returns the first block of a data cluster.
func (v *Volume) clusterStart(cluster uint32) lba {
	return v.dataStart + lba(cluster-2)<<v.clusterShift
}

func (v *Volume) mounted() bool { return v.fstype != FormatUnknown }

// fetch moves the cache to sector, logging device failures.
func (v *Volume) fetch(sector lba, opt cacheOption) (*[blockSize]byte, error) {
	b, err := v.cache.fetch(sector, opt)
	if err != nil {
		v.logerror("fetch", slog.Uint64("lbn", uint64(sector)), slog.String("err", err.Error()))
	}
	return b, err
}

// fetchFAT fetches a sector of the first FAT. Writes to it are mirrored to
// the second FAT when the cache is synced.
func (v *Volume) fetchFAT(sector lba, opt cacheOption) (*[blockSize]byte, error) {
	return v.fetch(sector, opt|cacheMirrorFAT)
}

// writeBlock writes directly to the device, bypassing the cache.
func (v *Volume) writeBlock(sector lba, data []byte) error {
	err := v.cache.bd.WriteBlocks(data, int64(sector))
	if err != nil {
		v.logerror("writeBlock", slog.Uint64("lbn", uint64(sector)), slog.String("err", err.Error()))
		return &IOError{Op: "write", Block: uint32(sector), Err: err}
	}
	return nil
}

func (v *Volume) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if v.log != nil {
		v.log.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func (v *Volume) debug(msg string, attrs ...slog.Attr) {
	v.logattrs(slog.LevelDebug, msg, attrs...)
}
func (v *Volume) info(msg string, attrs ...slog.Attr) {
	v.logattrs(slog.LevelInfo, msg, attrs...)
}
func (v *Volume) warn(msg string, attrs ...slog.Attr) {
	v.logattrs(slog.LevelWarn, msg, attrs...)
}
func (v *Volume) logerror(msg string, attrs ...slog.Attr) {
	v.logattrs(slog.LevelError, msg, attrs...)
}
