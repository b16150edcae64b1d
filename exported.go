package fat

import (
	"log/slog"
)

// Geometry describes the layout of a mounted volume. Block numbers are
// absolute device blocks.
type Geometry struct {
	Format           Format
	BlocksPerCluster uint8
	BlocksPerFAT     uint32
	VolumeStart      uint32
	FATStart         uint32
	// RootDirStart is a block number on FAT12/16 and a cluster number on FAT32.
	RootDirStart   uint32
	RootDirEntries uint16
	DataStart      uint32
	TotalBlocks    uint32
	LastCluster    uint32
}

func (g Geometry) String() string {
	return string(g.Appendf(nil, '\n'))
}

func (g Geometry) Appendf(dst []byte, separator byte) []byte {
	dst = labelAppend(dst, "Format", g.Format.String(), separator)
	dst = labelAppendUint32("BlocksPerCluster", dst, uint32(g.BlocksPerCluster), separator)
	dst = labelAppendUint32("BlocksPerFAT", dst, g.BlocksPerFAT, separator)
	dst = labelAppendUint32("VolumeStart", dst, g.VolumeStart, separator)
	dst = labelAppendUint32("FATStart", dst, g.FATStart, separator)
	dst = labelAppendUint32("RootDirStart", dst, g.RootDirStart, separator)
	dst = labelAppendUint32("RootDirEntries", dst, uint32(g.RootDirEntries), separator)
	dst = labelAppendUint32("DataStart", dst, g.DataStart, separator)
	dst = labelAppendUint32("TotalBlocks", dst, g.TotalBlocks, separator)
	dst = labelAppendUint32("LastCluster", dst, g.LastCluster, separator)
	return dst
}

// Mount mounts the FAT volume found on bd. Any previous mount of v is
// discarded, pending cache contents are written back first.
func (v *Volume) Mount(bd BlockDevice, cfg MountConfig) error {
	if bd == nil || cfg.Partition < 0 || cfg.Partition > 4 {
		return ErrInvalidArgument
	}
	if v.cache.bd != nil {
		if err := v.cache.sync(); err != nil {
			v.warn("mount:discarding unsynced sector", slog.Uint64("lbn", uint64(v.cache.lbn)), slog.String("err", err.Error()))
		}
	}
	v.fstype = FormatUnknown // Invalidate any previous mount.
	v.log = cfg.Logger
	v.trackFree = cfg.TrackFreeClusters
	v.cache.init(bd)
	err := v.mount(cfg.Partition)
	if err != nil {
		v.fstype = FormatUnknown
		v.logerror("mount", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// Format returns the FAT type of the volume, or an unmounted format.
func (v *Volume) Format() Format { return v.fstype }

// Geometry returns the layout parsed at mount.
func (v *Volume) Geometry() Geometry {
	return Geometry{
		Format:           v.fstype,
		BlocksPerCluster: v.blocksPerCluster,
		BlocksPerFAT:     v.blocksPerFAT,
		VolumeStart:      uint32(v.volStart),
		FATStart:         uint32(v.fatStart),
		RootDirStart:     v.rootStart,
		RootDirEntries:   v.rootEntries,
		DataStart:        uint32(v.dataStart),
		TotalBlocks:      v.totalBlocks,
		LastCluster:      v.lastCluster,
	}
}

// AllocSearchStart returns the allocation cursor. Searches for a free
// cluster begin right after it.
func (v *Volume) AllocSearchStart() uint32 { return v.allocSearchStart }

// Entry returns the raw FAT entry of cluster.
func (v *Volume) Entry(cluster uint32) (uint32, error) {
	return v.fatGet(cluster)
}

// SetEntry writes the raw FAT entry of cluster. The write is cached, call
// Sync to flush it to both FAT copies.
func (v *Volume) SetEntry(cluster, value uint32) error {
	return v.fatPut(cluster, value)
}

// Next returns the cluster following cluster in its chain. eoc is true if
// cluster is the last one.
func (v *Volume) Next(cluster uint32) (next uint32, eoc bool, err error) {
	return v.next(cluster)
}

// IsEOC reports whether a raw FAT entry value marks the end of a chain.
func (v *Volume) IsEOC(value uint32) bool { return v.isEOC(value) }

// AllocCluster allocates a free cluster and returns it. If prev is zero the
// cluster starts a new chain, otherwise it is appended after prev.
func (v *Volume) AllocCluster(prev uint32) (uint32, error) {
	return v.allocCluster(prev)
}

// AllocContiguous allocates a chain of count consecutive clusters and returns
// the first one. A failure while linking can leave a partial chain behind.
func (v *Volume) AllocContiguous(count uint32) (uint32, error) {
	return v.allocContiguous(count)
}

// FreeChain marks every cluster of the chain starting at cluster as free.
func (v *Volume) FreeChain(cluster uint32) error {
	return v.freeChain(cluster)
}

// ChainLength returns the number of clusters in the chain starting at cluster.
func (v *Volume) ChainLength(cluster uint32) (uint32, error) {
	return v.chainLength(cluster)
}

// FreeClusterCount returns the number of free clusters.
func (v *Volume) FreeClusterCount() (uint32, error) {
	return v.freeClusterCount()
}

// ClusterStartBlock returns the first block of a data cluster.
func (v *Volume) ClusterStartBlock(cluster uint32) (uint32, error) {
	if err := v.checkCluster(cluster); err != nil {
		return 0, err
	}
	return uint32(v.clusterStart(cluster)), nil
}

// Sync writes the cached sector back to the device.
func (v *Volume) Sync() error {
	if v.cache.bd == nil {
		return ErrNotMounted
	}
	return v.cache.sync()
}

// ReadBlock reads a single block into dst, which must be 512 bytes long. If
// the block is cached the cached contents are returned.
func (v *Volume) ReadBlock(block uint32, dst []byte) error {
	if v.cache.bd == nil {
		return ErrNotMounted
	} else if len(dst) != blockSize {
		return ErrInvalidArgument
	}
	if lba(block) == v.cache.lbn {
		copy(dst, v.cache.buf[:])
		return nil
	}
	err := v.cache.bd.ReadBlocks(dst, int64(block))
	if err != nil {
		return &IOError{Op: "read", Block: block, Err: err}
	}
	return nil
}

// WriteBlock writes a single block from src, which must be 512 bytes long.
// A cached copy of the block is written back, mirror included, and dropped.
func (v *Volume) WriteBlock(block uint32, src []byte) error {
	if v.cache.bd == nil {
		return ErrNotMounted
	} else if len(src) != blockSize {
		return ErrInvalidArgument
	}
	if lba(block) == v.cache.lbn {
		if err := v.cache.sync(); err != nil {
			return err
		}
		v.cache.invalidate()
	}
	return v.writeBlock(lba(block), src)
}

// Wipe destroys all data on the volume, leaving an empty root directory and
// empty FATs. progress, if not nil, is called as FAT blocks are cleared.
// The volume must be mounted again afterwards.
func (v *Volume) Wipe(progress func(done, total uint32)) error {
	return v.wipe(progress)
}

// Labels returns the OEM name and volume label of the boot sector.
func (v *Volume) Labels() (oem, label string, err error) {
	if !v.mounted() {
		return "", "", ErrNotMounted
	}
	b, err := v.fetch(v.volStart, cacheForRead)
	if err != nil {
		return "", "", err
	}
	bpb := biosParamBlock{data: b[:]}
	return bpb.OEMName(), bpb.VolumeLabel(v.fstype == FormatFAT32), nil
}
