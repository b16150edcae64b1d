package fat

import (
	"log/slog"
	"math/bits"

	"github.com/soypat/fatvol/internal/mbr"
)

// MountConfig configures how a volume is mounted.
type MountConfig struct {
	// Partition selects MBR partition 1..4. Zero mounts a "superfloppy"
	// with the boot sector at block 0.
	Partition int
	// TrackFreeClusters keeps the free cluster count up to date across
	// allocations once a full scan has computed it. When false every
	// FreeClusterCount call scans the FAT.
	TrackFreeClusters bool
	// Logger receives debug and error messages. Nil disables logging.
	Logger *slog.Logger
}

// mount parses the partition table and boot sector and sets up the geometry.
// On error the volume is left unmounted.
func (v *Volume) mount(partition int) error {
	var volStart lba
	if partition > 0 {
		b, err := v.fetch(0, cacheForRead)
		if err != nil {
			return err
		}
		bs, _ := mbr.ToBootSector(b[:])
		pte := bs.Partition(partition - 1)
		if !pte.Valid() {
			v.warn("mount:partition", slog.Int("part", partition), slog.Int("status", int(pte.Status())))
			return ErrInvalidVolume
		}
		volStart = lba(pte.StartLBA())
		v.debug("mount:partition", slog.Int("part", partition),
			slog.Int("type", int(pte.Type())),
			slog.Bool("bootable", pte.Bootable()),
			slog.Uint64("start", uint64(pte.StartLBA())),
			slog.Uint64("size", uint64(pte.NumberOfLBA())),
			slog.Bool("signed", bs.BootSignature() == mbr.BootSignature),
		)
	}

	b, err := v.fetch(volStart, cacheForRead)
	if err != nil {
		return err
	}
	bpb := biosParamBlock{data: b[:]}
	v.debug("mount:bpb", slog.String("bpb", bpb.String()))
	if bpb.SectorSize() != blockSize || bpb.NumberOfFATs() != 2 || bpb.ReservedSectors() == 0 {
		return ErrInvalidVolume
	}
	spc := bpb.SectorsPerCluster()
	if spc == 0 || spc&(spc-1) != 0 {
		return ErrInvalidVolume // Zero or not power of two.
	}

	blocksPerFAT := bpb.SectorsPerFAT()
	rootEntries := bpb.RootDirEntries()
	totalBlocks := bpb.TotalSectors()
	shift := uint8(bits.TrailingZeros8(spc))
	// System area size in 64 bits, BPB FAT sizes can overflow uint32.
	rootBlocks := (sizeDirEntry*uint64(rootEntries) + blockSize - 1) / blockSize
	sys64 := uint64(bpb.ReservedSectors()) + 2*uint64(blocksPerFAT) + rootBlocks
	if blocksPerFAT == 0 || uint64(totalBlocks) <= sys64 ||
		uint64(volStart)+uint64(totalBlocks) > uint64(badLBA) {
		return ErrInvalidVolume
	}
	sysBlocks := uint32(sys64)
	fatStart := volStart + lba(bpb.ReservedSectors())
	rootStart := uint32(fatStart) + 2*blocksPerFAT
	dataStart := uint32(volStart) + sysBlocks
	clusters := (totalBlocks - sysBlocks) >> shift
	if clusters == 0 {
		return ErrInvalidVolume
	}
	fstype := fatTypeForClusters(clusters)
	lastCluster := clusters + 1
	if fstype == FormatFAT32 {
		rootStart = bpb.RootCluster()
		if rootStart < 2 || rootStart > lastCluster {
			return ErrInvalidVolume
		}
	}
	if uint64(blocksPerFAT)*blockSize < fatBytes(fstype, lastCluster) {
		return ErrInvalidVolume // FAT too small to hold an entry per cluster.
	}

	v.volStart = volStart
	v.blocksPerCluster = spc
	v.clusterShift = shift
	v.blocksPerFAT = blocksPerFAT
	v.fatStart = fatStart
	v.rootEntries = rootEntries
	v.rootStart = rootStart
	v.dataStart = lba(dataStart)
	v.totalBlocks = totalBlocks
	v.lastCluster = lastCluster
	v.allocSearchStart = 1 // First candidate is cluster 2.
	v.free = freeCount{}
	v.cache.mirrorOffset = lba(blocksPerFAT)
	v.fstype = fstype
	v.info("mounted", slog.String("type", fstype.String()),
		slog.Uint64("volStart", uint64(volStart)),
		slog.Uint64("lastCluster", uint64(lastCluster)),
		slog.Uint64("blocksPerCluster", uint64(spc)),
	)
	return nil
}

// fatTypeForClusters selects the FAT type from the number of data clusters.
func fatTypeForClusters(clusters uint32) Format {
	switch {
	case clusters < clustMaxFAT12:
		return FormatFAT12
	case clusters < clustMaxFAT16:
		return FormatFAT16
	}
	return FormatFAT32
}

// fatBytes is the size in bytes of a FAT holding entries 0..lastCluster.
func fatBytes(fstype Format, lastCluster uint32) uint64 {
	n := uint64(lastCluster) + 1
	switch fstype {
	case FormatFAT12:
		return (3*n + 1) / 2
	case FormatFAT16:
		return 2 * n
	}
	return 4 * n
}
