package fat

import (
	"encoding/binary"
	"log/slog"
)

// wipe formats the mounted volume in place: the root directory and both FATs
// are zeroed and the reserved FAT entries rewritten. The volume is left
// unmounted whether or not wipe succeeds.
func (v *Volume) wipe(progress func(done, total uint32)) (err error) {
	fstype := v.fstype
	if fstype == FormatUnknown {
		return ErrNotMounted
	}
	defer func() {
		v.fstype = FormatUnknown
		v.free = freeCount{}
		if err != nil {
			v.logerror("wipe", slog.String("err", err.Error()))
		}
	}()
	zero, err := v.cache.clear()
	if err != nil {
		return err
	}
	clear(zero[:])

	// Zero root directory.
	var root lba
	var count uint32
	if fstype == FormatFAT32 {
		root = v.clusterStart(v.rootStart)
		count = uint32(v.blocksPerCluster)
	} else {
		root = lba(v.rootStart)
		count = uint32(v.rootEntries) / (blockSize / sizeDirEntry)
	}
	for n := uint32(0); n < count; n++ {
		if err := v.writeBlock(root+lba(n), zero[:]); err != nil {
			return err
		}
	}

	// Zero both FATs.
	total := 2 * v.blocksPerFAT
	for nb := uint32(0); nb < total; nb++ {
		if progress != nil && nb&0xFF == 0 {
			progress(nb, total)
		}
		if err := v.writeBlock(v.fatStart+lba(nb), zero[:]); err != nil {
			return err
		}
	}

	// Reserve the first two entries.
	switch fstype {
	case FormatFAT32:
		binary.LittleEndian.PutUint32(zero[0:], 0x0FFF_FFF8)
		binary.LittleEndian.PutUint32(zero[4:], 0x0FFF_FFFF)
	case FormatFAT16:
		binary.LittleEndian.PutUint16(zero[0:], 0xFFF8)
		binary.LittleEndian.PutUint16(zero[2:], 0xFFFF)
	case FormatFAT12:
		zero[0], zero[1], zero[2] = 0xF8, 0xFF, 0xFF
	}
	if err := v.writeBlock(v.fatStart, zero[:]); err != nil {
		return err
	}
	if err := v.writeBlock(v.fatStart+lba(v.blocksPerFAT), zero[:]); err != nil {
		return err
	}
	if fstype == FormatFAT32 {
		// Root directory occupies its first cluster.
		if err := v.putEntry(v.rootStart, v.eoc()); err != nil {
			return err
		}
		if err := v.cache.sync(); err != nil {
			return err
		}
	}
	if progress != nil {
		progress(total, total)
	}
	v.info("wiped", slog.String("type", fstype.String()))
	return nil
}
