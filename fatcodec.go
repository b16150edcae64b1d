package fat

import "encoding/binary"

// checkCluster validates a cluster number against the mounted geometry.
func (v *Volume) checkCluster(cluster uint32) error {
	if !v.mounted() {
		return ErrNotMounted
	} else if cluster < 2 || cluster > v.lastCluster {
		return ErrInvalidCluster
	}
	return nil
}

// fatGet returns the FAT entry of a data cluster.
func (v *Volume) fatGet(cluster uint32) (uint32, error) {
	if err := v.checkCluster(cluster); err != nil {
		return 0, err
	}
	return v.getEntry(cluster)
}

// fatPut sets the FAT entry of a data cluster.
func (v *Volume) fatPut(cluster, value uint32) error {
	if err := v.checkCluster(cluster); err != nil {
		return err
	}
	return v.putEntry(cluster, value)
}

// next returns the successor of cluster in its chain. eoc is true if cluster
// is the last cluster of the chain. A link that is neither an end marker nor
// a valid cluster yields ErrInvalidCluster.
func (v *Volume) next(cluster uint32) (next uint32, eoc bool, err error) {
	value, err := v.fatGet(cluster)
	if err != nil {
		return 0, false, err
	}
	if v.isEOC(value) {
		return 0, true, nil
	} else if value < 2 || value > v.lastCluster {
		return 0, false, ErrInvalidCluster
	}
	return value, false, nil
}

// isEOC reports whether value lies in the end-of-chain range of the FAT type.
func (v *Volume) isEOC(value uint32) bool {
	switch v.fstype {
	case FormatFAT12:
		return value >= 0xFF8
	case FormatFAT16:
		return value >= 0xFFF8
	case FormatFAT32:
		return value >= 0x0FFF_FFF8
	}
	return false
}

// eoc returns the end-of-chain marker written by the allocator.
func (v *Volume) eoc() uint32 {
	switch v.fstype {
	case FormatFAT12:
		return 0xFFF
	case FormatFAT16:
		return 0xFFFF
	}
	return mask28bits
}

// getEntry reads FAT entry idx without range checks so reserved entries 0
// and 1 can be read too.
func (v *Volume) getEntry(idx uint32) (uint32, error) {
	switch v.fstype {
	case FormatFAT32:
		b, err := v.fetchFAT(v.fatStart+lba(idx>>7), cacheForRead)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(b[(idx&0x7F)*4:]) & mask28bits, nil

	case FormatFAT16:
		b, err := v.fetchFAT(v.fatStart+lba((idx>>8)&0xFF), cacheForRead)
		if err != nil {
			return 0, err
		}
		return uint32(binary.LittleEndian.Uint16(b[(idx&0xFF)*2:])), nil

	case FormatFAT12:
		// Entries are 1.5 bytes long, the second byte may live in the next sector.
		index := idx + idx>>1
		sect := v.fatStart + lba(index>>9)
		index &= blockSize - 1
		b, err := v.fetchFAT(sect, cacheForRead)
		if err != nil {
			return 0, err
		}
		lo := b[index]
		index++
		if index == blockSize {
			b, err = v.fetchFAT(sect+1, cacheForRead)
			if err != nil {
				return 0, err
			}
			index = 0
		}
		tmp := uint16(lo) | uint16(b[index])<<8
		if idx&1 != 0 {
			return uint32(tmp >> 4), nil
		}
		return uint32(tmp & 0xFFF), nil
	}
	return 0, ErrNotMounted
}

// putEntry writes FAT entry idx without range checks. The write lands in the
// cache and reaches both FAT copies on the next sync.
func (v *Volume) putEntry(idx, value uint32) error {
	switch v.fstype {
	case FormatFAT32:
		b, err := v.fetchFAT(v.fatStart+lba(idx>>7), cacheForWrite)
		if err != nil {
			return err
		}
		off := (idx & 0x7F) * 4
		old := binary.LittleEndian.Uint32(b[off:])
		// Top 4 bits are reserved and kept as found.
		binary.LittleEndian.PutUint32(b[off:], value&mask28bits|old&^mask28bits)
		return nil

	case FormatFAT16:
		b, err := v.fetchFAT(v.fatStart+lba((idx>>8)&0xFF), cacheForWrite)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(b[(idx&0xFF)*2:], uint16(value))
		return nil

	case FormatFAT12:
		index := idx + idx>>1
		sect := v.fatStart + lba(index>>9)
		index &= blockSize - 1
		b, err := v.fetchFAT(sect, cacheForWrite)
		if err != nil {
			return err
		}
		tmp := byte(value)
		if idx&1 != 0 {
			// Low nibble belongs to the previous entry.
			tmp = b[index]&0x0F | tmp<<4
		}
		b[index] = tmp
		index++
		if index == blockSize {
			sect++
			index = 0
			b, err = v.fetchFAT(sect, cacheForWrite)
			if err != nil {
				return err
			}
		}
		tmp = byte(value >> 4)
		if idx&1 == 0 {
			// High nibble belongs to the next entry.
			tmp = b[index]&0xF0 | tmp>>4
		}
		b[index] = tmp
		return nil
	}
	return ErrNotMounted
}
