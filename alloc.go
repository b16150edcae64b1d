package fat

import (
	"encoding/binary"
	"log/slog"
)

// allocCluster allocates one free cluster and marks it end-of-chain. If prev
// is non-zero the search starts after prev and the new cluster is linked to
// it. Otherwise the search starts after the allocation cursor, which is moved
// to the new cluster.
func (v *Volume) allocCluster(prev uint32) (uint32, error) {
	if !v.mounted() {
		return 0, ErrNotMounted
	}
	start := v.allocSearchStart
	if prev != 0 {
		if err := v.checkCluster(prev); err != nil {
			return 0, err
		}
		start = prev
	}
	find := start
	for n := uint32(0); ; n++ {
		if n >= v.clusterCount() {
			return 0, ErrOutOfSpace // Back where we started.
		}
		find++
		if find > v.lastCluster || find < 2 {
			find = 2
		}
		value, err := v.getEntry(find)
		if err != nil {
			return 0, err
		} else if value == 0 {
			break
		}
	}

	if err := v.putEntry(find, v.eoc()); err != nil {
		return 0, err
	}
	if prev != 0 {
		if err := v.putEntry(prev, find); err != nil {
			return 0, err
		}
	} else {
		v.allocSearchStart = find
	}
	v.adjustFree(-1)
	return find, nil
}

// allocContiguous allocates a chain of count clusters with consecutive numbers
// and returns its first cluster. The cursor moves past the run only if no free
// cluster was passed over on the way; skipping occupied clusters alone does
// not keep it in place.
func (v *Volume) allocContiguous(count uint32) (uint32, error) {
	if !v.mounted() {
		return 0, ErrNotMounted
	} else if count == 0 {
		return 0, ErrInvalidArgument
	} else if count > v.clusterCount() {
		return 0, ErrOutOfSpace
	}
	// Leave the cursor alone if the search skips over free clusters, they
	// are still good for smaller allocations.
	setStart := true
	bgn := v.allocSearchStart + 1
	end := bgn
	for n := uint32(0); ; n, end = n+1, end+1 {
		if n >= v.clusterCount() {
			return 0, ErrOutOfSpace
		}
		if end > v.lastCluster || end < 2 {
			// Runs do not wrap around the end of the FAT.
			bgn, end = 2, 2
		}
		value, err := v.getEntry(end)
		if err != nil {
			return 0, err
		}
		if value != 0 {
			if bgn != end {
				setStart = false
			}
			bgn = end + 1
		} else if end-bgn+1 == count {
			break
		}
	}

	if err := v.putEntry(end, v.eoc()); err != nil {
		return 0, err
	}
	for c := end; c > bgn; c-- {
		if err := v.putEntry(c-1, c); err != nil {
			return 0, err
		}
	}
	v.adjustFree(-int64(count))
	if setStart {
		v.allocSearchStart = end + 1
	}
	v.debug("allocContiguous", slog.Uint64("first", uint64(bgn)), slog.Uint64("count", uint64(count)))
	return bgn, nil
}

// freeChain releases every cluster of the chain starting at cluster.
func (v *Volume) freeChain(cluster uint32) error {
	for {
		next, eoc, err := v.next(cluster)
		if err != nil {
			return err
		}
		if err := v.putEntry(cluster, 0); err != nil {
			return err
		}
		v.adjustFree(1)
		if cluster < v.allocSearchStart {
			// Reuse space near the start of the volume first.
			v.allocSearchStart = cluster
		}
		if eoc {
			return nil
		}
		cluster = next
	}
}

// chainLength counts the clusters of the chain starting at cluster.
func (v *Volume) chainLength(cluster uint32) (uint32, error) {
	var n uint32
	for {
		next, eoc, err := v.next(cluster)
		if err != nil {
			return n, err
		}
		n++
		if eoc {
			return n, nil
		} else if n >= v.clusterCount() {
			return n, ErrInvalidCluster // Cycle.
		}
		cluster = next
	}
}

// adjustFree keeps the free cluster count in step with allocations, if the
// count is known and tracking is enabled.
func (v *Volume) adjustFree(delta int64) {
	if v.trackFree && v.free.known {
		v.free.n = uint32(int64(v.free.n) + delta)
	}
}

// freeClusterCount returns the cached free cluster count, scanning the whole
// FAT if it is unknown.
func (v *Volume) freeClusterCount() (uint32, error) {
	if !v.mounted() {
		return 0, ErrNotMounted
	}
	if v.free.known {
		return v.free.n, nil
	}
	var free uint32
	switch v.fstype {
	case FormatFAT12:
		for c := uint32(2); c <= v.lastCluster; c++ {
			value, err := v.getEntry(c)
			if err != nil {
				return 0, err
			} else if value == 0 {
				free++
			}
		}

	default:
		shift := uint32(8) // 256 entries per sector.
		if v.fstype == FormatFAT32 {
			shift = 7
		}
		for c := uint32(2); c <= v.lastCluster; c++ {
			b, err := v.fetchFAT(v.fatStart+lba(c>>shift), cacheForRead)
			if err != nil {
				return 0, err
			}
			var value uint32
			if v.fstype == FormatFAT32 {
				value = binary.LittleEndian.Uint32(b[(c&0x7F)*4:]) & mask28bits
			} else {
				value = uint32(binary.LittleEndian.Uint16(b[(c&0xFF)*2:]))
			}
			if value == 0 {
				free++
			}
		}
	}
	if v.trackFree {
		v.free = freeCount{known: true, n: free}
	}
	v.debug("freeClusterCount", slog.Uint64("free", uint64(free)))
	return free, nil
}
