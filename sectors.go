package fat

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"golang.org/x/text/encoding/charmap"
)

// Boot sector field offsets.
const (
	bsOEMName     = 3
	bpbBytsPerSec = 11
	bpbSecPerClus = 13
	bpbRsvdSecCnt = 14
	bpbNumFATs    = 16
	bpbRootEntCnt = 17
	bpbTotSec16   = 19
	bpbMedia      = 21
	bpbFATSz16    = 22
	bpbHiddSec    = 28
	bpbTotSec32   = 32

	// FAT12/16 extended boot record.
	bsVolLab = 43

	// FAT32 extended boot record.
	bpbFATSz32    = 36
	bpbRootClus32 = 44
	bsVolLab32    = 71

	bs55AA = 510
)

// biosParamBlock a.k.a BPB is a view of the boot sector of a FAT volume. It
// describes sector and cluster sizes and where the FATs, root directory and
// data area are located.
type biosParamBlock struct {
	data []byte
}

// SectorSize returns the size of a sector in bytes.
func (bs *biosParamBlock) SectorSize() uint16 {
	return binary.LittleEndian.Uint16(bs.data[bpbBytsPerSec:])
}

// SetSectorSize sets the size of a sector in bytes.
func (bs *biosParamBlock) SetSectorSize(size uint16) {
	binary.LittleEndian.PutUint16(bs.data[bpbBytsPerSec:], size)
}

// SectorsPerCluster returns the number of sectors per cluster.
// Should be a power of 2 and not larger than 128.
func (bs *biosParamBlock) SectorsPerCluster() uint8 {
	return bs.data[bpbSecPerClus]
}

func (bs *biosParamBlock) SetSectorsPerCluster(spc uint8) {
	bs.data[bpbSecPerClus] = spc
}

// ReservedSectors returns the number of sectors before the first FAT,
// boot sector included. Must not be zero.
func (bs *biosParamBlock) ReservedSectors() uint16 {
	return binary.LittleEndian.Uint16(bs.data[bpbRsvdSecCnt:])
}

func (bs *biosParamBlock) SetReservedSectors(rsvd uint16) {
	binary.LittleEndian.PutUint16(bs.data[bpbRsvdSecCnt:], rsvd)
}

// NumberOfFATs returns the number of File Allocation Tables.
func (bs *biosParamBlock) NumberOfFATs() uint8 {
	return bs.data[bpbNumFATs]
}

func (bs *biosParamBlock) SetNumberOfFATs(nfats uint8) {
	bs.data[bpbNumFATs] = nfats
}

// RootDirEntries returns the capacity of the fixed FAT12/16 root directory.
// It is zero on FAT32.
func (bs *biosParamBlock) RootDirEntries() uint16 {
	return binary.LittleEndian.Uint16(bs.data[bpbRootEntCnt:])
}

func (bs *biosParamBlock) SetRootDirEntries(entries uint16) {
	binary.LittleEndian.PutUint16(bs.data[bpbRootEntCnt:], entries)
}

// TotalSectors returns the number of sectors of the volume. The 16-bit field
// is used when non-zero.
func (bs *biosParamBlock) TotalSectors() uint32 {
	totsec := uint32(binary.LittleEndian.Uint16(bs.data[bpbTotSec16:]))
	if totsec == 0 {
		totsec = binary.LittleEndian.Uint32(bs.data[bpbTotSec32:])
	}
	return totsec
}

// SetTotalSectors stores totsec in the 16-bit field if it fits, otherwise in
// the 32-bit field.
func (bs *biosParamBlock) SetTotalSectors(totsec uint32) {
	if totsec <= 0xFFFF {
		binary.LittleEndian.PutUint16(bs.data[bpbTotSec16:], uint16(totsec))
		binary.LittleEndian.PutUint32(bs.data[bpbTotSec32:], 0)
		return
	}
	binary.LittleEndian.PutUint16(bs.data[bpbTotSec16:], 0)
	binary.LittleEndian.PutUint32(bs.data[bpbTotSec32:], totsec)
}

// SectorsPerFAT returns the size of one FAT. The 16-bit field is used when non-zero.
func (bs *biosParamBlock) SectorsPerFAT() uint32 {
	fatsz := uint32(binary.LittleEndian.Uint16(bs.data[bpbFATSz16:]))
	if fatsz == 0 {
		fatsz = binary.LittleEndian.Uint32(bs.data[bpbFATSz32:])
	}
	return fatsz
}

// SetSectorsPerFAT16 sets the FAT size field used by FAT12 and FAT16.
func (bs *biosParamBlock) SetSectorsPerFAT16(fatsz uint16) {
	binary.LittleEndian.PutUint16(bs.data[bpbFATSz16:], fatsz)
}

// SetSectorsPerFAT32 sets the FAT32 FAT size field and clears the 16-bit one.
func (bs *biosParamBlock) SetSectorsPerFAT32(fatsz uint32) {
	binary.LittleEndian.PutUint16(bs.data[bpbFATSz16:], 0)
	binary.LittleEndian.PutUint32(bs.data[bpbFATSz32:], fatsz)
}

// RootCluster returns the first cluster of the FAT32 root directory.
func (bs *biosParamBlock) RootCluster() uint32 {
	return binary.LittleEndian.Uint32(bs.data[bpbRootClus32:])
}

func (bs *biosParamBlock) SetRootCluster(cluster uint32) {
	binary.LittleEndian.PutUint32(bs.data[bpbRootClus32:], cluster)
}

func (bs *biosParamBlock) Media() uint8 { return bs.data[bpbMedia] }

func (bs *biosParamBlock) VolumeOffset() uint32 {
	return binary.LittleEndian.Uint32(bs.data[bpbHiddSec:])
}

// BootSignature returns the boot signature at offset 510 which should be 0xAA55.
func (bs *biosParamBlock) BootSignature() uint16 {
	return binary.LittleEndian.Uint16(bs.data[bs55AA:])
}

// OEMName returns the Original Equipment Manufacturer name at the start of the bootsector.
func (bs *biosParamBlock) OEMName() string {
	return decodeName(bs.data[bsOEMName : bsOEMName+8])
}

// SetOEMName sets the OEM name, padded with spaces and clipped to 8 bytes.
func (bs *biosParamBlock) SetOEMName(name string) {
	setName(bs.data[bsOEMName:bsOEMName+8], name)
}

// VolumeLabel returns the label of the extended boot record, which lives at a
// different offset on FAT32.
func (bs *biosParamBlock) VolumeLabel(fat32 bool) string {
	off := bsVolLab
	if fat32 {
		off = bsVolLab32
	}
	return decodeName(bs.data[off : off+11])
}

func (bs *biosParamBlock) SetVolumeLabel(label string, fat32 bool) {
	off := bsVolLab
	if fat32 {
		off = bsVolLab32
	}
	setName(bs.data[off:off+11], label)
}

func (bs *biosParamBlock) String() string {
	return string(bs.Appendf(nil, '\n'))
}

func (bs *biosParamBlock) Appendf(dst []byte, separator byte) []byte {
	dst = labelAppend(dst, "OEM", bs.OEMName(), separator)
	dst = labelAppendUint32("SectorSize", dst, uint32(bs.SectorSize()), separator)
	dst = labelAppendUint32("SectorsPerCluster", dst, uint32(bs.SectorsPerCluster()), separator)
	dst = labelAppendUint32("ReservedSectors", dst, uint32(bs.ReservedSectors()), separator)
	dst = labelAppendUint32("NumberOfFATs", dst, uint32(bs.NumberOfFATs()), separator)
	dst = labelAppendUint32("RootDirEntries", dst, uint32(bs.RootDirEntries()), separator)
	dst = labelAppendUint32("TotalSectors", dst, bs.TotalSectors(), separator)
	dst = labelAppendUint32("SectorsPerFAT", dst, bs.SectorsPerFAT(), separator)
	dst = labelAppendUint32("VolumeOffset", dst, bs.VolumeOffset(), separator)
	dst = labelAppendUint32("Media", dst, uint32(bs.Media()), separator)
	dst = labelAppendUint32("Signature", dst, uint32(bs.BootSignature()), separator)
	if bs.RootDirEntries() == 0 {
		dst = labelAppendUint32("RootCluster", dst, bs.RootCluster(), separator)
	}
	return dst
}

// decodeName converts a space padded CP437 name field to a string.
func decodeName(b []byte) string {
	b = bytes.TrimRight(b, " \x00")
	s, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func setName(dst []byte, name string) {
	enc, err := charmap.CodePage437.NewEncoder().String(name)
	if err != nil {
		enc = name
	}
	n := copy(dst, enc)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

func labelAppend(dst []byte, label string, data string, sep byte) []byte {
	if len(data) == 0 {
		return dst
	}
	dst = append(dst, label...)
	dst = append(dst, ':')
	dst = append(dst, data...)
	dst = append(dst, sep)
	return dst
}

func labelAppendUint32(label string, dst []byte, data uint32, sep byte) []byte {
	dst = append(dst, label...)
	dst = append(dst, ':')
	dst = strconv.AppendUint(dst, uint64(data), 10)
	dst = append(dst, sep)
	return dst
}
