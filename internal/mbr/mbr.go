/*
package mbr implements a Master Boot Record reader and writer.
*/
package mbr

import (
	"encoding/binary"
	"errors"
)

const (
	bootstrapLen     = 440
	pteOffset        = 446
	pteLen           = 16 // partition table entry length
	bootSignatureOff = 510
	BootSignature    = 0xAA55
)

// ToBootSector converts a byte slice to an MBR BootSector while maintaining a
// reference to the original byte slice. The slice must be at least 512 bytes
// long and start with the first byte of the MBR.
func ToBootSector(start []byte) (BootSector, error) {
	if len(start) < 512 {
		return BootSector{}, errors.New("boot sector too short")
	}
	return BootSector{data: start[:512:512]}, nil
}

// BootSector is a Master Boot Record: bootstrap code, four partition table
// entries and a boot signature.
type BootSector struct {
	data []byte
}

// BootSignature returns the magic number at offset 510. 0xAA55 for a valid MBR.
func (mbr *BootSector) BootSignature() uint16 {
	return binary.LittleEndian.Uint16(mbr.data[bootSignatureOff:])
}

func (mbr *BootSector) SetBootSignature(sig uint16) {
	binary.LittleEndian.PutUint16(mbr.data[bootSignatureOff:], sig)
}

// Partition returns the idx'th (0..3) partition table entry.
func (mbr *BootSector) Partition(idx int) PartitionEntry {
	if idx < 0 || idx > 3 {
		panic("invalid partition table index")
	}
	off := pteOffset + idx*pteLen
	return PartitionEntry{data: [pteLen]byte(mbr.data[off : off+pteLen])}
}

// SetPartition overwrites the idx'th (0..3) partition table entry.
func (mbr *BootSector) SetPartition(idx int, pte PartitionEntry) {
	if idx < 0 || idx > 3 {
		panic("invalid partition table index")
	}
	copy(mbr.data[pteOffset+idx*pteLen:], pte.data[:])
}

// PartitionEntry is one 16 byte entry of the partition table. CHS addresses
// are not used, partitions are located by LBA only.
type PartitionEntry struct {
	data [pteLen]byte
}

// MakePartitionEntry creates an entry for a partition of numLBA sectors
// starting at startLBA.
func MakePartitionEntry(status uint8, ptype PartitionType, startLBA, numLBA uint32) PartitionEntry {
	var pte PartitionEntry
	pte.data[0] = status
	pte.data[4] = byte(ptype)
	binary.LittleEndian.PutUint32(pte.data[8:], startLBA)
	binary.LittleEndian.PutUint32(pte.data[12:], numLBA)
	return pte
}

// Status returns the boot indicator byte. 0x80 marks the active partition,
// the low 7 bits must be zero.
func (pte *PartitionEntry) Status() uint8 { return pte.data[0] }

// Bootable reports whether the partition is marked active.
func (pte *PartitionEntry) Bootable() bool { return pte.data[0]&0x80 != 0 }

// Type returns the partition type, such as FAT32 with LBA addressing.
func (pte *PartitionEntry) Type() PartitionType { return PartitionType(pte.data[4]) }

// StartLBA returns the first sector of the partition. Zero means the entry is unused.
func (pte *PartitionEntry) StartLBA() uint32 {
	return binary.LittleEndian.Uint32(pte.data[8:12])
}

// NumberOfLBA returns the number of sectors in the partition.
func (pte *PartitionEntry) NumberOfLBA() uint32 {
	return binary.LittleEndian.Uint32(pte.data[12:16])
}

// Valid reports whether the entry points at a partition: reserved status
// bits clear and a non-zero start sector.
func (pte *PartitionEntry) Valid() bool {
	return pte.data[0]&0x7F == 0 && pte.StartLBA() != 0
}

// PartitionType is the system ID byte of a partition table entry.
type PartitionType byte

const (
	PartitionTypeUnused   PartitionType = 0x00
	PartitionTypeFAT12    PartitionType = 0x01
	PartitionTypeFAT16    PartitionType = 0x04
	PartitionTypeFAT16B   PartitionType = 0x06
	PartitionTypeFAT32CHS PartitionType = 0x0B
	PartitionTypeFAT32LBA PartitionType = 0x0C
	PartitionTypeFAT16LBA PartitionType = 0x0E
)
