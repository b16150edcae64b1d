package fat

// cacheOption selects how a sector is fetched and which status bits are set
// on the cache once it holds the sector.
type cacheOption uint8

const (
	// cacheForWrite marks the sector dirty. The caller is about to modify it.
	cacheForWrite cacheOption = 1 << iota
	// cacheMirrorFAT writes the sector to the second FAT copy as well on sync.
	cacheMirrorFAT
	// cacheNoRead skips the device read. The caller overwrites the whole sector.
	cacheNoRead

	cacheForRead cacheOption = 0

	cacheStatusMask = cacheForWrite | cacheMirrorFAT
)

// sectorCache is the single sector-sized window all volume I/O goes through.
// At most one sector is held at a time and a fetch of a different sector
// syncs the previous one first.
type sectorCache struct {
	bd     BlockDevice
	lbn    lba         // Sector held in buf, badLBA if none.
	status cacheOption // cacheForWrite: dirty. cacheMirrorFAT: mirror on sync.
	// mirrorOffset is the distance in blocks between the two FAT copies.
	mirrorOffset lba
	buf          [blockSize]byte
}

func (c *sectorCache) init(bd BlockDevice) {
	c.bd = bd
	c.mirrorOffset = 0
	c.invalidate()
}

// fetch makes lbn the cached sector and returns the buffer. The returned
// pointer is only valid until the next fetch.
func (c *sectorCache) fetch(lbn lba, opt cacheOption) (*[blockSize]byte, error) {
	if c.lbn != lbn {
		if err := c.sync(); err != nil {
			return nil, err
		}
		if opt&cacheNoRead == 0 {
			if err := c.bd.ReadBlocks(c.buf[:], int64(lbn)); err != nil {
				c.invalidate() // Contents are undefined after a failed read.
				return nil, &IOError{Op: "read", Block: uint32(lbn), Err: err}
			}
		}
		c.status = 0
		c.lbn = lbn
	}
	c.status |= opt & cacheStatusMask
	return &c.buf, nil
}

// sync writes the sector back if dirty, and to the second FAT if requested.
// The dirty flag survives a failed write so a later sync retries it.
func (c *sectorCache) sync() error {
	if c.status&cacheForWrite == 0 {
		return nil
	}
	if err := c.bd.WriteBlocks(c.buf[:], int64(c.lbn)); err != nil {
		return &IOError{Op: "write", Block: uint32(c.lbn), Err: err}
	}
	if c.status&cacheMirrorFAT != 0 {
		mirror := c.lbn + c.mirrorOffset
		if err := c.bd.WriteBlocks(c.buf[:], int64(mirror)); err != nil {
			return &IOError{Op: "write", Block: uint32(mirror), Err: err}
		}
	}
	c.status &^= cacheForWrite
	return nil
}

// invalidate drops the cached sector without writing it.
func (c *sectorCache) invalidate() {
	c.status = 0
	c.lbn = badLBA
}

// clear syncs and invalidates the cache, handing out the buffer as scratch
// space. The buffer is not associated with any sector afterwards.
func (c *sectorCache) clear() (*[blockSize]byte, error) {
	if err := c.sync(); err != nil {
		return nil, err
	}
	c.invalidate()
	return &c.buf, nil
}

func (c *sectorCache) dirty() bool { return c.status&cacheForWrite != 0 }
