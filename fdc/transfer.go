package fdc

// readData returns the next byte of a read phase, or the data register
// when no read is in progress.
func (c *Controller) readData() byte {
	if !c.status.DRQ || (c.mode != modeRead && c.mode != modeReadAddress) {
		return c.data
	}
	c.data = c.buf[c.byteIndex]
	c.byteIndex++
	if c.byteIndex == c.byteCount {
		c.readDone()
	}
	return c.data
}

// readDone runs when the last byte of a sector or ID field has been taken.
func (c *Controller) readDone() {
	if c.mode != modeRead || !c.multi {
		c.complete()
		return
	}

	// Multiple sector read: Busy stays set until the sector after the
	// last one is not found.
	c.sector++
	if !c.loadSector() {
		return
	}
	c.beginTransfer(modeRead, c.current.Size)
}

// writeData latches a data register write and feeds a write phase.
func (c *Controller) writeData(value byte) {
	c.data = value
	if !c.status.DRQ {
		return
	}
	switch c.mode {
	case modeWrite:
		c.writeSectorByte(value)
	case modeWriteTrack:
		c.writeTrackByte(value)
	}
}

func (c *Controller) writeSectorByte(value byte) {
	c.buf[c.byteIndex] = value
	c.byteIndex++
	if c.byteIndex < c.byteCount {
		return
	}

	s := c.current
	if !c.drive.ready() {
		c.status.NotReady = true
		c.complete()
		return
	}
	if c.drive.ReadOnly {
		c.log.Debug("sector write refused on protected disk", "track", s.Track, "side", s.Head, "sector", s.Number)
		c.status.WriteFault = true
		c.complete()
		return
	}
	if err := c.drive.Geometry.WriteAt(s, c.buf[:s.Size]); err != nil {
		c.log.Error("sector write failed", "track", s.Track, "side", s.Head, "sector", s.Number, "err", err)
		c.status.WriteFault = true
		c.complete()
		return
	}
	if !c.multi {
		c.complete()
		return
	}

	c.sector++
	if !c.selectWriteSector() {
		return
	}
	c.beginTransfer(modeWrite, c.current.Size)
}
