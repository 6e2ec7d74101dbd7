package fdc

import (
	"math/bits"
)

// Address marks recognized in a Write Track stream.
const (
	markIndex = 0xFC
	markID    = 0xFE
	markData  = 0xFB
	markCRC   = 0xF7 // writes two CRC bytes on the real chip
)

// Write Track phases.
type phase int

const (
	phaseGap1   phase = iota // gap before the index mark
	phaseGap2                // gap before an ID address mark
	phaseHeader              // track, side, sector, size code, CRC
	phaseGap3                // gap before the data address mark
	phaseData                // sector data up to the CRC mark
)

var phaseNames = [...]string{"gap1", "gap2", "header", "gap3", "data"}

func (p phase) String() string { return phaseNames[p] }

// formatState tracks a Write Track command.
type formatState struct {
	phase            phase
	header           [5]byte
	headerIndex      int
	gapCount         int    // bytes seen in the current gap
	gapLengths       [3]int // of the last gap1, gap2 and gap3
	sizeCode         int    // of the last sector written
	sectorsFormatted int
}

func (f *formatState) reset() {
	*f = formatState{}
}

// startWriteTrack enters the Write Track byte phase for the current track.
func (c *Controller) startWriteTrack() {
	if c.drive != nil && c.drive.ReadOnly {
		c.status.WriteProtect = true
		c.complete()
		return
	}
	s, ok := c.locate(int(c.track), c.side, c.drive.trackStart(int(c.track), c.side))
	if !ok {
		c.status.RecordNotFound = true
		c.complete()
		return
	}
	c.current = s
	c.format.reset()
	c.beginTransfer(modeWriteTrack, 0)
}

// trackStart returns the first sector number of a track.
func (d *Drive) trackStart(track, side int) int {
	if !d.ready() {
		return 0
	}
	return d.Geometry.Format(track, side).StartSector
}

// writeTrackByte feeds one raw byte of a Write Track stream.
func (c *Controller) writeTrackByte(value byte) {
	f := &c.format
	switch f.phase {
	case phaseGap1:
		if value == 0x00 || value == markIndex {
			f.endGap(0, phaseGap2)
			return
		}
		f.gapCount++
	case phaseGap2:
		if value == markID {
			f.endGap(1, phaseHeader)
			f.headerIndex = 0
			return
		}
		f.gapCount++
	case phaseHeader:
		f.header[f.headerIndex] = value
		f.headerIndex++
		if f.headerIndex == len(f.header) {
			f.phase = phaseGap3
		}
	case phaseGap3:
		if value == markData {
			f.endGap(2, phaseData)
			c.byteIndex = 0
			c.byteCount = c.current.Size
			clear(c.buf[:])
			return
		}
		f.gapCount++
	case phaseData:
		if value == markCRC {
			c.formatSector()
			return
		}
		if c.byteIndex < len(c.buf) {
			c.buf[c.byteIndex] = value
		}
		c.byteIndex++
	}
}

func (f *formatState) endGap(gap int, next phase) {
	f.gapLengths[gap] = f.gapCount
	f.gapCount = 0
	f.phase = next
}

// formatSector stores the data field just streamed. Sectors are numbered
// in the order they were formatted, from the first sector of the track.
func (c *Controller) formatSector() {
	f := &c.format
	track, side := int(c.track), c.side
	if !c.drive.ready() {
		c.status.NotReady = true
		c.complete()
		return
	}
	tf := c.drive.Geometry.Format(track, side)

	code := -1
	if c.byteIndex > 0 {
		code = bits.Len(uint(c.byteIndex)) - 1 - 7
	}
	if code < 0 || code > tf.SizeCode() {
		c.log.Warn("bad sector length in write track", "track", track, "side", side,
			"bytes", c.byteIndex, "id", f.header)
		code = 0
	}
	f.sizeCode = code
	f.sectorsFormatted++

	sector := tf.StartSector + f.sectorsFormatted - 1
	s, ok := c.locate(track, side, sector)
	if !ok {
		c.status.RecordNotFound = true
		c.complete()
		return
	}
	if err := c.drive.Geometry.WriteAt(s, c.buf[:s.Size]); err != nil {
		c.log.Error("write track failed", "track", track, "side", side, "sector", sector, "err", err)
		c.status.WriteFault = true
		c.complete()
		return
	}
	c.log.Debug("sector formatted", "track", track, "side", side, "sector", sector,
		"id", f.header, "gaps", f.gapLengths)

	if f.sectorsFormatted < tf.SectorCount {
		f.phase = phaseGap2
		f.gapCount = 0
		c.byteIndex = 0
		return
	}

	c.status.LostData = false
	c.complete()
	if err := c.drive.measure(); err != nil {
		c.log.Error("cannot measure image", "err", err)
	}
}
