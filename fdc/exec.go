package fdc

import (
	"fmt"

	"github.com/sergev/wdfdc/geometry"
)

// execute decodes and starts a command.
func (c *Controller) execute(b byte) {
	cmd := Decode(b)
	if _, ok := cmd.(TypeIV); !ok && c.status.Busy {
		c.log.Debug("command ignored while busy", "cmd", cmd.String(), "byte", fmt.Sprintf("%02X", b))
		return
	}
	c.log.Debug("command", "cmd", cmd.String(), "byte", fmt.Sprintf("%02X", b),
		"track", c.track, "sector", c.sector, "data", c.data)
	c.command = b

	switch cmd := cmd.(type) {
	case TypeI:
		c.typeI(cmd)
	case TypeII:
		c.typeII(cmd)
	case TypeIII:
		c.typeIII(cmd)
	case TypeIV:
		c.forceInterrupt(cmd)
	}
}

// typeI executes restore, seek and step commands.
func (c *Controller) typeI(cmd TypeI) {
	c.class = ClassI
	c.endTransfer()
	c.setIntrq(false)
	c.status.Busy = true
	c.status.CRCError = false
	c.status.SeekError = false
	c.status.HeadLoaded = cmd.HeadLoad
	if c.chip.sideSelect() {
		c.side = cmd.Side
	}

	switch cmd.Op {
	case Restore:
		c.stepDir = -1
		c.track = 0
		c.moveHead(-MaxCylinder)
	case Seek:
		delta := int(c.data) - int(c.track)
		if delta > 0 {
			c.stepDir = 1
		} else if delta < 0 {
			c.stepDir = -1
		}
		c.track = c.data
		c.moveHead(delta)
	case Step:
		c.step(cmd.Update)
	case StepIn:
		c.stepDir = 1
		c.step(cmd.Update)
	case StepOut:
		c.stepDir = -1
		c.step(cmd.Update)
	}

	if cmd.Verify {
		if _, ok := c.locate(int(c.track), c.side, 1); !ok {
			c.status.SeekError = true
		}
	}
	c.updateTypeIStatus()
	c.complete()
}

// MaxCylinder is the last position the head can be stepped to.
const MaxCylinder = geometry.MaxTracks - 1

// step pulses the head once in the last direction.
func (c *Controller) step(update bool) {
	c.moveHead(c.stepDir)
	if !update {
		return
	}
	if c.stepDir > 0 && c.track < 0xFF {
		c.track++
	} else if c.stepDir < 0 && c.track > 0 {
		c.track--
	}
}

// moveHead moves the physical head by delta cylinders, stopping at the ends.
func (c *Controller) moveHead(delta int) {
	if c.drive == nil {
		return
	}
	cyl := c.drive.cylinder + delta
	if cyl < 0 {
		cyl = 0
	}
	if cyl > MaxCylinder {
		cyl = MaxCylinder
	}
	c.drive.cylinder = cyl
}

// sideFor returns the side used by a Type II command.
func (c *Controller) sideFor(cmd TypeII) int {
	switch {
	case c.chip.singleSided():
		return c.side
	case c.chip.sideSelect():
		if cmd.Select {
			return 1
		}
		return 0
	case cmd.Select:
		// Side compare enabled: the expected side comes from bit 3.
		return cmd.Side
	}
	return c.side
}

// typeII starts a sector read or write.
func (c *Controller) typeII(cmd TypeII) {
	c.class = ClassII
	c.endTransfer()
	c.setIntrq(false)
	c.status.clearErrors()
	c.status.Busy = true
	c.status.HeadLoaded = true
	c.side = c.sideFor(cmd)

	if cmd.Write {
		c.startWrite(cmd.Multi)
	} else {
		c.startRead(cmd.Multi)
	}
}

func (c *Controller) startRead(multi bool) {
	if !c.loadSector() {
		return
	}
	c.beginTransfer(modeRead, c.current.Size)
	c.multi = multi
}

// loadSector reads the addressed sector into the buffer. On failure it
// sets Record Not Found and completes the command.
func (c *Controller) loadSector() bool {
	s, ok := c.locate(int(c.track), c.side, int(c.sector))
	if !ok {
		c.status.RecordNotFound = true
		c.complete()
		return false
	}
	if err := c.drive.Geometry.ReadAt(s, c.buf[:s.Size]); err != nil {
		c.log.Error("sector read failed", "track", s.Track, "side", s.Head, "sector", s.Number, "err", err)
		c.status.RecordNotFound = true
		c.complete()
		return false
	}
	c.current = s
	return true
}

// startWrite enters the Write byte phase. A protected disk still takes the
// data and reports Write Protect; the sector write then fails with Write
// Fault.
func (c *Controller) startWrite(multi bool) {
	if c.drive != nil && c.drive.ReadOnly {
		c.status.WriteProtect = true
	}
	if !c.selectWriteSector() {
		return
	}
	c.beginTransfer(modeWrite, c.current.Size)
	c.multi = multi
}

// selectWriteSector validates the addressed sector for writing.
func (c *Controller) selectWriteSector() bool {
	s, ok := c.locate(int(c.track), c.side, int(c.sector))
	if !ok {
		c.status.RecordNotFound = true
		c.complete()
		return false
	}
	c.current = s
	return true
}

// typeIII starts read address, read track or write track.
func (c *Controller) typeIII(cmd TypeIII) {
	c.class = ClassIII
	c.endTransfer()
	c.setIntrq(false)
	c.status.clearErrors()
	c.status.Busy = true
	c.status.HeadLoaded = true
	if c.chip.sideSelect() {
		c.side = cmd.Side
	}

	switch cmd.Op {
	case ReadAddress:
		c.readAddress()
	case ReadTrack:
		c.log.Warn("read track is not implemented", "track", c.track, "side", c.side)
		c.status.Busy = true
		c.setDRQ()
	case WriteTrack:
		c.startWriteTrack()
	}
}

// readAddress returns the ID field of the addressed sector.
// CRC bytes are fixed placeholders.
func (c *Controller) readAddress() {
	s, ok := c.locate(int(c.track), c.side, int(c.sector))
	if !ok {
		c.status.RecordNotFound = true
		c.complete()
		return
	}
	f := c.drive.Geometry.Format(s.Track, s.Head)
	sector := int(c.sector)
	if f.StartSector < sector {
		sector = f.StartSector
	}
	c.buf[0] = c.track
	c.buf[1] = 0
	c.buf[2] = byte(sector)
	c.buf[3] = byte(f.SizeCode())
	c.buf[4] = 0xAA
	c.buf[5] = 0x55

	// The sector register receives the track address, as on the real chip.
	c.sector = c.track
	c.beginTransfer(modeReadAddress, 6)
}

// forceInterrupt stops any command. It never sets Busy.
func (c *Controller) forceInterrupt(cmd TypeIV) {
	c.class = ClassIV
	c.endTransfer()
	c.status.Busy = false
	switch {
	case cmd.Terminate():
		c.setIntrq(false)
	case cmd.Immediate():
		c.setIntrq(true)
	default:
		c.log.Debug("interrupt condition not implemented", "conditions", cmd.Conditions)
	}
	c.updateTypeIStatus()
}
