// Package fdc emulates a Western Digital WD17xx floppy disk controller.
//
// The controller is driven entirely by register accesses: every Read and
// Write executes to completion on the calling goroutine. Busy is a status
// flag for software to poll, not a blocking state. A Controller must not be
// used from several goroutines at once; host adapters serialize access.
package fdc

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sergev/wdfdc/geometry"
)

// Register offsets of the task file.
type Register int

const (
	RegStatus  Register = 0 // read
	RegCommand Register = 0 // write
	RegTrack   Register = 1
	RegSector  Register = 2
	RegData    Register = 3
)

// Chip selects the controller variant.
type Chip int

const (
	WD1771 Chip = iota // single density, single sided
	WD1791
	WD1793
	WD1795
	WD1797
)

var chipNames = [...]string{"WD1771", "WD1791", "WD1793", "WD1795", "WD1797"}

// String returns the string representation of the Chip
func (c Chip) String() string {
	if c < 0 || int(c) >= len(chipNames) {
		return fmt.Sprintf("Chip(%d)", int(c))
	}
	return chipNames[c]
}

// ParseChip converts a part number like "WD1793" or "1793" into a Chip.
func ParseChip(s string) (Chip, error) {
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "WD") {
		name = "WD" + name
	}
	for i, n := range chipNames {
		if n == name {
			return Chip(i), nil
		}
	}
	return 0, fmt.Errorf("unknown controller chip %q", s)
}

// sideSelect reports a side select output driven by command bit 1.
func (c Chip) sideSelect() bool {
	return c == WD1795 || c == WD1797
}

// singleSided reports a chip that never takes the side from a command.
func (c Chip) singleSided() bool {
	return c == WD1771
}

// Drive is a disk drive with its inserted disk.
type Drive struct {
	Geometry *geometry.Geometry
	ReadOnly bool

	cylinder int   // physical head position
	size     int64 // image size, remeasured after Write Track
}

// NewDrive returns a drive holding the disk described by g.
func NewDrive(g *geometry.Geometry, readOnly bool) *Drive {
	d := &Drive{Geometry: g, ReadOnly: readOnly}
	d.measure()
	return d
}

// Cylinder returns the physical head position.
func (d *Drive) Cylinder() int {
	return d.cylinder
}

// Size returns the image size as of the last measurement.
func (d *Drive) Size() int64 {
	return d.size
}

// ready reports whether a disk image is present.
func (d *Drive) ready() bool {
	return d != nil && d.Geometry != nil && d.Geometry.Store() != nil
}

func (d *Drive) measure() error {
	if !d.ready() {
		d.size = 0
		return nil
	}
	size, err := d.Geometry.Store().Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	d.size = size
	return nil
}

// Transfer modes.
type mode int

const (
	modeIdle mode = iota
	modeRead
	modeReadAddress
	modeWrite
	modeWriteTrack
)

const (
	// The index bit shows on one status read out of indexPeriod.
	indexPeriod = 8

	maxSectorSize = geometry.MinSectorSize << geometry.MaxSizeCode
)

// Controller is one WD17xx chip.
type Controller struct {
	chip        Chip
	log         *slog.Logger
	onInterrupt func(asserted bool)

	// Task file.
	track   byte
	sector  byte
	data    byte
	command byte

	class  Class // of the last command, selects the status layout
	status Status
	intrq  bool

	// Driven by the host adapter.
	side          int
	doubleDensity bool
	driveType     int

	drive   *Drive
	stepDir int // +1 towards the spindle, -1 towards track 0

	// Transfer state.
	mode      mode
	byteIndex int
	byteCount int
	multi     bool
	current   geometry.Sector
	buf       [maxSectorSize]byte
	format    formatState

	statusReads int
}

// Option configures a Controller.
type Option func(*Controller)

// WithChip selects the controller variant. The default is WD1793.
func WithChip(chip Chip) Option {
	return func(c *Controller) { c.chip = chip }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithDriveType sets the drive type strap, MiniDrive or StandardDrive.
func WithDriveType(t int) Option {
	return func(c *Controller) { c.driveType = t }
}

// WithInterruptHandler registers fn to be called on every INTRQ change.
func WithInterruptHandler(fn func(asserted bool)) Option {
	return func(c *Controller) { c.onInterrupt = fn }
}

// New returns a controller in the reset state with no drive selected.
func New(opts ...Option) *Controller {
	c := &Controller{
		chip: WD1793,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("chip", c.chip.String())
	c.Reset()
	return c
}

// Chip returns the controller variant.
func (c *Controller) Chip() Chip {
	return c.chip
}

// Reset puts the registers and transfer state into their power-on values.
// The selected drive and the drive type strap are kept.
func (c *Controller) Reset() {
	c.track = 0
	c.sector = 1
	c.data = 0
	c.command = 0
	c.class = ClassI
	c.status = Status{}
	c.side = 0
	c.doubleDensity = false
	c.stepDir = 1
	c.endTransfer()
	c.setIntrq(false)
	c.updateTypeIStatus()
}

// SelectDrive makes d the current drive; nil deselects all drives.
// Changing drives in the middle of a byte phase ends the command: Not Ready
// when no disk is left under the head, Lost Data otherwise.
func (c *Controller) SelectDrive(d *Drive) {
	if d != c.drive && c.mode != modeIdle {
		c.log.Warn("drive changed during transfer", "mode", int(c.mode), "cmd", fmt.Sprintf("%02X", c.command))
		if d.ready() {
			c.status.LostData = true
		} else {
			c.status.NotReady = true
		}
		c.complete()
	}
	c.drive = d
	if c.class == ClassI || c.class == ClassIV {
		c.updateTypeIStatus()
	}
}

// Drive returns the current drive.
func (c *Controller) Drive() *Drive {
	return c.drive
}

// SetSide drives the side select input.
func (c *Controller) SetSide(side int) { c.side = side & 1 }

// Side returns the current side.
func (c *Controller) Side() int { return c.side }

// SetDoubleDensity drives the density input.
func (c *Controller) SetDoubleDensity(dd bool) { c.doubleDensity = dd }

// DoubleDensity reports the current density.
func (c *Controller) DoubleDensity() bool { return c.doubleDensity }

// Drive type straps.
const (
	MiniDrive     = 0 // 5.25"
	StandardDrive = 1 // 8"
)

// SetDriveType records the adapter's drive type strap.
func (c *Controller) SetDriveType(t int) { c.driveType = t }

// DriveType returns the drive type strap.
func (c *Controller) DriveType() int { return c.driveType }

// INTRQ reports the interrupt request output.
func (c *Controller) INTRQ() bool { return c.intrq }

// DRQ reports the data request output.
func (c *Controller) DRQ() bool { return c.status.DRQ }

// Busy reports a command in progress.
func (c *Controller) Busy() bool { return c.status.Busy }

// Status returns the current conditions without the side effects of a
// status register read.
func (c *Controller) Status() Status { return c.status }

// Class returns the class of the last command.
func (c *Controller) Class() Class { return c.class }

// Read returns the value of a register.
func (c *Controller) Read(reg Register) byte {
	switch reg {
	case RegStatus:
		return c.readStatus()
	case RegTrack:
		return c.track
	case RegSector:
		return c.sector
	case RegData:
		return c.readData()
	}
	c.log.Warn("read from unknown register", "reg", int(reg))
	return 0xFF
}

// Write stores a value into a register. Writing the command register
// starts a command.
func (c *Controller) Write(reg Register, value byte) {
	switch reg {
	case RegCommand:
		c.execute(value)
	case RegTrack:
		if c.status.Busy {
			c.log.Debug("track register write ignored while busy", "value", value)
			return
		}
		c.track = value
	case RegSector:
		if c.status.Busy {
			c.log.Debug("sector register write ignored while busy", "value", value)
			return
		}
		c.sector = value
	case RegData:
		c.writeData(value)
	default:
		c.log.Warn("write to unknown register", "reg", int(reg), "value", value)
	}
}

// readStatus renders the status register. Reading it clears INTRQ.
func (c *Controller) readStatus() byte {
	c.statusReads++
	c.status.NotReady = !c.drive.ready()
	if c.class == ClassI || c.class == ClassIV {
		c.status.Index = c.drive.ready() && c.statusReads%indexPeriod == 0
	}
	b := c.status.Byte(c.class)
	c.setIntrq(false)
	return b
}

// setIntrq drives the interrupt output. DRQ is never asserted together with it.
func (c *Controller) setIntrq(asserted bool) {
	if asserted {
		c.status.DRQ = false
	}
	if c.intrq == asserted {
		return
	}
	c.intrq = asserted
	if c.onInterrupt != nil {
		c.onInterrupt(asserted)
	}
}

// setDRQ asserts the data request output and withdraws INTRQ.
func (c *Controller) setDRQ() {
	c.setIntrq(false)
	c.status.DRQ = true
}

// complete ends the current command: Busy off, INTRQ on.
func (c *Controller) complete() {
	c.endTransfer()
	c.status.Busy = false
	c.setIntrq(true)
	c.log.Debug("command done", "status", fmt.Sprintf("%02X", c.status.Byte(c.class)))
}

// beginTransfer enters a byte phase of count bytes and raises DRQ.
func (c *Controller) beginTransfer(m mode, count int) {
	c.mode = m
	c.byteIndex = 0
	c.byteCount = count
	c.setDRQ()
}

// endTransfer drops any byte phase.
func (c *Controller) endTransfer() {
	c.mode = modeIdle
	c.byteIndex = 0
	c.byteCount = 0
	c.multi = false
	c.status.DRQ = false
}

// updateTypeIStatus refreshes the drive conditions shown by Type I status.
func (c *Controller) updateTypeIStatus() {
	c.status.NotReady = !c.drive.ready()
	c.status.Track0 = c.drive == nil || c.drive.cylinder == 0
	c.status.WriteProtect = c.drive != nil && c.drive.ReadOnly
}

// locate validates a sector address on the current drive, including the
// recording density of the track.
func (c *Controller) locate(track, side, sector int) (geometry.Sector, bool) {
	if !c.drive.ready() {
		c.log.Debug("drive not ready", "track", track, "side", side, "sector", sector)
		return geometry.Sector{}, false
	}
	g := c.drive.Geometry
	s, err := g.Validate(track, side, sector)
	if err != nil {
		c.log.Debug("record not found", "err", err)
		return geometry.Sector{}, false
	}
	if dd := g.Format(track, side).Density == geometry.DoubleDensity; dd != c.doubleDensity {
		c.log.Debug("density mismatch", "track", track, "side", side, "double", c.doubleDensity)
		return geometry.Sector{}, false
	}
	return s, true
}
