package adapter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sergev/wdfdc/fdc"
)

// Drive select latch bits.
const (
	SelectDrive0 = 1 << iota
	SelectDrive1
	SelectDrive2
	SelectDrive3
	SelectSide // 0 = front, 1 = back
	SelectPrecomp
	SelectWait
	SelectMFM // double density

	SelectDriveMask = SelectDrive0 | SelectDrive1 | SelectDrive2 | SelectDrive3
)

// Bits returned by a read of the latch port.
const (
	SignalINTRQ = 1 << 0
	SignalDRQ   = 1 << 1
)

func init() {
	RegisterAdapter("latch", "WD17xx at base+0..3, drive select latch at base+4", func(opts Options) (HostAdapter, error) {
		return NewLatchBoard(opts, 0, 4, 5), nil
	})
	RegisterAdapter("trs80", "drive select latch at base+0, WD17xx at base+12..15", func(opts Options) (HostAdapter, error) {
		return NewLatchBoard(opts, 12, 0, 16), nil
	})
}

// LatchBoard is a controller with a write-only drive select latch, as
// found on TRS-80 style expansion interfaces.
type LatchBoard struct {
	mu     sync.Mutex
	name   string
	fdc    *fdc.Controller
	drives [MaxDrives]*fdc.Drive
	latch  byte
	log    *slog.Logger

	fdcOffset   int
	latchOffset int
	ports       int
}

// NewLatchBoard creates a board decoding ports ports, with the controller
// registers at fdcOffset and the select latch at latchOffset.
func NewLatchBoard(opts Options, fdcOffset, latchOffset, ports int) *LatchBoard {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	name := opts.Name
	if name == "" {
		name = "latch"
	}
	log = log.With("board", name)
	return &LatchBoard{
		name:        name,
		fdc:         fdc.New(fdc.WithChip(opts.Chip), fdc.WithDriveType(opts.DriveType), fdc.WithLogger(log)),
		log:         log,
		fdcOffset:   fdcOffset,
		latchOffset: latchOffset,
		ports:       ports,
	}
}

func (b *LatchBoard) Name() string { return b.name }

func (b *LatchBoard) Ports() int { return b.ports }

func (b *LatchBoard) Controller() *fdc.Controller { return b.fdc }

func (b *LatchBoard) PortMap() PortMap {
	return PortMap{FDC: b.fdcOffset, Latch: b.latchOffset}
}

// In reads a controller register or the latch signals.
func (b *LatchBoard) In(offset int) byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if reg, ok := b.register(offset); ok {
		return b.fdc.Read(reg)
	}
	if offset == b.latchOffset {
		return b.signals()
	}
	b.log.Debug("read from unused port", "offset", offset)
	return 0xFF
}

// Out writes a controller register or the select latch.
func (b *LatchBoard) Out(offset int, value byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if reg, ok := b.register(offset); ok {
		b.fdc.Write(reg, value)
		return
	}
	if offset == b.latchOffset {
		b.writeLatch(value)
		return
	}
	b.log.Debug("write to unused port", "offset", offset, "value", value)
}

// Signals returns the interrupt and data request lines.
func (b *LatchBoard) Signals() (intrq, drq bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fdc.INTRQ(), b.fdc.DRQ()
}

// Insert puts a disk into a drive slot; nil empties the slot.
func (b *LatchBoard) Insert(slot int, d *fdc.Drive) error {
	if slot < 0 || slot >= MaxDrives {
		return fmt.Errorf("drive slot %d out of range 0..%d", slot, MaxDrives-1)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.drives[slot] = d
	if b.selected() == slot {
		b.fdc.SelectDrive(d)
	}
	return nil
}

// PrintStatus prints board status information to stdout
func (b *LatchBoard) PrintStatus() {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.fdc
	drives := "5.25\""
	if c.DriveType() == fdc.StandardDrive {
		drives = "8\""
	}
	fmt.Printf("Board: %s, %s, %s drives\n", b.name, c.Chip(), drives)
	fmt.Printf("Select latch: %02X\n", b.latch)
	fmt.Printf("Status: %02X (type %d), INTRQ=%v DRQ=%v\n", c.Status().Byte(c.Class()), c.Class(), c.INTRQ(), c.DRQ())
	for slot, d := range b.drives {
		if d == nil {
			fmt.Printf("Drive %d: empty\n", slot)
			continue
		}
		g := d.Geometry
		mode := "read-write"
		if d.ReadOnly {
			mode = "read-only"
		}
		fmt.Printf("Drive %d: %d tracks, %d side(s), %d bytes, %s, head at cylinder %d\n",
			slot, g.Tracks(), g.Heads(), d.Size(), mode, d.Cylinder())
	}
}

func (b *LatchBoard) register(offset int) (fdc.Register, bool) {
	n := offset - b.fdcOffset
	if n < 0 || n > int(fdc.RegData) {
		return 0, false
	}
	return fdc.Register(n), true
}

func (b *LatchBoard) signals() byte {
	var v byte
	if b.fdc.INTRQ() {
		v |= SignalINTRQ
	}
	if b.fdc.DRQ() {
		v |= SignalDRQ
	}
	return v
}

// selected returns the slot chosen by the latch, or -1.
func (b *LatchBoard) selected() int {
	switch b.latch & SelectDriveMask {
	case SelectDrive0:
		return 0
	case SelectDrive1:
		return 1
	case SelectDrive2:
		return 2
	case SelectDrive3:
		return 3
	}
	return -1
}

func (b *LatchBoard) writeLatch(value byte) {
	b.latch = value
	if value&SelectSide != 0 {
		b.fdc.SetSide(1)
	} else {
		b.fdc.SetSide(0)
	}
	b.fdc.SetDoubleDensity(value&SelectMFM != 0)

	slot := b.selected()
	if slot < 0 {
		if value&SelectDriveMask != 0 {
			b.log.Warn("several drives selected", "latch", value)
		}
		b.fdc.SelectDrive(nil)
		return
	}
	b.fdc.SelectDrive(b.drives[slot])
}
