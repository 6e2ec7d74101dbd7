// Package adapter models host adapter boards: the glue between a host bus
// and a WD17xx controller with its drive select latch.
package adapter

import (
	"log/slog"

	"github.com/sergev/wdfdc/fdc"
)

// MaxDrives is the number of drive select lines of a board.
const MaxDrives = 4

// HostAdapter defines the interface for floppy controller boards.
// Port offsets are relative to the board's base address.
type HostAdapter interface {
	// Name returns the board name
	Name() string

	// Ports returns the number of I/O ports decoded by the board
	Ports() int

	// In reads a port
	In(offset int) byte

	// Out writes a port
	Out(offset int, value byte)

	// PortMap returns where the controller and the latch are decoded
	PortMap() PortMap

	// Signals returns the interrupt and data request lines
	Signals() (intrq, drq bool)

	// Insert puts a disk into a drive slot; nil empties the slot
	Insert(slot int, d *fdc.Drive) error

	// Controller returns the controller chip of the board
	Controller() *fdc.Controller

	// PrintStatus prints board status information to stdout
	PrintStatus()
}

// Options configure a new board.
type Options struct {
	Name      string
	Chip      fdc.Chip
	DriveType int // fdc.MiniDrive or fdc.StandardDrive
	Logger    *slog.Logger
}

// PortMap gives the offsets of the controller registers and of the drive
// select latch within a board's port range.
type PortMap struct {
	FDC   int
	Latch int
}
