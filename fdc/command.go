package fdc

import "fmt"

// Class is the command type selected by the top four bits of a command.
type Class int

const (
	ClassI   Class = 1 // restore, seek, step
	ClassII  Class = 2 // read and write sector
	ClassIII Class = 3 // read address, read track, write track
	ClassIV  Class = 4 // force interrupt
)

// Command bits.
const (
	cmdMask = 0xF0

	// Type I commands: cccuhVrr, where
	//     ccc = command number
	//     u = update track register (step commands)
	//     h = head load
	//     V = verify
	//     rr = step rate, ignored
	cmdRestore = 0x00
	cmdSeek    = 0x10
	cmdStep    = 0x20
	cmdStepIn  = 0x40
	cmdStepOut = 0x60
	flagUpdate = 0x10
	flagHead   = 0x08
	flagVerify = 0x04

	// Type II commands: cccmSEC0, where
	//     m = multiple sectors
	//     S = side (WD1791/93 side compare value)
	//     E = head settle delay, ignored
	//     C = side compare (WD1791/93) or side select output (WD1795/97, bit 1)
	cmdRead    = 0x80
	cmdWrite   = 0xA0
	flagMulti  = 0x10
	flagSide   = 0x08
	flagSelect = 0x02

	// Type III commands.
	cmdReadAddress = 0xC0
	cmdReadTrack   = 0xE0
	cmdWriteTrack  = 0xF0

	// Type IV command: 1101iiii, where iiii selects the interrupt conditions.
	//     0000 terminates the command without an interrupt.
	cmdForceInterrupt = 0xD0
	intImmediate      = 0x08
	intConditions     = 0x0F
)

// Command is a decoded command byte: one of TypeI, TypeII, TypeIII or TypeIV.
type Command interface {
	Class() Class
	fmt.Stringer
}

// StepOp is the head movement of a Type I command.
type StepOp int

const (
	Restore StepOp = iota
	Seek
	Step
	StepIn
	StepOut
)

var stepNames = [...]string{"RESTORE", "SEEK", "STEP", "STEP-IN", "STEP-OUT"}

// TypeI moves the head.
type TypeI struct {
	Op       StepOp
	Update   bool // step commands commit the move to the track register
	HeadLoad bool
	Verify   bool
	Side     int // side select output on WD1795/97
}

func (TypeI) Class() Class { return ClassI }

func (c TypeI) String() string {
	s := stepNames[c.Op]
	if c.Update && c.Op >= Step {
		s += "-U"
	}
	return s
}

// TypeII transfers one or more sectors.
type TypeII struct {
	Write  bool
	Multi  bool
	Side   int  // side bit from the command byte, see Controller.sideFrom
	Select bool // bit 1: side compare enable, or side select output
}

func (TypeII) Class() Class { return ClassII }

func (c TypeII) String() string {
	s := "READ"
	if c.Write {
		s = "WRITE"
	}
	if c.Multi {
		s += "-M"
	}
	return s
}

// TrackOp is the operation of a Type III command.
type TrackOp int

const (
	ReadAddress TrackOp = iota
	ReadTrack
	WriteTrack
)

// TypeIII operates on whole tracks or ID fields.
type TypeIII struct {
	Op   TrackOp
	Side int // side select output on WD1795/97
}

func (TypeIII) Class() Class { return ClassIII }

func (c TypeIII) String() string {
	switch c.Op {
	case ReadAddress:
		return "READ-ADDRESS"
	case ReadTrack:
		return "READ-TRACK"
	default:
		return "WRITE-TRACK"
	}
}

// TypeIV is Force Interrupt.
type TypeIV struct {
	Conditions byte // iiii bits
}

func (TypeIV) Class() Class { return ClassIV }

func (c TypeIV) String() string {
	return fmt.Sprintf("FORCE-INTERRUPT(%X)", c.Conditions)
}

// Terminate reports a Force Interrupt with no conditions.
func (c TypeIV) Terminate() bool {
	return c.Conditions == 0
}

// Immediate reports the immediate interrupt condition.
func (c TypeIV) Immediate() bool {
	return c.Conditions&intImmediate != 0
}

// Decode splits a command byte into its class and flags.
func Decode(b byte) Command {
	side := int(b>>1) & 1
	switch b & cmdMask {
	case cmdRestore:
		return TypeI{Op: Restore, HeadLoad: b&flagHead != 0, Verify: b&flagVerify != 0, Side: side}
	case cmdSeek:
		return TypeI{Op: Seek, HeadLoad: b&flagHead != 0, Verify: b&flagVerify != 0, Side: side}
	case cmdStep, cmdStep | flagUpdate:
		return TypeI{Op: Step, Update: b&flagUpdate != 0, HeadLoad: b&flagHead != 0, Verify: b&flagVerify != 0, Side: side}
	case cmdStepIn, cmdStepIn | flagUpdate:
		return TypeI{Op: StepIn, Update: b&flagUpdate != 0, HeadLoad: b&flagHead != 0, Verify: b&flagVerify != 0, Side: side}
	case cmdStepOut, cmdStepOut | flagUpdate:
		return TypeI{Op: StepOut, Update: b&flagUpdate != 0, HeadLoad: b&flagHead != 0, Verify: b&flagVerify != 0, Side: side}
	case cmdRead, cmdRead | flagMulti, cmdWrite, cmdWrite | flagMulti:
		return TypeII{
			Write:  b&0xE0 == cmdWrite,
			Multi:  b&flagMulti != 0,
			Side:   int(b>>3) & 1,
			Select: b&flagSelect != 0,
		}
	case cmdReadAddress:
		return TypeIII{Op: ReadAddress, Side: side}
	case cmdReadTrack:
		return TypeIII{Op: ReadTrack, Side: side}
	case cmdWriteTrack:
		return TypeIII{Op: WriteTrack, Side: side}
	default: // cmdForceInterrupt
		return TypeIV{Conditions: b & intConditions}
	}
}
