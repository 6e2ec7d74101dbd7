package fdc

// Status bits common to all command classes.
const (
	StatusBusy         = 0x01
	StatusCRCError     = 0x08
	StatusWriteProtect = 0x40
	StatusNotReady     = 0x80
)

// Type I and Type IV status bits.
const (
	StatusIndex      = 0x02
	StatusTrack0     = 0x04
	StatusSeekError  = 0x10
	StatusHeadLoaded = 0x20
)

// Type II and Type III status bits.
const (
	StatusDRQ            = 0x02
	StatusLostData       = 0x04
	StatusRecordNotFound = 0x10
	StatusWriteFault     = 0x20 // record type on reads
)

// Status holds the controller conditions. The register value depends on
// the class of the last command, because bits 1, 2, 4 and 5 have
// different meanings for Type I/IV and Type II/III commands.
type Status struct {
	Busy         bool
	NotReady     bool
	WriteProtect bool
	CRCError     bool

	// Type I/IV.
	Index      bool
	Track0     bool
	SeekError  bool
	HeadLoaded bool

	// Type II/III.
	DRQ            bool
	LostData       bool
	RecordNotFound bool
	WriteFault     bool
}

// Byte packs the status register for the given command class.
func (s Status) Byte(class Class) byte {
	var b byte
	set := func(cond bool, bit byte) {
		if cond {
			b |= bit
		}
	}
	set(s.Busy, StatusBusy)
	set(s.CRCError, StatusCRCError)
	set(s.WriteProtect, StatusWriteProtect)
	set(s.NotReady, StatusNotReady)

	switch class {
	case ClassII, ClassIII:
		set(s.DRQ, StatusDRQ)
		set(s.LostData, StatusLostData)
		set(s.RecordNotFound, StatusRecordNotFound)
		set(s.WriteFault, StatusWriteFault)
	default:
		set(s.Index, StatusIndex)
		set(s.Track0, StatusTrack0)
		set(s.SeekError, StatusSeekError)
		set(s.HeadLoaded, StatusHeadLoaded)
	}
	return b
}

// clearErrors drops every error and data condition, keeping Busy and the
// drive conditions.
func (s *Status) clearErrors() {
	s.CRCError = false
	s.SeekError = false
	s.DRQ = false
	s.LostData = false
	s.RecordNotFound = false
	s.WriteFault = false
	s.WriteProtect = false
}
