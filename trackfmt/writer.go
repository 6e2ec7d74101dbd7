// Package trackfmt builds the raw byte streams that formatting software
// sends to a WD17xx data register during a Write Track command.
//
// The controller turns the special bytes F5-FE into clock-violating marks
// and CRC fields, so the stream holds marks and placeholders, not encoded
// flux: F5/F6 are MFM sync bytes, FC the index mark, FE the ID address
// mark, FB the data address mark and F7 writes the two CRC bytes.
package trackfmt

import (
	"errors"
	"fmt"

	"github.com/sergev/wdfdc/geometry"
)

// ErrUnwritable reports sector data holding the CRC mark, which cannot be
// written through Write Track.
var ErrUnwritable = errors.New("sector data contains F7")

// Raw stream bytes with a special meaning to the controller.
const (
	MarkSync  = 0xF5 // MFM: writes A1 with a missing clock
	MarkISync = 0xF6 // MFM: writes C2 with a missing clock
	MarkCRC   = 0xF7
	MarkData  = 0xFB
	MarkIndex = 0xFC
	MarkID    = 0xFE
)

// Writer accumulates a Write Track stream.
type Writer struct {
	buffer []byte
	mfm    bool
}

// NewWriter returns a writer for the given recording density.
func NewWriter(density geometry.Density) *Writer {
	return &Writer{
		buffer: make([]byte, 0, 10416),
		mfm:    density == geometry.DoubleDensity,
	}
}

// Bytes returns the stream written so far.
func (w *Writer) Bytes() []byte {
	return w.buffer
}

func (w *Writer) writeByte(b byte) {
	w.buffer = append(w.buffer, b)
}

func (w *Writer) writeBytes(b byte, n int) {
	for i := 0; i < n; i++ {
		w.writeByte(b)
	}
}

// Write n bytes of gap: FF for FM, 4E for MFM.
func (w *Writer) writeGap(n int) {
	if w.mfm {
		w.writeBytes(0x4E, n)
	} else {
		w.writeBytes(0xFF, n)
	}
}

// Write the zero run and sync bytes preceding a mark.
func (w *Writer) writeSync(syncByte byte) {
	if w.mfm {
		w.writeBytes(0x00, 12)
		w.writeBytes(syncByte, 3)
	} else {
		w.writeBytes(0x00, 6)
	}
}

func (w *Writer) writeIndexMarker() {
	w.writeSync(MarkISync)
	w.writeByte(MarkIndex)
}

// EncodeTrack appends a complete track: index, then ID and data fields of
// every sector, numbered from f.StartSector.
//
// Track layout, IBM 3740 (FM) and System 34 (MFM):
// ┌─────┬──────┬────┬───┬──┬───┬───┬────┬───┬──┬────┬───┬────┬───┬─────┐
// │gap4a│Index │gap1│   │ID│hdr│CRC│gap2│   │DM│data│CRC│gap3│   │gap4b│
// │     │Marker│    │   │FE│ 4 │F7 │    │   │FB│    │F7 │    │   │     │
// └─────┴──────┴────┴───┴──┴───┴───┴────┴───┴──┴────┴───┴────┴───┴─────┘
//                    └────────────────repeat─────────────────┘
func (w *Writer) EncodeTrack(f geometry.TrackFormat, track, side int, sectors [][]byte) error {
	if len(sectors) != f.SectorCount {
		return fmt.Errorf("track %d.%d: got %d sectors, expected %d", track, side, len(sectors), f.SectorCount)
	}
	sizeCode, ok := geometry.SizeCode(f.SectorSize)
	if !ok {
		return fmt.Errorf("track %d.%d: bad sector size %d", track, side, f.SectorSize)
	}
	for s, data := range sectors {
		if len(data) != f.SectorSize {
			return fmt.Errorf("sector %d.%d.%d: got %d bytes, expected %d", track, side, f.StartSector+s, len(data), f.SectorSize)
		}
		for _, b := range data {
			if b == MarkCRC {
				return fmt.Errorf("sector %d.%d.%d: %w", track, side, f.StartSector+s, ErrUnwritable)
			}
		}
	}

	gaps := computeGaps(f)

	// Index (before first sector)
	w.writeGap(gaps.start)
	w.writeIndexMarker()
	w.writeGap(gaps.index)

	// Write each sector
	for s, data := range sectors {
		// Sector identifier: track, side, sector, size
		w.writeSync(MarkSync)
		w.writeByte(MarkID)
		w.writeByte(byte(track))
		w.writeByte(byte(side))
		w.writeByte(byte(f.StartSector + s))
		w.writeByte(byte(sizeCode))
		w.writeByte(MarkCRC)

		// Gap between sector mark and data
		w.writeGap(gaps.header)

		// Data field
		w.writeSync(MarkSync)
		w.writeByte(MarkData)
		w.buffer = append(w.buffer, data...)
		w.writeByte(MarkCRC)

		// Gap between sectors
		w.writeGap(gaps.sector)
	}

	// Fill remaining track
	w.writeGap(gaps.end)
	return nil
}

// Encode returns the Write Track stream for one track.
func Encode(f geometry.TrackFormat, track, side int, sectors [][]byte) ([]byte, error) {
	w := NewWriter(f.Density)
	if err := w.EncodeTrack(f, track, side, sectors); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Blank returns the contents of a freshly formatted track.
func Blank(f geometry.TrackFormat, fill byte) [][]byte {
	sectors := make([][]byte, f.SectorCount)
	for i := range sectors {
		sectors[i] = make([]byte, f.SectorSize)
		for j := range sectors[i] {
			sectors[i][j] = fill
		}
	}
	return sectors
}

type gapLengths struct {
	start  int // gap4a: before the index mark
	index  int // gap1: after the index mark
	header int // gap2: between ID field and data field
	sector int // gap3: between sectors
	end    int // gap4b: rest of the track
}

// Compute gap lengths from density and sector size.
//
//	Density  Sector  gap4a  gap1  gap2  gap3
//	-----------------------------------------
//	FM       128     40     26    11    27
//	FM       256     40     26    11    42
//	FM       512     40     26    11    58
//	FM       1024+   40     26    11    138
//	-----------------------------------------
//	MFM      128     80     50    22    32
//	MFM      256     80     50    22    54
//	MFM      512     80     50    22    84 (80 with 9 sectors or less)
//	MFM      1024+   80     50    22    116
func computeGaps(f geometry.TrackFormat) gapLengths {
	if f.Density == geometry.SingleDensity {
		g := gapLengths{start: 40, index: 26, header: 11, end: 247}
		switch f.SectorSize {
		case 128:
			g.sector = 27
		case 256:
			g.sector = 42
		case 512:
			g.sector = 58
		default:
			g.sector = 138
		}
		return g
	}

	g := gapLengths{start: 80, index: 50, header: 22, end: 598}
	switch f.SectorSize {
	case 128:
		g.sector = 32
	case 256:
		g.sector = 54
	case 512:
		g.sector = 84
		if f.SectorCount <= 9 {
			g.sector = 80
		}
	default:
		g.sector = 116
	}
	return g
}
