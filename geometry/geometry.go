// Package geometry maps soft-sector floppy addresses (track, head, sector)
// onto byte offsets of a flat disk image.
//
// Every (track, head) pair carries its own TrackFormat, so mixed layouts
// such as a single-density track 0 followed by double-density data tracks
// are described by several DefineFormat calls over different ranges.
// Track data regions are laid out back to back, in one of two orders:
//
//	interleaved (track-major): T0H0, T0H1, T1H0, T1H1, ...
//	sequential  (head-major):  T0H0, T1H0, ..., T0H1, T1H1, ...
package geometry

import (
	"errors"
	"fmt"
)

const (
	MaxTracks = 256 // track register is one byte wide
	MaxHeads  = 2

	MinSectorSize = 128
	MaxSizeCode   = 4 // 128 << 4 = 2048 bytes
	MaxSectors    = 255
)

// ErrNoStore is wrapped into IoError when no image is attached.
var ErrNoStore = errors.New("no block store attached")

// Density of the recording on a track.
type Density int

const (
	SingleDensity Density = iota // FM
	DoubleDensity                // MFM
)

// String returns the string representation of the Density
func (d Density) String() string {
	switch d {
	case SingleDensity:
		return "single"
	case DoubleDensity:
		return "double"
	default:
		return fmt.Sprintf("Density(%d)", int(d))
	}
}

// ParseDensity accepts the names produced by Density.String.
func ParseDensity(s string) (Density, error) {
	switch s {
	case "single", "sd", "fm":
		return SingleDensity, nil
	case "double", "dd", "mfm":
		return DoubleDensity, nil
	}
	return 0, fmt.Errorf("unknown density %q", s)
}

// Range is an inclusive range of track or head numbers.
type Range struct {
	First, Last int
}

// Span returns the inclusive range [first, last].
func Span(first, last int) Range {
	return Range{First: first, Last: last}
}

// Only returns a range holding the single value n.
func Only(n int) Range {
	return Range{First: n, Last: n}
}

// TrackFormat describes the layout of one side of one track.
type TrackFormat struct {
	Density     Density
	SectorCount int
	SectorSize  int   // bytes, power of two from 128 to 2048
	StartSector int   // number of the first sector, 0 or 1
	ByteOffset  int64 // start of the track data inside the image
}

// Size returns the number of image bytes occupied by the track.
func (f TrackFormat) Size() int64 {
	return int64(f.SectorCount) * int64(f.SectorSize)
}

// SizeCode returns the ID field size code of the track sectors.
func (f TrackFormat) SizeCode() int {
	code, _ := SizeCode(f.SectorSize)
	return code
}

// SizeCode returns i such that 128<<i == size.
// The second result is false when size is not a legal sector size.
func SizeCode(size int) (int, bool) {
	for i := 0; i <= MaxSizeCode; i++ {
		if MinSectorSize<<i == size {
			return i, true
		}
	}
	return 0, false
}

// Geometry is the per-drive format table together with the image it addresses.
type Geometry struct {
	tracks      int
	heads       int
	interleaved bool
	table       [][]TrackFormat // indexed by [track][head]
	store       BlockStore
}

// New allocates an empty geometry. No track is formatted until DefineFormat.
func New(tracks, heads int, interleaved bool) (*Geometry, error) {
	if tracks < 1 || tracks > MaxTracks {
		return nil, &ArgumentError{Op: "new", Msg: fmt.Sprintf("track count %d not in [1, %d]", tracks, MaxTracks)}
	}
	if heads < 1 || heads > MaxHeads {
		return nil, &ArgumentError{Op: "new", Msg: fmt.Sprintf("head count %d not in [1, %d]", heads, MaxHeads)}
	}
	g := &Geometry{
		interleaved: interleaved,
	}
	g.grow(tracks, heads)
	return g, nil
}

// Tracks returns the number of tracks.
func (g *Geometry) Tracks() int { return g.tracks }

// Heads returns the number of heads (sides).
func (g *Geometry) Heads() int { return g.heads }

// Interleaved reports whether the image is laid out track-major.
func (g *Geometry) Interleaved() bool { return g.interleaved }

// grow extends the table to at least tracks x heads, keeping existing cells.
func (g *Geometry) grow(tracks, heads int) {
	if tracks < g.tracks {
		tracks = g.tracks
	}
	if heads < g.heads {
		heads = g.heads
	}
	table := make([][]TrackFormat, tracks)
	for t := range table {
		table[t] = make([]TrackFormat, heads)
		if t < len(g.table) {
			copy(table[t], g.table[t])
		}
	}
	g.table = table
	g.tracks = tracks
	g.heads = heads
}

// DefineFormat declares the format of every track and head in the given
// ranges and recomputes the image offsets of all tracks.
// The geometry grows when the ranges exceed the current bounds.
func (g *Geometry) DefineFormat(tracks, heads Range, density Density, sectorsPerTrack, sectorSize, startSector int) error {
	if err := checkRange("track", tracks, MaxTracks); err != nil {
		return err
	}
	if err := checkRange("head", heads, MaxHeads); err != nil {
		return err
	}
	if density != SingleDensity && density != DoubleDensity {
		return &ArgumentError{Op: "define format", Msg: fmt.Sprintf("bad density %d", int(density))}
	}
	if sectorsPerTrack < 1 || sectorsPerTrack > MaxSectors {
		return &ArgumentError{Op: "define format", Msg: fmt.Sprintf("sectors per track %d not in [1, %d]", sectorsPerTrack, MaxSectors)}
	}
	if _, ok := SizeCode(sectorSize); !ok {
		return &ArgumentError{Op: "define format", Msg: fmt.Sprintf("bad sector size %d", sectorSize)}
	}
	if startSector != 0 && startSector != 1 {
		return &ArgumentError{Op: "define format", Msg: fmt.Sprintf("first sector %d must be 0 or 1", startSector)}
	}

	g.grow(tracks.Last+1, heads.Last+1)
	for t := tracks.First; t <= tracks.Last; t++ {
		for h := heads.First; h <= heads.Last; h++ {
			g.table[t][h] = TrackFormat{
				Density:     density,
				SectorCount: sectorsPerTrack,
				SectorSize:  sectorSize,
				StartSector: startSector,
			}
		}
	}
	g.computeOffsets()
	return nil
}

func checkRange(what string, r Range, max int) error {
	if r.First > r.Last {
		return &ArgumentError{Op: "define format", Msg: fmt.Sprintf("inverted %s range %d-%d", what, r.First, r.Last)}
	}
	if r.First < 0 || r.Last >= max {
		return &ArgumentError{Op: "define format", Msg: fmt.Sprintf("%s range %d-%d not in [0, %d)", what, r.First, r.Last, max)}
	}
	return nil
}

// forEach walks all (track, head) pairs in image order.
func (g *Geometry) forEach(fn func(track, head int)) {
	if g.interleaved {
		for t := 0; t < g.tracks; t++ {
			for h := 0; h < g.heads; h++ {
				fn(t, h)
			}
		}
		return
	}
	for h := 0; h < g.heads; h++ {
		for t := 0; t < g.tracks; t++ {
			fn(t, h)
		}
	}
}

func (g *Geometry) computeOffsets() {
	var offset int64
	g.forEach(func(t, h int) {
		g.table[t][h].ByteOffset = offset
		offset += g.table[t][h].Size()
	})
}

// Format returns the format of the given track and head.
// Undeclared or out-of-range cells have a zero SectorCount.
func (g *Geometry) Format(track, head int) TrackFormat {
	if track < 0 || track >= g.tracks || head < 0 || head >= g.heads {
		return TrackFormat{}
	}
	return g.table[track][head]
}

// SectorCount returns the number of sectors on the given track and head.
func (g *Geometry) SectorCount(track, head int) int {
	return g.Format(track, head).SectorCount
}

// TotalSize returns the size in bytes of an image holding every declared track.
func (g *Geometry) TotalSize() int64 {
	var size int64
	g.forEach(func(t, h int) {
		size += g.table[t][h].Size()
	})
	return size
}

// Sector is a validated sector address. Only Validate creates one.
type Sector struct {
	Track, Head, Number int
	Offset              int64
	Size                int
}

// Validate checks a sector address against the declared format.
// The last legal sector is SectorCount when numbering starts at 1, and
// SectorCount-1 when it starts at 0.
func (g *Geometry) Validate(track, head, sector int) (Sector, error) {
	if track < 0 || track >= g.tracks || head < 0 || head >= g.heads {
		return Sector{}, &RangeError{Track: track, Head: head, Sector: sector}
	}
	f := g.table[track][head]
	last := f.SectorCount
	if f.StartSector == 0 {
		last--
	}
	if sector < f.StartSector || sector > last {
		return Sector{}, &RangeError{Track: track, Head: head, Sector: sector}
	}
	return Sector{
		Track:  track,
		Head:   head,
		Number: sector,
		Offset: g.SectorOffset(track, head, sector),
		Size:   f.SectorSize,
	}, nil
}

// SectorOffset returns the image offset of a sector.
// The address is not checked; use Validate first.
func (g *Geometry) SectorOffset(track, head, sector int) int64 {
	f := g.table[track][head]
	return f.ByteOffset + int64(sector-f.StartSector)*int64(f.SectorSize)
}
