package geometry

import (
	"io"
)

// Attach makes store the backing image of the geometry.
func (g *Geometry) Attach(store BlockStore) {
	g.store = store
}

// Detach releases the backing image and returns it.
func (g *Geometry) Detach() BlockStore {
	store := g.store
	g.store = nil
	return store
}

// Store returns the attached image, or nil.
func (g *Geometry) Store() BlockStore {
	return g.store
}

// ReadSector reads one whole sector into buf.
// buf must hold at least the sector size.
func (g *Geometry) ReadSector(track, head, sector int, buf []byte) error {
	s, err := g.Validate(track, head, sector)
	if err != nil {
		return err
	}
	return g.ReadAt(s, buf)
}

// WriteSector writes one whole sector from buf.
func (g *Geometry) WriteSector(track, head, sector int, buf []byte) error {
	s, err := g.Validate(track, head, sector)
	if err != nil {
		return err
	}
	return g.WriteAt(s, buf)
}

// ReadAt reads a previously validated sector.
func (g *Geometry) ReadAt(s Sector, buf []byte) error {
	if err := g.seek("read", s, buf); err != nil {
		return err
	}
	if _, err := io.ReadFull(g.store, buf[:s.Size]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return &IoError{Op: "read", Offset: s.Offset, Err: err}
	}
	return nil
}

// WriteAt writes a previously validated sector.
func (g *Geometry) WriteAt(s Sector, buf []byte) error {
	if err := g.seek("write", s, buf); err != nil {
		return err
	}
	n, err := g.store.Write(buf[:s.Size])
	if err == nil && n < s.Size {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &IoError{Op: "write", Offset: s.Offset, Err: err}
	}
	return nil
}

func (g *Geometry) seek(op string, s Sector, buf []byte) error {
	if g.store == nil {
		return &IoError{Op: op, Offset: s.Offset, Err: ErrNoStore}
	}
	if len(buf) < s.Size {
		return &IoError{Op: op, Offset: s.Offset, Err: io.ErrShortBuffer}
	}
	pos, err := g.store.Seek(s.Offset, io.SeekStart)
	if err == nil && pos != s.Offset {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return &IoError{Op: "seek", Offset: s.Offset, Err: err}
	}
	return nil
}

// WriteTrack fills every sector of a track with the fill byte.
func (g *Geometry) WriteTrack(track, head int, fill byte) error {
	f := g.Format(track, head)
	if f.SectorCount == 0 {
		return &RangeError{Track: track, Head: head, Sector: f.StartSector}
	}
	buf := make([]byte, f.SectorSize)
	for i := range buf {
		buf[i] = fill
	}
	for n := 0; n < f.SectorCount; n++ {
		if err := g.WriteSector(track, head, f.StartSector+n, buf); err != nil {
			return err
		}
	}
	return nil
}
