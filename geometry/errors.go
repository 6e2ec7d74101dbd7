package geometry

import "fmt"

// ArgumentError reports invalid geometry construction parameters.
// The geometry is left unchanged.
type ArgumentError struct {
	Op  string
	Msg string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("geometry: %s: %s", e.Op, e.Msg)
}

// RangeError reports a track, head or sector outside the declared format.
type RangeError struct {
	Track, Head, Sector int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("geometry: sector %d.%d.%d out of range", e.Track, e.Head, e.Sector)
}

// IoError reports a failed seek, read or write on the backing store.
type IoError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("geometry: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
