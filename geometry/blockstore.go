package geometry

import "io"

//go:generate mockgen -source=blockstore.go -destination=blockstore_mock.go -package geometry

// BlockStore is the open, seekable byte stream holding a flat disk image.
// A store is owned by exactly one Geometry and must not be shared between drives.
type BlockStore interface {
	io.ReadWriteSeeker
}
