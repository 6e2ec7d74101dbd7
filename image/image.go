// Package image opens and creates raw floppy disk images backing the
// geometry block store.
package image

import (
	"errors"
	"fmt"
	"os"

	"github.com/sergev/wdfdc/geometry"
	"github.com/spf13/afero"
)

// ErrUnsupported is returned for image formats that are recognized but
// cannot back a raw block store.
var ErrUnsupported = errors.New("unsupported image format")

// Image is an open disk image file.
type Image struct {
	afero.File
	Format   ImageFormat
	ReadOnly bool
}

// Size returns the current file size.
func (img *Image) Size() (int64, error) {
	info, err := img.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}
	return info.Size(), nil
}

func checkFormat(name string) (ImageFormat, error) {
	format := DetectImageFormat(name)
	switch {
	case format.Raw():
		return format, nil
	case format == ImageFormatUnknown:
		// Files without a known extension are taken as raw images.
		return ImageFormatIMG, nil
	default:
		return format, fmt.Errorf("%s: %w %s", name, ErrUnsupported, format)
	}
}

// Open opens an existing image. A read-only image is opened without
// write access.
func Open(fs afero.Fs, name string, readOnly bool) (*Image, error) {
	format, err := checkFormat(name)
	if err != nil {
		return nil, err
	}
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	file, err := fs.OpenFile(name, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &Image{File: file, Format: format, ReadOnly: readOnly}, nil
}

// Create makes a new image for geometry g, formats every track with the
// fill byte and leaves the image attached to g.
func Create(fs afero.Fs, name string, g *geometry.Geometry, fill byte) (*Image, error) {
	format, err := checkFormat(name)
	if err != nil {
		return nil, err
	}
	file, err := fs.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	img := &Image{File: file, Format: format}
	if err := file.Truncate(g.TotalSize()); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size %s: %w", name, err)
	}

	g.Attach(img)
	for track := 0; track < g.Tracks(); track++ {
		for head := 0; head < g.Heads(); head++ {
			if g.SectorCount(track, head) == 0 {
				continue
			}
			if err := g.WriteTrack(track, head, fill); err != nil {
				g.Detach()
				file.Close()
				return nil, fmt.Errorf("failed to format track %d.%d: %w", track, head, err)
			}
		}
	}
	return img, nil
}

// DetectFunc picks a layout for an image of the given size.
type DetectFunc func(size int64) (Layout, error)

// Load opens an image and builds its geometry from the file size, using
// detect or DetectLayout when detect is nil.
// The returned geometry has the image attached.
func Load(fs afero.Fs, name string, readOnly bool, detect DetectFunc) (*Image, *geometry.Geometry, Layout, error) {
	if detect == nil {
		detect = DetectLayout
	}
	img, err := Open(fs, name, readOnly)
	if err != nil {
		return nil, nil, Layout{}, err
	}
	size, err := img.Size()
	if err != nil {
		img.Close()
		return nil, nil, Layout{}, err
	}
	layout, err := detect(size)
	if err != nil {
		img.Close()
		return nil, nil, Layout{}, fmt.Errorf("%s: %w", name, err)
	}
	g, err := layout.Geometry()
	if err != nil {
		img.Close()
		return nil, nil, Layout{}, err
	}
	g.Attach(img)
	return img, g, layout, nil
}
