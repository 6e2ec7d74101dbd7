package image

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sergev/wdfdc/geometry"
)

// ErrUnknownLayout is returned when an image size matches no known disk.
var ErrUnknownLayout = errors.New("unknown disk layout")

// Zone is a group of tracks sharing one format.
type Zone struct {
	Tracks      geometry.Range
	Heads       geometry.Range
	Density     geometry.Density
	Sectors     int
	SectorSize  int
	StartSector int
}

// Layout describes a disk type: its size and the formats of its tracks.
// Later zones override earlier ones.
type Layout struct {
	Name        string
	Description string
	Tracks      int
	Heads       int
	Interleaved bool
	Zones       []Zone
}

// Geometry builds the geometry of a disk with this layout.
func (l Layout) Geometry() (*geometry.Geometry, error) {
	g, err := geometry.New(l.Tracks, l.Heads, l.Interleaved)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", l.Name, err)
	}
	for _, z := range l.Zones {
		if err := g.DefineFormat(z.Tracks, z.Heads, z.Density, z.Sectors, z.SectorSize, z.StartSector); err != nil {
			return nil, fmt.Errorf("layout %s: %w", l.Name, err)
		}
	}
	return g, nil
}

// Size returns the image size in bytes, or 0 for an invalid layout.
func (l Layout) Size() int64 {
	g, err := l.Geometry()
	if err != nil {
		return 0
	}
	return g.TotalSize()
}

// uniform returns a layout with one format on every track.
func uniform(name, desc string, tracks, heads int, density geometry.Density, sectors, size, start int) Layout {
	return Layout{
		Name:        name,
		Description: desc,
		Tracks:      tracks,
		Heads:       heads,
		Interleaved: true,
		Zones: []Zone{{
			Tracks:      geometry.Span(0, tracks-1),
			Heads:       geometry.Span(0, heads-1),
			Density:     density,
			Sectors:     sectors,
			SectorSize:  size,
			StartSector: start,
		}},
	}
}

// Layouts lists the built-in disk types.
var Layouts = []Layout{
	uniform("ibm3740", `8" SSSD, IBM 3740`, 77, 1, geometry.SingleDensity, 26, 128, 1),
	{
		Name:        "ibm8dsdd",
		Description: `8" DSDD, IBM System 34 with single density track 0`,
		Tracks:      77,
		Heads:       2,
		Interleaved: true,
		Zones: []Zone{
			{geometry.Span(0, 76), geometry.Span(0, 1), geometry.DoubleDensity, 26, 256, 1},
			{geometry.Only(0), geometry.Span(0, 1), geometry.SingleDensity, 26, 128, 1},
		},
	},
	uniform("jv1", `5.25" SSSD, TRS-80 Model I`, 35, 1, geometry.SingleDensity, 10, 256, 0),
	uniform("pc360", `5.25" DSDD, PC 360K`, 40, 2, geometry.DoubleDensity, 9, 512, 1),
	uniform("pc720", `3.5" DSDD, PC 720K`, 80, 2, geometry.DoubleDensity, 9, 512, 1),
	uniform("pc1200", `5.25" DSHD, PC 1.2M`, 80, 2, geometry.DoubleDensity, 15, 512, 1),
	uniform("pc1440", `3.5" DSHD, PC 1.44M`, 80, 2, geometry.DoubleDensity, 18, 512, 1),
}

// LayoutByName finds a built-in layout, ignoring case.
func LayoutByName(name string) (Layout, error) {
	for _, l := range Layouts {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}

// DetectLayout picks a layout from the image size. Sizes that match no
// built-in layout are tried as PC-style images of 512-byte sectors.
func DetectLayout(size int64) (Layout, error) {
	for _, l := range Layouts {
		if l.Size() == size {
			return l, nil
		}
	}

	const sectorSize = 512
	if size <= 0 || size%sectorSize != 0 {
		return Layout{}, fmt.Errorf("%w: %d bytes", ErrUnknownLayout, size)
	}
	totalSectors := int(size / sectorSize)

	// Try common side counts (2 or 1) and cylinder counts
	for sides := 2; sides > 0; sides-- {
		if totalSectors%sides != 0 {
			continue
		}
		sectorsPerSide := totalSectors / sides
		for cylinders := 80; cylinders >= 40; cylinders -= 40 {
			if sectorsPerSide%cylinders != 0 {
				continue
			}
			sectorsPerTrack := sectorsPerSide / cylinders
			if sectorsPerTrack >= 8 && sectorsPerTrack <= 18 {
				name := fmt.Sprintf("pc%dx%dx%d", cylinders, sides, sectorsPerTrack)
				return uniform(name, "PC-style raw image", cylinders, sides, geometry.DoubleDensity, sectorsPerTrack, sectorSize, 1), nil
			}
		}
	}
	return Layout{}, fmt.Errorf("%w: %d sectors", ErrUnknownLayout, totalSectors)
}
