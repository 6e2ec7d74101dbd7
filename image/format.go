package image

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents a floppy disk image format
type ImageFormat int

const (
	// ImageFormatUnknown represents an unknown or unrecognized format
	ImageFormatUnknown ImageFormat = iota
	ImageFormatIMG                 // IMG, IMA or DSK format - a raw, sector-by-sector copy of the disk
	ImageFormatJV1                 // JV1 format - raw TRS-80 Model I image, sectors numbered from 0
	ImageFormatIMD                 // IMD format - Dave Dunfield's ImageDisk utility
)

// String returns the string representation of the ImageFormat
func (f ImageFormat) String() string {
	switch f {
	case ImageFormatIMG:
		return "IMG"
	case ImageFormatJV1:
		return "JV1"
	case ImageFormatIMD:
		return "IMD"
	default:
		return "Unknown"
	}
}

// Raw reports a format whose file is the sector data and nothing else.
func (f ImageFormat) Raw() bool {
	return f == ImageFormatIMG || f == ImageFormatJV1
}

// DetectImageFormat detects the image format from a filename based on its extension.
// The extension check is case-insensitive. Returns ImageFormatUnknown if the format
// cannot be determined.
func DetectImageFormat(filename string) ImageFormat {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ImageFormatUnknown
	}

	// Remove leading dot and convert to lowercase for case-insensitive comparison
	ext = strings.ToLower(ext[1:])

	switch ext {
	case "img", "ima", "dsk":
		return ImageFormatIMG
	case "jv1":
		return ImageFormatJV1
	case "imd":
		return ImageFormatIMD
	default:
		return ImageFormatUnknown
	}
}
