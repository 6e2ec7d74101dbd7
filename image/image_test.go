package image

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sergev/wdfdc/geometry"
	"github.com/spf13/afero"
)

func TestDetectImageFormat(t *testing.T) {
	testCases := []struct {
		name string
		want ImageFormat
	}{
		{"disk.img", ImageFormatIMG},
		{"DISK.IMA", ImageFormatIMG},
		{"cpm.dsk", ImageFormatIMG},
		{"ldos.jv1", ImageFormatJV1},
		{"archive.imd", ImageFormatIMD},
		{"noext", ImageFormatUnknown},
		{"picture.png", ImageFormatUnknown},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectImageFormat(tc.name); got != tc.want {
				t.Errorf("DetectImageFormat(%q) = %v, expected %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestLayoutSizes(t *testing.T) {
	testCases := []struct {
		name string
		size int64
	}{
		{"ibm3740", 256256},
		{"ibm8dsdd", 2*26*128 + 76*2*26*256},
		{"jv1", 89600},
		{"pc360", 368640},
		{"pc720", 737280},
		{"pc1200", 1228800},
		{"pc1440", 1474560},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := LayoutByName(tc.name)
			if err != nil {
				t.Fatalf("LayoutByName() error: %v", err)
			}
			if got := l.Size(); got != tc.size {
				t.Errorf("Size() = %d, expected %d", got, tc.size)
			}
			detected, err := DetectLayout(tc.size)
			if err != nil {
				t.Fatalf("DetectLayout() error: %v", err)
			}
			if detected.Name != tc.name {
				t.Errorf("DetectLayout(%d) = %s, expected %s", tc.size, detected.Name, tc.name)
			}
		})
	}
}

func TestLayoutGeometry(t *testing.T) {
	l, err := LayoutByName("IBM8DSDD")
	if err != nil {
		t.Fatalf("LayoutByName() error: %v", err)
	}
	g, err := l.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	if f := g.Format(0, 1); f.Density != geometry.SingleDensity || f.SectorSize != 128 {
		t.Errorf("track 0.1 format = %+v, expected single density 128", f)
	}
	if f := g.Format(1, 0); f.Density != geometry.DoubleDensity || f.SectorSize != 256 {
		t.Errorf("track 1.0 format = %+v, expected double density 256", f)
	}

	jv1, _ := LayoutByName("jv1")
	g, err = jv1.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	if _, err := g.Validate(0, 0, 0); err != nil {
		t.Errorf("JV1 sector 0 rejected: %v", err)
	}
	if _, err := g.Validate(0, 0, 10); err == nil {
		t.Errorf("JV1 sector 10 accepted")
	}
}

func TestDetectLayoutFallback(t *testing.T) {
	l, err := DetectLayout(80 * 1 * 10 * 512)
	if err != nil {
		t.Fatalf("DetectLayout() error: %v", err)
	}
	if l.Tracks != 40 || l.Heads != 2 || l.Zones[0].Sectors != 10 {
		t.Errorf("layout = %+v", l)
	}

	for _, size := range []int64{0, 1000, 512 * 7} {
		if _, err := DetectLayout(size); !errors.Is(err, ErrUnknownLayout) {
			t.Errorf("DetectLayout(%d) error = %v, expected ErrUnknownLayout", size, err)
		}
	}
}

func TestCreateAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	l, _ := LayoutByName("ibm3740")
	g, err := l.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	img, err := Create(fs, "blank.img", g, 0xE5)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	data := bytes.Repeat([]byte{0x5A}, 128)
	if err := g.WriteSector(76, 0, 26, data); err != nil {
		t.Fatalf("WriteSector() error: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	img, g, layout, err := Load(fs, "blank.img", true, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer img.Close()
	if layout.Name != "ibm3740" || !img.ReadOnly {
		t.Errorf("layout = %s, read-only = %v", layout.Name, img.ReadOnly)
	}
	buf := make([]byte, 128)
	if err := g.ReadSector(0, 0, 1, buf); err != nil {
		t.Fatalf("ReadSector() error: %v", err)
	}
	if !bytes.Equal(buf, bytes.Repeat([]byte{0xE5}, 128)) {
		t.Errorf("blank sector = % X", buf[:8])
	}
	if err := g.ReadSector(76, 0, 26, buf); err != nil {
		t.Fatalf("ReadSector() error: %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Errorf("last sector not preserved")
	}
}

func TestOpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := Open(fs, "missing.img", false); err == nil {
		t.Errorf("Open() of a missing file succeeded")
	}
	if err := afero.WriteFile(fs, "disk.imd", []byte("IMD 1.18"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := Open(fs, "disk.imd", true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Open(disk.imd) error = %v, expected ErrUnsupported", err)
	}
	if _, _, _, err := Load(fs, "odd.img", false, nil); err == nil {
		t.Errorf("Load() of a missing file succeeded")
	}
	if err := afero.WriteFile(fs, "odd.img", make([]byte, 1000), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, _, _, err := Load(fs, "odd.img", false, nil); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("Load(odd.img) error = %v, expected ErrUnknownLayout", err)
	}
}

func TestLoadDetect(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "odd.img", make([]byte, 1000), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	custom := Layout{
		Name: "odd", Tracks: 1, Heads: 1,
		Zones: []Zone{{Tracks: geometry.Only(0), Heads: geometry.Only(0), Density: geometry.SingleDensity,
			Sectors: 7, SectorSize: 128, StartSector: 1}},
	}
	var asked int64
	detect := func(size int64) (Layout, error) {
		asked = size
		return custom, nil
	}
	img, g, layout, err := Load(fs, "odd.img", false, detect)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer img.Close()
	if asked != 1000 || layout.Name != "odd" || g.SectorCount(0, 0) != 7 {
		t.Errorf("Load() asked for %d bytes, got layout %s with %d sectors", asked, layout.Name, g.SectorCount(0, 0))
	}
}
