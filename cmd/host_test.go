package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sergev/wdfdc/adapter"
	"github.com/sergev/wdfdc/config"
	"github.com/sergev/wdfdc/fdc"
	"github.com/sergev/wdfdc/image"
	"github.com/sergev/wdfdc/trackfmt"
	"github.com/spf13/afero"
)

func newTestBoard(t *testing.T, kind string, chip fdc.Chip, layout string) (*host, *fdc.Drive) {
	t.Helper()
	board, err := adapter.New(kind, adapter.Options{Chip: chip, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("adapter.New() error: %v", err)
	}
	l, err := image.LayoutByName(layout)
	if err != nil {
		t.Fatalf("LayoutByName() error: %v", err)
	}
	g, err := l.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	if _, err := image.Create(afero.NewMemMapFs(), "disk.img", g, 0x00); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	d := fdc.NewDrive(g, false)
	if err := board.Insert(0, d); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	return newHost(board), d
}

func TestHostFormatReadWrite(t *testing.T) {
	testCases := []struct {
		kind   string
		chip   fdc.Chip
		layout string
	}{
		{"trs80", fdc.WD1771, "jv1"},
		{"latch", fdc.WD1791, "ibm8dsdd"},
		{"latch", fdc.WD1793, "pc360"},
		{"latch", fdc.WD1797, "pc720"},
	}
	for _, tc := range testCases {
		t.Run(tc.chip.String()+"/"+tc.layout, func(t *testing.T) {
			h, d := newTestBoard(t, tc.kind, tc.chip, tc.layout)
			g := d.Geometry
			last := g.Tracks() - 1
			side := g.Heads() - 1

			for _, track := range []int{0, last} {
				f := g.Format(track, side)
				stream, err := trackfmt.Encode(f, track, side, trackfmt.Blank(f, 0xE5))
				if err != nil {
					t.Fatalf("Encode() error: %v", err)
				}
				if err := h.writeTrack(0, g, track, side, stream); err != nil {
					t.Fatalf("writeTrack(%d, %d) error: %v", track, side, err)
				}
			}

			f := g.Format(last, side)
			sector := f.StartSector + f.SectorCount - 1
			data, err := h.readSector(0, g, last, side, sector)
			if err != nil {
				t.Fatalf("readSector() error: %v", err)
			}
			if !bytes.Equal(data, bytes.Repeat([]byte{0xE5}, f.SectorSize)) {
				t.Errorf("formatted sector holds % X...", data[:8])
			}

			msg := []byte("HELLO")
			if err := h.writeSector(0, g, last, side, sector, msg); err != nil {
				t.Fatalf("writeSector() error: %v", err)
			}
			data, err = h.readSector(0, g, last, side, sector)
			if err != nil {
				t.Fatalf("readSector() error: %v", err)
			}
			want := append(msg, make([]byte, f.SectorSize-len(msg))...)
			if !bytes.Equal(data, want) {
				t.Errorf("sector holds % X..., expected % X...", data[:8], want[:8])
			}

			// Track 0 of the other side is untouched unless formatted.
			if side == 1 {
				f0 := g.Format(0, 0)
				data, err := h.readSector(0, g, 0, 0, f0.StartSector)
				if err != nil {
					t.Fatalf("readSector() error: %v", err)
				}
				if !bytes.Equal(data, make([]byte, f0.SectorSize)) {
					t.Errorf("side 0 was modified")
				}
			}
		})
	}
}

func TestHostErrors(t *testing.T) {
	h, d := newTestBoard(t, "latch", fdc.WD1793, "ibm3740")
	g := d.Geometry

	if _, err := h.readSector(0, g, 10, 0, 27); err == nil || !strings.Contains(err.Error(), "record not found") {
		t.Errorf("readSector() of sector 27 error = %v", err)
	}

	d.ReadOnly = true
	if err := h.writeSector(0, g, 1, 0, 1, []byte{1}); err == nil || !strings.Contains(err.Error(), "write protected") {
		t.Errorf("writeSector() on a protected disk error = %v", err)
	}
	d.ReadOnly = false

	// A truncated stream leaves the command running.
	f := g.Format(2, 0)
	stream, err := trackfmt.Encode(f, 2, 0, trackfmt.Blank(f, 0xE5))
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if err := h.writeTrack(0, g, 2, 0, stream[:len(stream)/2]); err == nil {
		t.Errorf("writeTrack() of half a track succeeded")
	}
	if h.in(fdc.RegStatus)&fdc.StatusBusy != 0 {
		t.Errorf("controller still busy after a failed write track")
	}
}

func TestParseAddress(t *testing.T) {
	track, side, sector, err := parseAddress([]string{"76", "1", "26"})
	if err != nil || track != 76 || side != 1 || sector != 26 {
		t.Errorf("parseAddress() = %d, %d, %d, %v", track, side, sector, err)
	}
	for _, args := range [][]string{{"x", "0", "1"}, {"1", "2", "1"}, {"1", "0", "-1"}} {
		if _, _, _, err := parseAddress(args); err == nil {
			t.Errorf("parseAddress(%v) succeeded", args)
		}
	}
}

func TestOpenDiskUsesConfiguredDrives(t *testing.T) {
	if err := config.Default().Apply(""); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	saved := fs
	fs = afero.NewMemMapFs()
	defer func() { fs = saved }()

	if err := afero.WriteFile(fs, "m3.dsk", make([]byte, 40*18*256), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	d, err := openDisk("m3.dsk", true)
	if err != nil {
		t.Fatalf("openDisk() error: %v", err)
	}
	defer d.Close()
	if d.layout.Name != "trs80m3" || !d.drive.ReadOnly {
		t.Errorf("openDisk() layout = %s, read-only = %v", d.layout.Name, d.drive.ReadOnly)
	}
	if _, err := openDisk("missing.dsk", true); err == nil {
		t.Errorf("openDisk() of a missing file succeeded")
	}
}
