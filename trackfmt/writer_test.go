package trackfmt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sergev/wdfdc/geometry"
)

// countFields returns the number of ID and data address marks that follow
// a sync run in the stream.
func countFields(stream []byte) (ids, data int) {
	for i := 1; i < len(stream); i++ {
		if stream[i-1] != 0x00 && stream[i-1] != MarkSync {
			continue
		}
		switch stream[i] {
		case MarkID:
			ids++
		case MarkData:
			data++
		}
	}
	return ids, data
}

func TestEncodeTrack(t *testing.T) {
	testCases := []struct {
		name   string
		format geometry.TrackFormat
		length int
	}{
		{
			name:   "FM 26x128",
			format: geometry.TrackFormat{Density: geometry.SingleDensity, SectorCount: 26, SectorSize: 128, StartSector: 1},
			length: 40 + 7 + 26 + 26*(7+4+1+11+6+1+128+1+27) + 247,
		},
		{
			name:   "MFM 9x512",
			format: geometry.TrackFormat{Density: geometry.DoubleDensity, SectorCount: 9, SectorSize: 512, StartSector: 1},
			length: 80 + 16 + 50 + 9*(16+4+1+22+16+512+1+80) + 598,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stream, err := Encode(tc.format, 5, 0, Blank(tc.format, 0xE5))
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if len(stream) != tc.length {
				t.Errorf("stream length = %d, expected %d", len(stream), tc.length)
			}
			ids, data := countFields(stream)
			if ids != tc.format.SectorCount || data != tc.format.SectorCount {
				t.Errorf("found %d ID and %d data fields, expected %d", ids, data, tc.format.SectorCount)
			}
			if bytes.Count(stream, []byte{MarkIndex}) != 1 {
				t.Errorf("expected exactly one index mark")
			}
			if got := bytes.Count(stream, []byte{MarkCRC}); got != 2*tc.format.SectorCount {
				t.Errorf("found %d CRC marks, expected %d", got, 2*tc.format.SectorCount)
			}
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	f := geometry.TrackFormat{Density: geometry.SingleDensity, SectorCount: 2, SectorSize: 256, StartSector: 0}
	stream, err := Encode(f, 17, 1, Blank(f, 0))
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	for n := 0; n < 2; n++ {
		id := []byte{MarkID, 17, 1, byte(n), 1, MarkCRC}
		if !bytes.Contains(stream, id) {
			t.Errorf("ID field % X not found", id)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	f := geometry.TrackFormat{Density: geometry.DoubleDensity, SectorCount: 2, SectorSize: 256, StartSector: 1}

	if _, err := Encode(f, 0, 0, Blank(f, 0)[:1]); err == nil {
		t.Errorf("Encode() accepted a missing sector")
	}

	short := Blank(f, 0)
	short[1] = short[1][:100]
	if _, err := Encode(f, 0, 0, short); err == nil {
		t.Errorf("Encode() accepted a short sector")
	}

	bad := Blank(f, 0)
	bad[0][10] = MarkCRC
	if _, err := Encode(f, 0, 0, bad); !errors.Is(err, ErrUnwritable) {
		t.Errorf("Encode() error = %v, expected ErrUnwritable", err)
	}

	odd := geometry.TrackFormat{Density: geometry.SingleDensity, SectorCount: 1, SectorSize: 100, StartSector: 1}
	if _, err := Encode(odd, 0, 0, [][]byte{make([]byte, 100)}); err == nil {
		t.Errorf("Encode() accepted a sector size of 100")
	}
}

func TestBlank(t *testing.T) {
	f := geometry.TrackFormat{SectorCount: 3, SectorSize: 128}
	sectors := Blank(f, 0xE5)
	if len(sectors) != 3 {
		t.Fatalf("Blank() returned %d sectors", len(sectors))
	}
	for i, s := range sectors {
		if !bytes.Equal(s, bytes.Repeat([]byte{0xE5}, 128)) {
			t.Errorf("sector %d not filled", i)
		}
	}
}
