package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergev/wdfdc/fdc"
	"github.com/sergev/wdfdc/geometry"
)

func TestDefaultConfig(t *testing.T) {
	conf := Default()
	if conf.Default != "trs80" {
		t.Errorf("default board = %q", conf.Default)
	}
	if err := conf.Apply(""); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if BoardName != "trs80" || Kind != "trs80" || Chip != fdc.WD1771 || Base != 0x37E0 || len(Slots) != 4 {
		t.Errorf("board = %s %v %#x %d slots", BoardName, Chip, Base, len(Slots))
	}

	l, err := FindLayout("ibm8ssdd")
	if err != nil {
		t.Fatalf("FindLayout() error: %v", err)
	}
	g, err := l.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	if f := g.Format(0, 0); f.Density != geometry.SingleDensity || f.SectorSize != 128 {
		t.Errorf("track 0 format = %+v", f)
	}
	if g.TotalSize() != 26*128+76*26*256 {
		t.Errorf("TotalSize() = %d", g.TotalSize())
	}

	// Built-in layouts stay reachable.
	if _, err := FindLayout("pc720"); err != nil {
		t.Errorf("FindLayout(pc720) error: %v", err)
	}
	// Configured drives win over size heuristics.
	detected, err := DetectLayout(40 * 18 * 256)
	if err != nil {
		t.Fatalf("DetectLayout() error: %v", err)
	}
	if detected.Name != "trs80m3" {
		t.Errorf("DetectLayout() = %s, expected trs80m3", detected.Name)
	}
}

func TestApplyBoard(t *testing.T) {
	conf := Default()
	if err := conf.Apply("pc"); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if Chip != fdc.WD1797 || Base != 0x3F0 {
		t.Errorf("board pc = %v %#x", Chip, Base)
	}
	if DriveType != fdc.MiniDrive {
		t.Errorf("board pc drive type = %d", DriveType)
	}
	if err := conf.Apply("cpm"); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if DriveType != fdc.StandardDrive {
		t.Errorf("board cpm drive type = %d, expected 8\" drives", DriveType)
	}
	if err := conf.Apply("nosuch"); err == nil {
		t.Errorf("Apply() of an unknown board succeeded")
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		toml string
		want string
	}{
		{"Syntax", `default = `, "parse"},
		{"NoDefault", `[[board]]
name = "a"
chip = "WD1793"`, "default"},
		{"MissingBoard", `default = "b"
[[board]]
name = "a"
chip = "WD1793"`, "not found"},
		{"BadChip", `default = "a"
[[board]]
name = "a"
chip = "i8272"`, "chip"},
		{"BadDriveType", `default = "a"
[[board]]
name = "a"
chip = "1791"
drive_type = "3.5"`, "drive type"},
		{"TooManySlots", `default = "a"
[[board]]
name = "a"
chip = "1791"
slots = ["", "", "", "", ""]`, "slots"},
		{"BadDensity", `default = "a"
[[board]]
name = "a"
chip = "1791"
[[drive]]
name = "d"
tracks = 40
heads = 1
[[drive.format]]
tracks = [0, 39]
heads = [0, 0]
density = "quad"
sectors = 10
size = 256`, "density"},
		{"BadSectorSize", `default = "a"
[[board]]
name = "a"
chip = "1791"
[[drive]]
name = "d"
tracks = 40
heads = 1
[[drive.format]]
tracks = [0, 39]
heads = [0, 0]
density = "single"
sectors = 10
size = 300`, "d"},
		{"NoFormats", `default = "a"
[[board]]
name = "a"
chip = "1791"
[[drive]]
name = "d"
tracks = 40
heads = 1`, "no formats"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.toml))
			if err == nil {
				t.Fatalf("Parse() succeeded")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Parse() error = %v, expected to mention %q", err, tc.want)
			}
		})
	}
}

func TestInitializeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wdfdc.toml")
	data := `default = "bench"

[[board]]
name = "bench"
chip = "WD1795"
base = 0x10
slots = ["a.img"]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if err := Initialize(path, ""); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if BoardName != "bench" || Kind != "latch" || Chip != fdc.WD1795 || Base != 0x10 {
		t.Errorf("board = %s %v %#x", BoardName, Chip, Base)
	}
	if len(Slots) != 1 || Slots[0] != "a.img" {
		t.Errorf("slots = %v", Slots)
	}
	if err := Initialize(filepath.Join(t.TempDir(), "missing.toml"), ""); err == nil {
		t.Errorf("Initialize() of a missing file succeeded")
	}
}

func TestInitializeCreatesDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)
	if err := Initialize("", ""); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if string(data) != string(defaultConfigData) {
		t.Errorf("written config differs from the embedded default")
	}
}
