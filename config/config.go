package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/sergev/wdfdc/fdc"
	"github.com/sergev/wdfdc/geometry"
	"github.com/sergev/wdfdc/image"
)

//go:embed wdfdc.toml
var defaultConfigData []byte

// Global state for the selected board
var (
	BoardName string
	Kind      string
	Chip      fdc.Chip
	DriveType int
	Base      int
	Slots     []string
	Layouts   []image.Layout // configured drives, then the built-in ones
)

// Config represents the entire TOML configuration structure
type Config struct {
	Default string  `toml:"default"`
	Board   []Board `toml:"board"`
	Drive   []Drive `toml:"drive"`
}

// Board represents a host adapter with its controller
type Board struct {
	Name      string   `toml:"name"`
	Kind      string   `toml:"kind"` // board type, "latch" when empty
	Chip      string   `toml:"chip"`
	DriveType string   `toml:"drive_type"` // "5.25" (default) or "8"
	Base      int      `toml:"base"`
	Slots     []string `toml:"slots"` // image file per drive slot, empty when no disk
}

// Drive represents a disk layout
type Drive struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Tracks      int      `toml:"tracks"`
	Heads       int      `toml:"heads"`
	Interleaved bool     `toml:"interleaved"`
	Format      []Format `toml:"format"`
}

// Format represents one format zone of a drive
type Format struct {
	Tracks  [2]int `toml:"tracks"` // first and last track
	Heads   [2]int `toml:"heads"`  // first and last head
	Density string `toml:"density"`
	Sectors int    `toml:"sectors"`
	Size    int    `toml:"size"`
	Start   int    `toml:"start"`
}

// MaxSlots is the number of drive select lines of a board.
const MaxSlots = 4

// parseDriveType maps a drive size to the controller's drive type strap.
func parseDriveType(s string) (int, error) {
	switch s {
	case "", "5.25", "5":
		return fdc.MiniDrive, nil
	case "8":
		return fdc.StandardDrive, nil
	}
	return 0, fmt.Errorf("unknown drive type %q", s)
}

// Layout converts a drive into a disk layout and checks that it forms a
// valid geometry.
func (d Drive) Layout() (image.Layout, error) {
	l := image.Layout{
		Name:        d.Name,
		Description: d.Description,
		Tracks:      d.Tracks,
		Heads:       d.Heads,
		Interleaved: d.Interleaved,
	}
	for _, f := range d.Format {
		density, err := geometry.ParseDensity(f.Density)
		if err != nil {
			return image.Layout{}, fmt.Errorf("drive %q: %w", d.Name, err)
		}
		l.Zones = append(l.Zones, image.Zone{
			Tracks:      geometry.Span(f.Tracks[0], f.Tracks[1]),
			Heads:       geometry.Span(f.Heads[0], f.Heads[1]),
			Density:     density,
			Sectors:     f.Sectors,
			SectorSize:  f.Size,
			StartSector: f.Start,
		})
	}
	if len(l.Zones) == 0 {
		return image.Layout{}, fmt.Errorf("drive %q has no formats", d.Name)
	}
	if _, err := l.Geometry(); err != nil {
		return image.Layout{}, err
	}
	return l, nil
}

// configPath determines the config file path based on the operating system
func configPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		// Use AppData directory for Windows
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "wdfdc")
	default:
		// Linux/macOS: use home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".wdfdc"), nil
}

// Initialize loads and validates the configuration file and selects a board,
// the default one when boardName is empty.
// If the config file doesn't exist, it creates it from the embedded default.
// An empty path selects the per-user config file.
func Initialize(path, boardName string) error {
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return err
		}

		// Create the per-user file from the embedded default
		if _, err := os.Stat(path); os.IsNotExist(err) {
			configDir := filepath.Dir(path)
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
			}
			if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
				return fmt.Errorf("failed to create default config file at %s: %w", path, err)
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	conf, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return conf.Apply(boardName)
}

// Default returns the embedded default configuration.
func Default() *Config {
	conf, err := Parse(defaultConfigData)
	if err != nil {
		panic(err)
	}
	return conf
}

// Parse decodes and validates a TOML configuration.
func Parse(data []byte) (*Config, error) {
	var conf Config
	if _, err := toml.Decode(string(data), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks boards and drives.
func (conf *Config) Validate() error {
	if conf.Default == "" {
		return errors.New("`default` key is missing or empty in config")
	}
	if conf.FindBoard(conf.Default) == nil {
		return fmt.Errorf("default board %q not found in board array", conf.Default)
	}
	for _, b := range conf.Board {
		if _, err := fdc.ParseChip(b.Chip); err != nil {
			return fmt.Errorf("board %q: %w", b.Name, err)
		}
		if _, err := parseDriveType(b.DriveType); err != nil {
			return fmt.Errorf("board %q: %w", b.Name, err)
		}
		if b.Base < 0 || b.Base > 0xFFFF {
			return fmt.Errorf("board %q has invalid base port: %#x", b.Name, b.Base)
		}
		if len(b.Slots) > MaxSlots {
			return fmt.Errorf("board %q has %d slots, at most %d allowed", b.Name, len(b.Slots), MaxSlots)
		}
	}
	for _, d := range conf.Drive {
		if _, err := d.Layout(); err != nil {
			return err
		}
	}
	return nil
}

// FindBoard returns the board with the given name, or nil.
func (conf *Config) FindBoard(name string) *Board {
	for i := range conf.Board {
		if conf.Board[i].Name == name {
			return &conf.Board[i]
		}
	}
	return nil
}

// Apply stores the named board, or the default one, in the global state.
func (conf *Config) Apply(boardName string) error {
	if boardName == "" {
		boardName = conf.Default
	}
	board := conf.FindBoard(boardName)
	if board == nil {
		return fmt.Errorf("board %q not found in configuration", boardName)
	}
	chip, err := fdc.ParseChip(board.Chip)
	if err != nil {
		return fmt.Errorf("board %q: %w", board.Name, err)
	}
	driveType, err := parseDriveType(board.DriveType)
	if err != nil {
		return fmt.Errorf("board %q: %w", board.Name, err)
	}

	layouts := make([]image.Layout, 0, len(conf.Drive)+len(image.Layouts))
	for _, d := range conf.Drive {
		l, err := d.Layout()
		if err != nil {
			return err
		}
		layouts = append(layouts, l)
	}
	layouts = append(layouts, image.Layouts...)

	BoardName = board.Name
	Kind = board.Kind
	if Kind == "" {
		Kind = "latch"
	}
	Chip = chip
	DriveType = driveType
	Base = board.Base
	Slots = make([]string, len(board.Slots))
	copy(Slots, board.Slots)
	Layouts = layouts
	return nil
}

// FindLayout returns a layout by name. Without a loaded configuration
// only the built-in layouts are known.
func FindLayout(name string) (image.Layout, error) {
	for _, l := range Layouts {
		if l.Name == name {
			return l, nil
		}
	}
	return image.LayoutByName(name)
}

// DetectLayout picks the configured layout matching an image size before
// falling back to the built-in detection.
func DetectLayout(size int64) (image.Layout, error) {
	for _, l := range Layouts {
		if l.Size() == size {
			return l, nil
		}
	}
	return image.DetectLayout(size)
}
