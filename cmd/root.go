package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sergev/wdfdc/adapter"
	"github.com/sergev/wdfdc/config"
	"github.com/sergev/wdfdc/fdc"
	"github.com/sergev/wdfdc/image"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configFile string
	boardName  string
	verbose    bool

	// Filesystem holding the disk images
	fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "wdfdc",
	Short: "A WD17xx floppy disk controller emulator",
	Long:  "The wdfdc tool emulates a Western Digital WD17xx floppy disk controller on top of raw disk images.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		// Initialize configuration
		err := config.Initialize(configFile, boardName)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ~/.wdfdc)")
	rootCmd.PersistentFlags().StringVarP(&boardName, "board", "b", "", "board from the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every controller command")
}

// disk is an open image inserted into a drive.
type disk struct {
	img    *image.Image
	drive  *fdc.Drive
	layout image.Layout
}

// openDisk opens an image and derives its geometry from the file size,
// preferring the drives of the configuration.
func openDisk(name string, readOnly bool) (*disk, error) {
	img, g, layout, err := image.Load(fs, name, readOnly, config.DetectLayout)
	if err != nil {
		return nil, err
	}
	return &disk{img: img, drive: fdc.NewDrive(g, readOnly), layout: layout}, nil
}

func (d *disk) Close() error {
	return d.img.Close()
}

// newBoard creates the configured board with the given images in its
// drive slots. Empty names leave a slot empty.
func newBoard(images []string, readOnly bool) (adapter.HostAdapter, []*disk, error) {
	board, err := adapter.New(config.Kind, adapter.Options{
		Name:      config.BoardName,
		Chip:      config.Chip,
		DriveType: config.DriveType,
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, nil, err
	}
	if len(images) > adapter.MaxDrives {
		return nil, nil, fmt.Errorf("too many images: %d, board has %d drives", len(images), adapter.MaxDrives)
	}

	disks := make([]*disk, len(images))
	for slot, name := range images {
		if name == "" {
			continue
		}
		d, err := openDisk(name, readOnly)
		if err != nil {
			closeAll(disks)
			return nil, nil, err
		}
		disks[slot] = d
		if err := board.Insert(slot, d.drive); err != nil {
			closeAll(disks)
			return nil, nil, err
		}
	}
	return board, disks, nil
}

func closeAll(disks []*disk) {
	for _, d := range disks {
		if d != nil {
			d.Close()
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
