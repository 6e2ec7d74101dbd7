package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var readOutput string

var readCmd = &cobra.Command{
	Use:   "read FILE TRACK SIDE SECTOR",
	Short: "Read a sector through the controller",
	Long:  "Read one sector of a disk image with a Type II Read command and print it as a hex dump, or save it with --output.",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		track, side, sector, err := parseAddress(args[1:])
		if err != nil {
			cobra.CheckErr(err)
		}
		board, disks, err := newBoard(args[:1], true)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closeAll(disks)

		data, err := newHost(board).readSector(0, disks[0].drive.Geometry, track, side, sector)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read: %w", err))
		}
		if readOutput != "" {
			if err := os.WriteFile(readOutput, data, 0644); err != nil {
				cobra.CheckErr(fmt.Errorf("failed to write data to file: %w", err))
			}
			fmt.Printf("Saved %d bytes to %s\n", len(data), readOutput)
			return
		}
		fmt.Printf("Track %d, side %d, sector %d: %d bytes\n", track, side, sector, len(data))
		fmt.Print(hex.Dump(data))
	},
}

// parseAddress converts TRACK SIDE SECTOR arguments.
func parseAddress(args []string) (track, side, sector int, err error) {
	names := []string{"track", "side", "sector"}
	values := make([]int, len(names))
	for i, name := range names {
		values[i], err = strconv.Atoi(args[i])
		if err != nil || values[i] < 0 {
			return 0, 0, 0, fmt.Errorf("invalid %s %q", name, args[i])
		}
	}
	if values[1] > 1 {
		return 0, 0, 0, fmt.Errorf("invalid side %d", values[1])
	}
	return values[0], values[1], values[2], nil
}

func init() {
	readCmd.Flags().StringVarP(&readOutput, "output", "o", "", "save the sector to a file")
	rootCmd.AddCommand(readCmd)
}
