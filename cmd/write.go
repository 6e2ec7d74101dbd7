package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write FILE TRACK SIDE SECTOR DATAFILE",
	Short: "Write a sector through the controller",
	Long:  "Write one sector of a disk image with a Type II Write command. Short data is padded with zeros.",
	Args:  cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		track, side, sector, err := parseAddress(args[1:4])
		if err != nil {
			cobra.CheckErr(err)
		}
		data, err := os.ReadFile(args[4])
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to read input file: %w", err))
		}
		board, disks, err := newBoard(args[:1], false)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closeAll(disks)

		g := disks[0].drive.Geometry
		if size := g.Format(track, side).SectorSize; len(data) > size {
			cobra.CheckErr(fmt.Errorf("%s has %d bytes, sector holds %d", args[4], len(data), size))
		}
		if err := newHost(board).writeSector(0, g, track, side, sector, data); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to write: %w", err))
		}
		fmt.Printf("Wrote track %d, side %d, sector %d\n", track, side, sector)
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}
