package cmd

import (
	"fmt"

	"github.com/sergev/wdfdc/trackfmt"
	"github.com/spf13/cobra"
)

var formatFill uint8

var formatCmd = &cobra.Command{
	Use:   "format FILE",
	Short: "Format a disk image through the controller",
	Long:  "Format every track of a disk image by sending Write Track streams to the emulated controller.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		board, disks, err := newBoard(args, false)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closeAll(disks)

		h := newHost(board)
		geom := disks[0].drive.Geometry
		for track := 0; track < geom.Tracks(); track++ {
			for side := 0; side < geom.Heads(); side++ {
				f := geom.Format(track, side)
				if f.SectorCount == 0 {
					continue
				}
				stream, err := trackfmt.Encode(f, track, side, trackfmt.Blank(f, formatFill))
				if err != nil {
					cobra.CheckErr(err)
				}
				fmt.Printf("Formatting track %d, side %d...\r", track, side)
				if err := h.writeTrack(0, geom, track, side, stream); err != nil {
					cobra.CheckErr(fmt.Errorf("\nfailed to format: %w", err))
				}
			}
		}
		fmt.Printf("\nSuccessfully formatted %s\n", args[0])
	},
}

func init() {
	formatCmd.Flags().Uint8VarP(&formatFill, "fill", "f", 0xE5, "fill byte")
	rootCmd.AddCommand(formatCmd)
}
