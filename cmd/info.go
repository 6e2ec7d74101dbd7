package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show the layout of a disk image",
	Long:  "Show the detected layout of a disk image: tracks, sides and the format of every zone.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, err := openDisk(args[0], true)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer d.Close()

		g := d.drive.Geometry
		fmt.Printf("Image: %s (%s), %d bytes\n", args[0], d.img.Format, d.drive.Size())
		fmt.Printf("Layout: %s", d.layout.Name)
		if d.layout.Description != "" {
			fmt.Printf(", %s", d.layout.Description)
		}
		fmt.Printf("\nGeometry: %d tracks, %d side(s), %s\n", g.Tracks(), g.Heads(), order(g.Interleaved()))
		for _, z := range d.layout.Zones {
			fmt.Printf("  tracks %d-%d, sides %d-%d: %s density, %d x %d bytes, first sector %d\n",
				z.Tracks.First, z.Tracks.Last, z.Heads.First, z.Heads.Last,
				z.Density, z.Sectors, z.SectorSize, z.StartSector)
		}
		if g.TotalSize() != d.drive.Size() {
			fmt.Printf("Warning: layout needs %d bytes\n", g.TotalSize())
		}
	},
}

func order(interleaved bool) string {
	if interleaved {
		return "sides interleaved per track"
	}
	return "side 0 first, then side 1"
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
