package cmd

import (
	"fmt"
	"strings"

	"github.com/sergev/wdfdc/config"
	"github.com/sergev/wdfdc/image"
	"github.com/spf13/cobra"
)

var (
	createLayout string
	createFill   uint8
)

var createCmd = &cobra.Command{
	Use:   "create FILE",
	Short: "Create a blank disk image",
	Long:  "Create a disk image of the given layout with every sector filled.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		layout, err := config.FindLayout(createLayout)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("%w (known layouts: %s)", err, layoutNames()))
		}
		g, err := layout.Geometry()
		if err != nil {
			cobra.CheckErr(err)
		}
		img, err := image.Create(fs, args[0], g, createFill)
		if err != nil {
			cobra.CheckErr(err)
		}
		if err := img.Close(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to close %s: %w", args[0], err))
		}
		fmt.Printf("Created %s: %s, %d bytes\n", args[0], layout.Name, g.TotalSize())
	},
}

func layoutNames() string {
	names := make([]string, len(config.Layouts))
	for i, l := range config.Layouts {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}

func init() {
	createCmd.Flags().StringVarP(&createLayout, "layout", "l", "ibm3740", "disk layout")
	createCmd.Flags().Uint8VarP(&createFill, "fill", "f", 0xE5, "fill byte")
	rootCmd.AddCommand(createCmd)
}
