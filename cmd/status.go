package cmd

import (
	"fmt"

	"github.com/sergev/wdfdc/adapter"
	"github.com/sergev/wdfdc/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured board",
	Long:  "Show the board selected in the config file with the disks in its drive slots.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		board, disks, err := newBoard(config.Slots, true)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closeAll(disks)

		board.PrintStatus()

		fmt.Printf("\nConfiguration script: ~/.wdfdc\n")
		fmt.Printf("Board: %s, kind %s, base port %#04x, %d ports\n", config.BoardName, config.Kind, config.Base, board.Ports())
		fmt.Printf("Board kinds:\n")
		for _, info := range adapter.Adapters() {
			fmt.Printf("  %-8s %s\n", info.Kind, info.Description)
		}
		fmt.Printf("Layouts: %s\n", layoutNames())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
