package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sergev/wdfdc/bridge"
	"github.com/sergev/wdfdc/config"
	"github.com/spf13/cobra"
)

var (
	servePort     string
	serveBaudRate int
	serveUSB      bool
	serveReadOnly bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [IMAGE...]",
	Short: "Serve the board to a remote host",
	Long: "Serve the board's ports over a serial port or USB bulk endpoints. " +
		"Images go into drive slots 0-3; without arguments the slots from the config file are used.",
	Args: cobra.MaximumNArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		images := args
		if len(images) == 0 {
			images = config.Slots
		}
		board, disks, err := newBoard(images, serveReadOnly)
		if err != nil {
			cobra.CheckErr(err)
		}
		defer closeAll(disks)

		var conn io.ReadWriteCloser
		switch {
		case serveUSB:
			conn, err = bridge.OpenUSB(bridge.VendorID, bridge.ProductID)
		case servePort != "":
			conn, err = bridge.OpenSerial(servePort, serveBaudRate)
		default:
			err = fmt.Errorf("either --port or --usb is required")
		}
		if err != nil {
			cobra.CheckErr(err)
		}
		defer conn.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		board.PrintStatus()
		err = bridge.NewServer(board, slog.Default()).Serve(ctx, conn)
		if err != nil && ctx.Err() == nil {
			cobra.CheckErr(err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "serial port")
	serveCmd.Flags().IntVar(&serveBaudRate, "baud", bridge.DefaultBaudRate, "serial baud rate")
	serveCmd.Flags().BoolVar(&serveUSB, "usb", false, fmt.Sprintf("use USB bulk endpoints of device %04x:%04x", bridge.VendorID, bridge.ProductID))
	serveCmd.Flags().BoolVarP(&serveReadOnly, "read-only", "r", false, "write protect all disks")
	rootCmd.AddCommand(serveCmd)
}
