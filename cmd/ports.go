package cmd

import (
	"fmt"

	"github.com/sergev/wdfdc/bridge"
	"github.com/spf13/cobra"
)

var (
	portsVID uint16
	portsPID uint16
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long:  "List serial ports usable by the serve command, optionally filtered by USB vendor and product ID.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := bridge.FindPorts(portsVID, portsPID)
		if err != nil {
			cobra.CheckErr(err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return
		}
		for _, port := range ports {
			if port.IsUSB {
				fmt.Printf("%s: USB %s:%s", port.Name, port.VID, port.PID)
				if port.SerialNumber != "" {
					fmt.Printf(", serial %s", port.SerialNumber)
				}
				if port.Product != "" {
					fmt.Printf(", %s", port.Product)
				}
				fmt.Println()
			} else {
				fmt.Println(port.Name)
			}
		}
	},
}

func init() {
	portsCmd.Flags().Uint16Var(&portsVID, "vid", 0, "USB vendor ID")
	portsCmd.Flags().Uint16Var(&portsPID, "pid", 0, "USB product ID")
	rootCmd.AddCommand(portsCmd)
}
