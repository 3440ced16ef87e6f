/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/allbin/go-iuu"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a programmer at the USB level",
	Long: `Perform a USB port reset on a programmer. This can recover a device
left in an unknown state by an interrupted transfer without physically
unplugging it.

The device will re-enumerate after reset, which changes its device
address. Use --serial to reliably identify it afterwards.

Requirements:
- Write access to the usbfs node (root, or a udev rule for 104f:0004)

Examples:
  sudo iuutool reset                 # Reset the first programmer
  sudo iuutool reset --serial A1B2   # Reset by serial number

Use 'iuutool atr' to reset the card instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info, err := selectDevice()
		if err != nil {
			fatalf("Error: %v", err)
		}

		fmt.Printf("Resetting programmer %s\n", info)
		if err := iuu.ResetDevice(info, cfg.Device.USBOptions()...); err != nil {
			if errors.Is(err, iuu.ErrUSBInfoNotAvailable) {
				fatalf("Error: %v\nThe bus or device number of %s is unknown", err, info.Name)
			}
			fatalf("Error: %v", err)
		}
		logger.Info("usb reset", zap.Stringer("device", info))

		fmt.Println("USB device reset successfully")
		fmt.Printf("Device will re-enumerate within about %s (address will change)\n", iuu.ReenumerationDelay)
		fmt.Println("\nUse 'iuutool list --table' to see updated device list")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
