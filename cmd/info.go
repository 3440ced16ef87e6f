/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display detailed information about a programmer",
	Long: `Display the USB metadata of a programmer together with the identity
strings reported by its firmware and the card slot state.

Examples:
  iuutool info
  iuutool info --serial A1B2C3

The USB metadata comes from sysfs. Firmware, product and loader strings
are read from the device itself.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s, info, err := openSession()
		if err != nil {
			fatalf("Error opening programmer: %v", err)
		}
		defer s.Close()

		fmt.Printf("Programmer: %s\n\n", info.Name)

		fmt.Println("USB Device Information:")
		fmt.Printf("  Vendor ID:    %04x\n", info.VendorID)
		fmt.Printf("  Product ID:   %04x\n", info.ProductID)
		if info.Serial != "" {
			fmt.Printf("  Serial:       %s\n", info.Serial)
		}
		fmt.Printf("  Bus:          %03d\n", info.Bus)
		fmt.Printf("  Device:       %03d\n", info.Address)
		fmt.Printf("  Interface:    %d\n", info.Interface)
		fmt.Printf("  Endpoints:    in 0x%02X, out 0x%02X\n", info.EndpointIn, info.EndpointOut)
		if info.Manufacturer != "" {
			fmt.Printf("  Manufacturer: %s\n", info.Manufacturer)
		}
		if info.Product != "" {
			fmt.Printf("  Product:      %s\n", info.Product)
		}

		fmt.Println("\nFirmware:")
		if name, err := s.ProductName(); err == nil {
			fmt.Printf("  Product:      %s\n", name)
		} else {
			fmt.Printf("  Product:      error: %v\n", err)
		}
		if fw, err := s.FirmwareVersion(); err == nil {
			fmt.Printf("  Version:      %s\n", fw)
		} else {
			fmt.Printf("  Version:      error: %v\n", err)
		}
		if ld, err := s.LoaderVersion(); err == nil {
			fmt.Printf("  Loader:       %s\n", ld)
		} else {
			fmt.Printf("  Loader:       error: %v\n", err)
		}

		st, err := s.Status()
		if err != nil {
			fatalf("Error reading status: %v", err)
		}
		fmt.Printf("\nCard slots:     %s\n", st)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
