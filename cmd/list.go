/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/allbin/go-iuu"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached programmers",
	Long: `List all Infinity USB Unlimited programmers found in sysfs.

Each line shows the bus and device address, the USB ids and the serial
number. The position in this list is what --index selects; --serial
selects by serial number and survives re-plugging.

Examples:
  iuutool list
  iuutool list --table`,
	Run: func(cmd *cobra.Command, args []string) {
		devices, err := iuu.ListDevicesIn(cfg.Device.SysfsRoot)
		if err != nil {
			fatalf("Error listing devices: %v", err)
		}

		if len(devices) == 0 {
			fmt.Println("No programmers found")
			return
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderTable(devices)
		} else {
			renderSimple(devices)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

const (
	columnIndex    = "index"
	columnAddress  = "address"
	columnName     = "name"
	columnSerial   = "serial"
	columnProduct  = "product"
	columnEndpoint = "endpoints"
)

// deviceTable builds the static table shown by list --table.
func deviceTable(devices []iuu.DeviceInfo) table.Model {
	columns := []table.Column{
		table.NewColumn(columnIndex, "#", 3),
		table.NewColumn(columnAddress, "Bus/Dev", 9),
		table.NewColumn(columnName, "Sysfs", 10),
		table.NewColumn(columnSerial, "Serial", 14),
		table.NewColumn(columnProduct, "Product", 24),
		table.NewColumn(columnEndpoint, "Endpoints", 11),
	}

	rows := make([]table.Row, 0, len(devices))
	for i, d := range devices {
		endpoints := "-"
		if d.EndpointIn != 0 {
			endpoints = fmt.Sprintf("%02X/%02X", d.EndpointIn, d.EndpointOut)
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnIndex:    strconv.Itoa(i),
			columnAddress:  fmt.Sprintf("%03d/%03d", d.Bus, d.Address),
			columnName:     d.Name,
			columnSerial:   d.Serial,
			columnProduct:  d.Product,
			columnEndpoint: endpoints,
		}))
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	return table.New(columns).
		WithRows(rows).
		HeaderStyle(headerStyle).
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left))
}

// renderTable renders the device list in a styled static table format
func renderTable(devices []iuu.DeviceInfo) {
	fmt.Printf("Found %d programmer(s):\n\n", len(devices))
	fmt.Println(deviceTable(devices).View())
}

// renderSimple renders the device list in simple text format
func renderSimple(devices []iuu.DeviceInfo) {
	for i, d := range devices {
		fmt.Printf("%d: %s\n", i, d)
	}
}
