package devices

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/pitchtrack/internal/audiocore/sources"
	"github.com/tphakala/pitchtrack/internal/audiocore/sources/malgo"
)

// Command creates a command listing audio capture devices.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := sources.ListAvailableDevices()
			if err != nil {
				return err
			}
			printDevices(os.Stdout, devices)
			return nil
		},
	}
}

func printDevices(w io.Writer, devices []malgo.DeviceInfo) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No capture devices found")
		return
	}
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %2d  %-40s  %s\n", marker, d.Index, d.Name, d.ID)
	}
}
