package cmd

import (
	"fmt"
	"os"

	"github.com/KaiStephens/lockInRecorder/internal/camera"
	"github.com/KaiStephens/lockInRecorder/internal/logging"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var maxIndex int

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Probe camera devices",
		Long:  `Opens each camera index up to --max-index and reports which ones deliver frames.`,
		Run: func(_ *cobra.Command, _ []string) {
			// Probe output goes to stdout; keep logs out of the way
			logging.Initialize(logging.Config{
				Level:  "warn",
				Format: "text",
			})

			found := 0
			for _, result := range camera.Probe(maxIndex) {
				if !result.Available {
					fmt.Printf("index %d: unavailable\n", result.Index)
					continue
				}
				found++
				if result.Fps > 0 {
					fmt.Printf("index %d: %dx%d @ %.4g fps\n", result.Index, result.Width, result.Height, result.Fps)
				} else {
					fmt.Printf("index %d: %dx%d\n", result.Index, result.Width, result.Height)
				}
			}
			if found == 0 {
				fmt.Println("no cameras found")
				os.Exit(1)
			}
		},
	}

	cmd.Flags().IntVar(&maxIndex, "max-index", 4, "Highest device index to probe")

	return cmd
}
