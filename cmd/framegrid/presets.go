package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/density"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List density presets, layout modes and output formats",
	Args:  cobra.NoArgs,
	Run: func(*cobra.Command, []string) {
		fmt.Println("Density presets (thumbnail counts for a 2h video at the default canvas width):")
		for _, d := range density.Presets() {
			count, _ := d.TargetCount(7200, config.DefaultCanvasWidth)
			fmt.Printf("  %-10s %4gx  ~%d frames\n", d.Name, d.Factor, count)
		}

		fmt.Println()
		fmt.Println("Layout modes:")
		for _, l := range []struct{ mode, desc string }{
			{"custom", "packs three zones of mixed thumbnail sizes for full canvas coverage (default)"},
			{"classic", "uniform near-square grid"},
			{"auto", "uniform grid sized from the display hint"},
			{"dynamic", "larger thumbnails toward the middle of the video"},
			{"compact-vertical", "single full-width column for top-to-bottom scrubbing"},
		} {
			fmt.Printf("  %-18s %s\n", l.mode, l.desc)
		}

		fmt.Println()
		fmt.Println("Output formats: webp (default), png, jpeg")
	},
}
