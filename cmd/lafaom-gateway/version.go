package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lafaom-mao/apilocale"
)

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "%s %s\n", apilocale.Name, apilocale.FullVersion())
			if apilocale.BuildDate != "" && apilocale.BuildDate != "unknown" {
				fmt.Fprintf(c.stdout, "  built:   %s\n", apilocale.BuildDate)
			}
			fmt.Fprintf(c.stdout, "  go:      %s\n", runtime.Version())
		},
	}
}
