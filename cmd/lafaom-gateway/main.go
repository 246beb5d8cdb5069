// Command lafaom-gateway serves a backend REST API translated into the
// visitor's language, and manages the translation and response caches.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/internal/config"
	"github.com/lafaom-mao/apilocale/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the state shared by every command.
type cli struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logrus.Logger
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "lafaom-gateway",
		Short:         apilocale.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML config file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		c.serveCmd(),
		c.translateCmd(),
		c.cacheCmd(),
		c.versionCmd(),
	)
	return root
}

// load reads the config file and builds the logger. Command flags are
// applied on top by each command.
func (c *cli) load(cmd *cobra.Command) error {
	var err error
	if c.configPath != "" {
		c.cfg, err = config.Load(c.configPath)
		if err != nil {
			return err
		}
	} else {
		c.cfg = config.FromEnv()
	}

	if cmd.Flags().Changed("log-level") {
		c.cfg.Logging.Level = c.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.cfg.Logging.Format = c.logFormat
	}

	c.logger, err = logging.NewWithOutput(c.stderr, c.cfg.Logging.Level, c.cfg.Logging.Format)
	return err
}
