package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) translateCmd() *cobra.Command {
	var (
		lang         string
		endpointKind string
	)

	cmd := &cobra.Command{
		Use:   "translate <text>...",
		Short: "Translate text through the configured endpoint and caches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("endpoint") {
				c.cfg.Translation.Endpoint = endpointKind
			}

			a, err := newApp(cmd.Context(), c.cfg, c.logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			out := a.client.Translate(cmd.Context(), strings.Join(args, " "), lang)
			_, err = fmt.Fprintln(c.stdout, out)
			return err
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Target language code (e.g. en, es)")
	cmd.Flags().StringVar(&endpointKind, "endpoint", "", "Translation endpoint (lingva, openai, mock)")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}
