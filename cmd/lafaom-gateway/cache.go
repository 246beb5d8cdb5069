package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/cache"
	"github.com/lafaom-mao/apilocale/httpcache"
	"github.com/lafaom-mao/apilocale/store"
)

func (c *cli) cacheCmd() *cobra.Command {
	var (
		storeKind string
		folder    string
	)

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the response and translation caches",
	}
	cmd.PersistentFlags().StringVar(&storeKind, "store", "", "Cache store (disk, redis)")
	cmd.PersistentFlags().StringVar(&folder, "folder", "", "Disk store folder")

	// openApp applies the store flags and opens the configured store.
	openApp := func(cmd *cobra.Command) (*app, error) {
		if cmd.Flags().Changed("store") {
			c.cfg.Cache.Store = storeKind
		}
		if cmd.Flags().Changed("folder") {
			c.cfg.Cache.Folder = folder
		}
		if c.cfg.Cache.Store == "memory" {
			c.logger.Warn("the memory store is empty outside the serving process")
		}
		return newApp(cmd.Context(), c.cfg, c.logger, nil)
	}

	cmd.AddCommand(
		c.cacheClearCmd(openApp),
		c.cachePurgeCmd(openApp),
		c.cacheExportCmd(openApp),
		c.cacheImportCmd(openApp),
	)
	return cmd
}

type appOpener func(cmd *cobra.Command) (*app, error)

func (c *cli) cacheClearCmd(open appOpener) *cobra.Command {
	var (
		lang         string
		translations bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached responses, for one language or all of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			responses := httpcache.NewTransport(nil, a.store, httpcache.WithLogger(c.logger))

			var n int
			if lang != "" {
				lang = apilocale.BaseLang(lang)
				n, err = responses.ClearLanguage(cmd.Context(), lang)
			} else {
				n, err = responses.ClearAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Removed %d cached responses\n", n)

			if translations {
				n, err := store.DeletePrefix(cmd.Context(), a.store, apilocale.TranslationPrefix)
				if err != nil {
					return fmt.Errorf("clearing translations: %w", err)
				}
				fmt.Fprintf(c.stdout, "Removed %d cached translations\n", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Only clear responses cached for this language")
	cmd.Flags().BoolVar(&translations, "translations", false, "Also clear persisted translations")
	return cmd
}

func (c *cli) cachePurgeCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired and undecodable entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			responses := httpcache.NewTransport(nil, a.store,
				httpcache.WithTTL(a.cfg.CacheTTL()),
				httpcache.WithLogger(c.logger),
			)
			swept, err := responses.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweeping responses: %w", err)
			}

			purged, err := a.translations.Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("purging translations: %w", err)
			}

			fmt.Fprintf(c.stdout, "Removed %d responses and %d translations\n", swept, purged)
			return nil
		},
	}
}

func (c *cli) cacheExportCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export persisted translations to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := cache.NewExporter(a.translations).ExportToFile(cmd.Context(), args[0], map[string]string{
				"source_lang": a.cfg.Backend.NativeLang,
				"version":     apilocale.FullVersion(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Exported %d translations to %s\n", n, args[0])
			return nil
		},
	}
}

func (c *cli) cacheImportCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import translations from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := cache.NewImporter(a.translations).ImportFromFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Imported %d translations (%d failed)\n", result.Imported, result.Failed)
			return nil
		},
	}
}
