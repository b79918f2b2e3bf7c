package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llk214/semantic-locator/internal/ocr"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk caches",
	}
	cmd.AddCommand(newCacheClearOCRCmd())
	cmd.AddCommand(newCacheClearIndexCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearOCRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-ocr",
		Short: "Delete all cached OCR results",
		Long: `Delete all cached OCR results.

OCR results never expire on their own; clear them after changing the
Tesseract language packs or when reclaiming disk space.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()
			if err := ocr.ClearCache(cfg.Paths.OCRCacheDir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OCR cache cleared.")
			return nil
		},
	}
}

func newCacheClearIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-index",
		Short: "Delete all cached index snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()
			if err := os.RemoveAll(cfg.Paths.IndexCacheDir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Index cache cleared.")
			return nil
		},
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadConfig()
			if err != nil {
				return err
			}
			defer cleanup()
			fmt.Fprintln(cmd.OutOrStdout(), "index:", cfg.Paths.IndexCacheDir)
			fmt.Fprintln(cmd.OutOrStdout(), "ocr:  ", cfg.Paths.OCRCacheDir)
			return nil
		},
	}
}
