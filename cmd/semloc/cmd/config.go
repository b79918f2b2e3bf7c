package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/llk214/semantic-locator/configs"
	"github.com/llk214/semantic-locator/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and scaffold configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "semloc.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(configs.ExampleConfig), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "index cache:  %s\n", cfg.Paths.IndexCacheDir)
			fmt.Fprintf(out, "ocr cache:    %s\n", cfg.Paths.OCRCacheDir)
			fmt.Fprintf(out, "embeddings:   provider=%s model=%s\n", cfg.Embeddings.Provider, cfg.Embeddings.Model)
			fmt.Fprintf(out, "ocr:          mode=%s dpi=%d\n", cfg.OCR.Mode, cfg.OCR.DPI)
			fmt.Fprintf(out, "search:       fusion=%s bias=%.2f top_k=%d pool=%d\n",
				cfg.Search.Fusion, cfg.Search.LexicalBias, cfg.Search.TopK, cfg.Search.CandidatePool)
			fmt.Fprintf(out, "chunking:     max=%d overlap=%d\n", cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens)
			return nil
		},
	}
}
