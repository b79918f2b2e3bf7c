package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llk214/semantic-locator/internal/config"
	"github.com/llk214/semantic-locator/internal/locator"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	ocrMode string
	ocrDPI  int
	deep    bool
	force   bool
	quiet   bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <folder>",
		Short: "Build (or refresh) the index for a folder of PDFs",
		Long: `Build the search index for every *.pdf directly under the folder.

The index is cached on disk keyed by the folder contents and the OCR
settings; rebuilding an unchanged folder is instant. Ctrl-C cancels a
build and leaves no partial cache entry behind.

Examples:
  semloc index ./papers
  semloc index ./scans --ocr fast
  semloc index ./papers --deep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ocrMode, "ocr", "", "OCR mode: off, fast, deep (overrides config)")
	cmd.Flags().IntVar(&opts.ocrDPI, "dpi", 0, "OCR raster resolution (overrides config)")
	cmd.Flags().BoolVar(&opts.deep, "deep", false, "Also precompute chunk embeddings for deep search")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Re-extract even if a cached index matches")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

func applyOCRFlags(cfg *config.Config, mode string, dpi int) {
	if mode != "" {
		cfg.OCR.Mode = mode
	}
	if dpi > 0 {
		cfg.OCR.DPI = dpi
	}
}

func runIndex(cmd *cobra.Command, folder string, opts indexOptions) error {
	cfg, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()
	applyOCRFlags(&cfg, opts.ocrMode, opts.ocrDPI)

	loc, err := newLocator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	progress := func(source string, page, total int) {
		if !opts.quiet {
			fmt.Fprintf(out, "\r%s: page %d/%d          ", source, page, total)
		}
	}

	if err := loc.Build(ctx, folder, locator.BuildOptions{Progress: progress, Force: opts.force}); err != nil {
		if !opts.quiet {
			fmt.Fprintln(out)
		}
		return err
	}
	if !opts.quiet {
		fmt.Fprintf(out, "\rIndexed %d chunks from %s\n", loc.ChunkCount(), folder)
	}

	if opts.deep {
		err := loc.PrecomputeEmbeddings(ctx, func(done, total int) {
			if !opts.quiet {
				fmt.Fprintf(out, "\rEmbedding chunks %d/%d          ", done, total)
			}
		})
		if err != nil {
			if !opts.quiet {
				fmt.Fprintln(out)
			}
			return err
		}
		if !opts.quiet {
			fmt.Fprintln(out, "\rEmbeddings ready                    ")
		}
	}
	return nil
}
