// Package cmd provides the CLI commands for semloc.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llk214/semantic-locator/internal/config"
	"github.com/llk214/semantic-locator/internal/embed"
	"github.com/llk214/semantic-locator/internal/locator"
	"github.com/llk214/semantic-locator/internal/logging"
	"github.com/llk214/semantic-locator/internal/ocr"
)

var version = "dev"

var (
	configPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the semloc CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semloc",
		Short: "Locate relevant pages in a folder of PDFs",
		Long: `semloc indexes every PDF in a folder and answers natural-language
queries with the pages most likely to contain the answer.

Retrieval is hybrid: BM25 keyword matching narrows candidates, an
embedding model reranks them semantically. Without an embedding
provider configured, plain keyword search still works.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("semloc version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads the configured (or default) config and installs the
// logger. The returned cleanup closes any log file.
func loadConfig() (config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	level := cfg.LogLevel
	if debugMode {
		level = "debug"
	}
	_, cleanup, err := logging.Setup(logging.Config{Level: level})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, cleanup, nil
}

// newLocator assembles a locator from the config, with CLI overrides for
// OCR already applied to cfg by the caller.
func newLocator(cfg config.Config) (*locator.HybridLocator, error) {
	embedder, err := embed.New(embed.FactoryConfig{
		Provider:   cfg.Embeddings.Provider,
		Model:      cfg.Embeddings.Model,
		Host:       cfg.Embeddings.OllamaHost,
		Dimensions: cfg.Embeddings.Dimensions,
		Timeout:    cfg.Embeddings.Timeout,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	mode, err := ocr.ParseMode(cfg.OCR.Mode)
	if err != nil {
		return nil, err
	}
	var engine ocr.Engine
	if mode != ocr.ModeOff {
		engine = ocr.NewTesseract(cfg.OCR.Languages...)
	}
	augmenter := ocr.NewAugmenter(engine, mode, cfg.OCR.DPI, cfg.Paths.OCRCacheDir)

	return locator.New(locator.Options{
		IndexCacheDir: cfg.Paths.IndexCacheDir,
		Augmenter:     augmenter,
		Embedder:      embedder,
		RRFConstant:   cfg.Search.RRFConstant,
	}), nil
}
