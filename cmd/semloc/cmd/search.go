package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llk214/semantic-locator/internal/locator"
	"github.com/llk214/semantic-locator/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK        int
	bias        float64
	fusion      string
	pool        int
	deep        bool
	format      string // "text", "json"
	interactive bool
	ocrMode     string
	ocrDPI      int
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <folder> [query...]",
		Short: "Find the pages answering a query",
		Long: `Search the indexed folder with a natural-language query.

The folder is indexed first if no cached index exists. With an
embedding provider configured the query is matched both by keywords
and by meaning; a query in another language than the documents still
works when the model is multilingual.

Examples:
  semloc search ./papers "mitochondrial membrane potential"
  semloc search ./papers "what limits battery life" --top-k 3
  semloc search ./papers --interactive
  semloc search ./papers "läkemedelsdosering" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := args[0]
			query := strings.Join(args[1:], " ")
			if !opts.interactive && query == "" {
				return fmt.Errorf("provide a query or use --interactive")
			}
			return runSearch(cmd, folder, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().Float64Var(&opts.bias, "bias", -1, "Lexical weight in [0,1] for percentile fusion (default from config)")
	cmd.Flags().StringVar(&opts.fusion, "fusion", "", "Fusion method: rrf, percentile (default from config)")
	cmd.Flags().IntVar(&opts.pool, "pool", 0, "First-stage candidate pool size (default from config)")
	cmd.Flags().BoolVar(&opts.deep, "deep", false, "Score every chunk (precomputes embeddings first)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Read queries from stdin in a loop")
	cmd.Flags().StringVar(&opts.ocrMode, "ocr", "", "OCR mode: off, fast, deep (overrides config)")
	cmd.Flags().IntVar(&opts.ocrDPI, "dpi", 0, "OCR raster resolution (overrides config)")

	return cmd
}

func runSearch(cmd *cobra.Command, folder, query string, opts searchOptions) error {
	cfg, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()
	applyOCRFlags(&cfg, opts.ocrMode, opts.ocrDPI)

	if opts.topK <= 0 {
		opts.topK = cfg.Search.TopK
	}
	if opts.bias < 0 {
		opts.bias = cfg.Search.LexicalBias
	}
	if opts.fusion == "" {
		opts.fusion = cfg.Search.Fusion
	}
	if opts.pool <= 0 {
		opts.pool = cfg.Search.CandidatePool
	}
	method, err := search.ParseMethod(opts.fusion)
	if err != nil {
		return err
	}
	if opts.bias > 1 {
		return fmt.Errorf("bias must be in [0,1], got %v", opts.bias)
	}

	loc, err := newLocator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loc.Build(ctx, folder, locator.BuildOptions{}); err != nil {
		return err
	}
	if opts.deep {
		if err := loc.PrecomputeEmbeddings(ctx, nil); err != nil {
			return err
		}
	}

	searchOpts := locator.SearchOptions{
		TopK:          opts.topK,
		Bias:          opts.bias,
		Fusion:        method,
		CandidatePool: opts.pool,
		Deep:          opts.deep,
	}

	out := cmd.OutOrStdout()
	if opts.interactive {
		return searchLoop(ctx, loc, cmd.InOrStdin(), out, searchOpts, opts.format)
	}
	return searchOnce(ctx, loc, query, out, searchOpts, opts.format)
}

func searchOnce(ctx context.Context, loc *locator.HybridLocator, query string, out io.Writer, opts locator.SearchOptions, format string) error {
	results, crossLingual, err := loc.Search(ctx, query, opts)
	if err != nil {
		return err
	}
	return printResults(out, query, results, crossLingual, format)
}

// searchLoop is a minimal REPL: one query per line, empty line or EOF
// ends the session.
func searchLoop(ctx context.Context, loc *locator.HybridLocator, in io.Reader, out io.Writer, opts locator.SearchOptions, format string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "query> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" || query == "exit" || query == "quit" {
			return nil
		}
		if err := searchOnce(ctx, loc, query, out, opts, format); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		if loc.Stale() {
			fmt.Fprintln(out, "note: folder contents changed since the index was built")
		}
	}
}

// searchResponse is the JSON output envelope.
type searchResponse struct {
	Query        string           `json:"query"`
	CrossLingual bool             `json:"cross_lingual,omitempty"`
	Results      []locator.Result `json:"results"`
}

func printResults(out io.Writer, query string, results []locator.Result, crossLingual bool, format string) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(searchResponse{Query: query, CrossLingual: crossLingual, Results: results})
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	if crossLingual {
		fmt.Fprintln(out, "(no keyword overlap; matched semantically across languages)")
	}
	for i, r := range results {
		loc := fmt.Sprintf("%s, page %d", r.Source, r.Page)
		if r.ChunkIndex > 0 {
			loc += fmt.Sprintf(" (section %d)", r.ChunkIndex)
		}
		if r.Score != nil {
			fmt.Fprintf(out, "%d. %s  [%.3f]\n", i+1, loc, *r.Score)
		} else {
			fmt.Fprintf(out, "%d. %s\n", i+1, loc)
		}
		if r.Snippet != "" {
			fmt.Fprintf(out, "   %s\n", r.Snippet)
		}
	}
	return nil
}
