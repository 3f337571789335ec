package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/internal/output"
	"github.com/jmylchreest/jobscribe/pkg/jobscribe"
)

// record is one extracted posting as written by the CLI.
type record struct {
	URL            string          `json:"url" yaml:"url"`
	JobTitle       string          `json:"jobTitle" yaml:"jobTitle"`
	CompanyName    string          `json:"companyName" yaml:"companyName"`
	JobDescription string          `json:"jobDescription" yaml:"jobDescription"`
	Metadata       *recordMetadata `json:"_metadata,omitempty" yaml:"_metadata,omitempty"`
}

type recordMetadata struct {
	FetchedAt         string `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	StatusCode        int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	FetchError        string `json:"fetch_error,omitempty" yaml:"fetch_error,omitempty"`
	Extractor         string `json:"extractor,omitempty" yaml:"extractor,omitempty"`
	Model             string `json:"model,omitempty" yaml:"model,omitempty"`
	FellBack          bool   `json:"fell_back,omitempty" yaml:"fell_back,omitempty"`
	InputTokens       int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens      int    `json:"output_tokens" yaml:"output_tokens"`
	ContentSize       int    `json:"content_size" yaml:"content_size"`
	FetchDurationMs   int64  `json:"fetch_duration_ms" yaml:"fetch_duration_ms"`
	ExtractDurationMs int64  `json:"extract_duration_ms" yaml:"extract_duration_ms"`
}

func newRecord(o *jobscribe.Outcome, withMetadata bool) record {
	r := record{
		URL:            o.URL,
		JobTitle:       o.Result.JobTitle,
		CompanyName:    o.Result.CompanyName,
		JobDescription: o.Result.JobDescription,
	}
	if !withMetadata {
		return r
	}
	m := &recordMetadata{
		StatusCode:        o.StatusCode,
		Extractor:         o.Extractor,
		Model:             o.Model,
		FellBack:          o.FellBack,
		InputTokens:       o.TokenUsage.InputTokens,
		OutputTokens:      o.TokenUsage.OutputTokens,
		ContentSize:       o.ContentSize,
		FetchDurationMs:   o.FetchDuration.Milliseconds(),
		ExtractDurationMs: o.ExtractDuration.Milliseconds(),
	}
	if !o.FetchedAt.IsZero() {
		m.FetchedAt = o.FetchedAt.UTC().Format(time.RFC3339)
	}
	if o.FetchErr != nil {
		m.FetchError = o.FetchErr.Error()
	}
	r.Metadata = m
	return r
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract job postings from URLs",
	Long: `Fetch job posting pages and recover the job title, company name and
description.

Strategies:
  heuristic       labels, <h1> and section anchors; no model calls
  model           one call to the primary model
  model-fallback  primary model, then the fallback model once if the
                  primary is rate limited

A page that cannot be fetched is reported with empty fields and a
fetch_error in its metadata.

Examples:
  jobscribe extract -u "https://jobs.example.com/123"
  jobscribe extract -u URL1 -u URL2 --strategy model -p groq --format jsonl
  jobscribe extract -u URL --strategy model-fallback \
      --fallback-provider anthropic --max-chars 10k`,
	PreRun: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		bindModelFlags(flags)
		_ = viper.BindPFlag("strategy", flags.Lookup("strategy"))
		_ = viper.BindPFlag("fallback_provider", flags.Lookup("fallback-provider"))
		_ = viper.BindPFlag("fallback_model", flags.Lookup("fallback-model"))
		_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
		_ = viper.BindPFlag("readability", flags.Lookup("readability"))
	},
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()

	flags.StringSliceP("url", "u", nil, "job posting URL(s) (can be repeated)")
	flags.StringP("strategy", "s", "heuristic", "extraction strategy: heuristic, model, model-fallback")

	addModelFlags(flags)
	flags.String("fallback-provider", "", "fallback model provider (default openai)")
	flags.String("fallback-model", "", "fallback model name")

	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.Bool("include-metadata", true, "add a _metadata block to each record")

	flags.String("fetch-mode", "static", "fetch mode: static, dynamic")
	flags.Duration("timeout", 30*time.Second, "fetch timeout")
	flags.Bool("stealth", false, "hide headless browser markers in dynamic fetch mode")
	flags.String("max-chars", "20k", "max normalized content size passed to extraction (e.g. 20k, 0=default)")
	flags.Bool("readability", false, "run readability before text normalization")
	flags.IntP("concurrency", "c", 3, "concurrent extractions")
}

func runExtract(cmd *cobra.Command, args []string) error {
	urls, _ := cmd.Flags().GetStringSlice("url")
	urls = append(urls, args...)
	if len(urls) == 0 {
		return cmd.Help()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetchMode, _ := cmd.Flags().GetString("fetch-mode")
	stealth, _ := cmd.Flags().GetBool("stealth")
	maxChars, _ := cmd.Flags().GetString("max-chars")

	opts, err := scribeOptions(fetchSettings{Mode: fetchMode, Stealth: stealth, MaxChars: maxChars})
	if err != nil {
		logger.Error("invalid settings", "error", err)
		return err
	}

	s, err := jobscribe.New(opts...)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer func() { _ = s.Close() }()

	var out io.Writer = os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	writer, err := output.New(out, format)
	if err != nil {
		return err
	}

	includeMetadata, _ := cmd.Flags().GetBool("include-metadata")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	logger.Info("starting extraction",
		"urls", len(urls),
		"extractor", s.Strategy(),
		"concurrency", concurrency)

	stats, err := writeOutcomes(writer, s.ExtractMany(ctx, urls, concurrency), includeMetadata)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Error("failed to write output", "error", err)
		return err
	}

	logInfo("extracted %d of %d postings (%d unreachable, %d failed, %s tokens)",
		stats.written-stats.unreachable, len(urls), stats.unreachable, stats.failed,
		humanize.Comma(int64(stats.tokens)))

	if stats.failed > 0 {
		return fmt.Errorf("%d of %d extractions failed", stats.failed, len(urls))
	}
	return nil
}

type extractStats struct {
	written     int
	unreachable int
	failed      int
	tokens      int
}

// writeOutcomes writes every outcome that has a result. Failed extractions
// are logged and counted, not written.
func writeOutcomes(w output.Writer, outcomes <-chan *jobscribe.Outcome, withMetadata bool) (extractStats, error) {
	var stats extractStats
	for o := range outcomes {
		if o.Error != nil {
			stats.failed++
			logger.Error("extraction failed", "url", o.URL, "error", o.Error)
			continue
		}
		if o.FetchErr != nil {
			stats.unreachable++
		}
		stats.tokens += o.TokenUsage.InputTokens + o.TokenUsage.OutputTokens
		if err := w.Write(newRecord(o, withMetadata)); err != nil {
			return stats, err
		}
		stats.written++
	}
	return stats, nil
}
