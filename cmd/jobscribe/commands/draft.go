package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/internal/output"
	"github.com/jmylchreest/jobscribe/pkg/drafts"
	"github.com/jmylchreest/jobscribe/pkg/jobscribe"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft a cover letter and cold email for a job",
	Long: `Generate a cover letter and a cold email tailored to a job posting.

The posting comes from --url (extracted with --strategy) or from a plain
text --description file. The resume is optional but gives far better
drafts.

Examples:
  jobscribe draft --resume resume.txt --url "https://jobs.example.com/123"
  jobscribe draft --resume resume.txt --description job.txt \
      --company Acme --title "Backend Engineer" --format yaml`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindModelFlags(cmd.Flags())
		_ = viper.BindPFlag("strategy", cmd.Flags().Lookup("strategy"))
	},
	RunE: runDraft,
}

func init() {
	rootCmd.AddCommand(draftCmd)

	flags := draftCmd.Flags()
	flags.String("resume", "", "path to a plain text resume")
	flags.String("url", "", "job posting URL")
	flags.String("description", "", "path to a plain text job description")
	flags.String("company", "", "company name (overrides the extracted one)")
	flags.String("title", "", "job title (overrides the extracted one)")
	flags.StringP("strategy", "s", "heuristic", "extraction strategy for --url")
	flags.String("format", "yaml", "output format: json, yaml")
	addModelFlags(flags)

	draftCmd.MarkFlagsMutuallyExclusive("url", "description")
	draftCmd.MarkFlagsOneRequired("url", "description")
}

func runDraft(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flags := cmd.Flags()
	resumePath, _ := flags.GetString("resume")
	jobURL, _ := flags.GetString("url")
	descPath, _ := flags.GetString("description")

	req := drafts.DraftRequest{}
	if resumePath != "" {
		text, err := readTextFile(resumePath)
		if err != nil {
			return err
		}
		req.Resume = text
	}

	if jobURL != "" {
		posting, err := extractPosting(ctx, jobURL)
		if err != nil {
			return err
		}
		req.JobDescription = posting.JobDescription
		req.CompanyName = posting.CompanyName
		req.JobTitle = posting.JobTitle
	} else {
		text, err := readTextFile(descPath)
		if err != nil {
			return err
		}
		req.JobDescription = text
	}
	if company, _ := flags.GetString("company"); company != "" {
		req.CompanyName = company
	}
	if title, _ := flags.GetString("title"); title != "" {
		req.JobTitle = title
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return errors.New("no job description found; pass --description or try --strategy model")
	}

	provider, err := newProvider()
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		return err
	}

	logger.Info("generating drafts",
		"provider", provider.Name(),
		"model", provider.Model(),
		"company", req.CompanyName,
		"has_resume", req.Resume != "")

	result, err := drafts.New(provider).GenerateDrafts(ctx, req)
	if err != nil {
		logger.Error("draft generation failed", "error", err)
		return err
	}

	formatStr, _ := flags.GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	w, err := output.New(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}
	if err := w.Write(result); err != nil {
		return err
	}
	return w.Close()
}

// extractPosting runs the extraction pipeline for a single URL.
func extractPosting(ctx context.Context, jobURL string) (jobscribe.Result, error) {
	opts, err := scribeOptions(fetchSettings{})
	if err != nil {
		return jobscribe.Result{}, err
	}
	s, err := jobscribe.New(opts...)
	if err != nil {
		return jobscribe.Result{}, err
	}
	defer func() { _ = s.Close() }()

	out, err := s.Extract(ctx, jobscribe.Request{JobURL: jobURL})
	if err != nil {
		return jobscribe.Result{}, err
	}
	if out.FetchErr != nil {
		return jobscribe.Result{}, fmt.Errorf("could not fetch %s: %w", jobURL, out.FetchErr)
	}
	return out.Result, nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified files
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
