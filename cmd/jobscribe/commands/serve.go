package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/jobscribe/internal/api"
	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/internal/store"
	"github.com/jmylchreest/jobscribe/pkg/drafts"
	"github.com/jmylchreest/jobscribe/pkg/jobscribe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the extraction, drafting and application tracking API.

Draft endpoints need a model provider; without an API key (or a local
Ollama) they answer 503 while extraction and tracking keep working.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		bindModelFlags(flags)
		_ = viper.BindPFlag("strategy", flags.Lookup("strategy"))
		_ = viper.BindPFlag("readability", flags.Lookup("readability"))
		_ = viper.BindPFlag("addr", flags.Lookup("addr"))
		_ = viper.BindPFlag("db", flags.Lookup("db"))
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("db", "jobscribe.db", "SQLite database path")
	flags.StringP("strategy", "s", "heuristic", "extraction strategy: heuristic, model, model-fallback")
	flags.Bool("readability", false, "run readability before text normalization")
	addModelFlags(flags)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLiteStore(viper.GetString("db"))
	if err != nil {
		logger.Error("failed to open database", "path", viper.GetString("db"), "error", err)
		return err
	}
	defer func() { _ = st.Close() }()

	opts, err := scribeOptions(fetchSettings{})
	if err != nil {
		return err
	}
	s, err := jobscribe.New(opts...)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer func() { _ = s.Close() }()

	// A nil writer disables the draft endpoints.
	var writer api.DraftWriter
	if provider, err := newProvider(); err != nil {
		logger.Warn("drafting disabled", "error", err)
	} else {
		writer = drafts.New(provider)
	}

	srv := &http.Server{
		Addr:              viper.GetString("addr"),
		Handler:           api.NewServer(s, writer, st).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "extractor", s.Strategy(), "drafting", writer != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
