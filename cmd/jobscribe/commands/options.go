package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	clifetcher "github.com/jmylchreest/jobscribe/cmd/jobscribe/fetcher"
	"github.com/jmylchreest/jobscribe/pkg/extractor"
	"github.com/jmylchreest/jobscribe/pkg/jobscribe"
	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// addModelFlags registers the model selection flags shared by extract and
// draft and binds them to viper, so they can also come from the config file.
func addModelFlags(flags *pflag.FlagSet) {
	flags.StringP("provider", "p", "", "model provider: groq, openai, anthropic, openrouter, ollama (default groq)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use the provider's env var)")
	flags.String("base-url", "", "custom API base URL")
}

func bindModelFlags(flags *pflag.FlagSet) {
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

// parseSize parses a human size such as "20k" or "1MB". Empty or "0"
// means the default.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int(n), nil
}

// fetchSettings are the fetch-related extract flags.
type fetchSettings struct {
	Mode     string
	Stealth  bool
	MaxChars string
}

// scribeOptions turns the viper settings into Scribe options.
func scribeOptions(fs fetchSettings) ([]jobscribe.Option, error) {
	strategy, err := extractor.ParseStrategy(viper.GetString("strategy"))
	if err != nil {
		return nil, err
	}
	maxChars, err := parseSize(fs.MaxChars)
	if err != nil {
		return nil, err
	}

	opts := []jobscribe.Option{
		jobscribe.WithStrategy(strategy),
		jobscribe.WithReadability(viper.GetBool("readability")),
		jobscribe.WithObserver(llm.LogObserver()),
	}
	if maxChars > 0 {
		opts = append(opts, jobscribe.WithMaxChars(maxChars))
	}
	if d := viper.GetDuration("timeout"); d > 0 {
		opts = append(opts, jobscribe.WithTimeout(d))
	}
	for key, opt := range map[string]func(string) jobscribe.Option{
		"provider":          jobscribe.WithProvider,
		"model":             jobscribe.WithModel,
		"api_key":           jobscribe.WithAPIKey,
		"base_url":          jobscribe.WithBaseURL,
		"fallback_provider": jobscribe.WithFallbackProvider,
		"fallback_model":    jobscribe.WithFallbackModel,
		"fallback_api_key":  jobscribe.WithFallbackAPIKey,
	} {
		if v := viper.GetString(key); v != "" {
			opts = append(opts, opt(v))
		}
	}

	switch fs.Mode {
	case "static", "":
	case "dynamic":
		f, err := clifetcher.NewDynamicFetcher(clifetcher.Config{
			Timeout: viper.GetDuration("timeout"),
			Stealth: fs.Stealth,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create dynamic fetcher: %w", err)
		}
		opts = append(opts, jobscribe.WithFetcher(f))
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use 'static' or 'dynamic')", fs.Mode)
	}
	return opts, nil
}

// newProvider builds the provider named by the viper settings, or the one
// detected from the environment when none is set.
func newProvider() (llm.Provider, error) {
	name := viper.GetString("provider")
	apiKey := viper.GetString("api_key")
	if name == "" {
		name = "groq"
		if os.Getenv(llm.EnvKey(name)) == "" && apiKey == "" {
			name, _ = llm.DetectProvider()
		}
	}
	if apiKey == "" {
		if env := llm.EnvKey(name); env != "" {
			apiKey = os.Getenv(env)
		}
	}
	p, err := llm.NewProvider(name, llm.ProviderConfig{
		APIKey:  apiKey,
		Model:   viper.GetString("model"),
		BaseURL: viper.GetString("base_url"),
	})
	if err != nil {
		return nil, err
	}
	return llm.Observe(p, llm.LogObserver()), nil
}
