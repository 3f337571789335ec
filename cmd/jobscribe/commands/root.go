// Package commands implements the CLI commands for jobscribe.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/jobscribe/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "jobscribe",
	Short: "Job posting extraction and application drafting",
	Long: `Jobscribe pulls the title, company and description out of job posting
pages, drafts cover letters and cold emails, and tracks applications.

Examples:
  # Extract with the built-in heuristics (no API key needed)
  jobscribe extract -u "https://jobs.example.com/123"

  # Extract with Groq, falling back to OpenAI when Groq is rate limited
  jobscribe extract -u "https://jobs.example.com/123" --strategy model-fallback

  # Draft a cover letter and cold email
  jobscribe draft --resume resume.txt --url "https://jobs.example.com/123"

  # Run the HTTP API
  jobscribe serve --addr :8080`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
			Level: viper.GetString("log_level"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.jobscribe.yaml)")
	flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	flags.Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("env_file", flags.Lookup("env-file"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))
}

func initConfig() {
	// The dotenv file only fills variables that are not already set.
	if envFile := viper.GetString("env_file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logError("loading %s: %v", envFile, err)
		}
	}

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".jobscribe")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("JOBSCRIBE")
	viper.AutomaticEnv()

	// JOBSCRIBE_API_KEY overrides the provider's own variable.
	_ = viper.BindEnv("api_key", "JOBSCRIBE_API_KEY")
	_ = viper.BindEnv("fallback_api_key", "JOBSCRIBE_FALLBACK_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
