package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"resty.dev/v3"

	"github.com/janhq/multichat/pkg/multichat"
)

var version = "1.0.0"

// cliConfig holds the environment defaults for the persistent flags.
type cliConfig struct {
	ServerURL      string        `env:"MULTICHAT_SERVER_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"MULTICHAT_TIMEOUT" envDefault:"0s"`
}

// loadCLIConfig reads .env and the environment. Invalid values fall back to
// the defaults with a warning.
func loadCLIConfig() cliConfig {
	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return cliConfig{ServerURL: "http://localhost:8080"}
	}
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "multichat",
	Short: "Ask several LLMs at once and watch their answers side by side",
	Long: `multichat sends one query to every selected model through a multichat
server and shows each model's streamed answer as it arrives.

Examples:
  multichat models
  multichat ask "Explain CRDTs in two sentences"
  multichat ask -m groq-llama-3.3-70b -m cerebras-llama-3.1-8b "Hello"
  multichat chat
  multichat schema frame`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(schemaCmd)

	cfg := loadCLIConfig()
	rootCmd.PersistentFlags().String("server", cfg.ServerURL, "Multichat server base URL")
	rootCmd.PersistentFlags().Duration("timeout", cfg.RequestTimeout, "Overall request timeout (0 disables)")
	rootCmd.PersistentFlags().Bool("legacy-path", false, "Use POST /api/chat instead of /v1/chat/stream")
}

// newClient builds a client from the persistent flags.
func newClient(cmd *cobra.Command) *multichat.Client {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	legacy, _ := cmd.Flags().GetBool("legacy-path")

	rc := resty.New()
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	opts := []multichat.Option{multichat.WithRestyClient(rc)}
	if legacy {
		opts = append(opts, multichat.WithStreamPath("/api/chat"))
	}
	return multichat.NewClient(server, opts...)
}
