// Package main implements profilectl, a command-line client for the company
// profile registry.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"profile-registry/internal/logging"
	"profile-registry/internal/repository"
	"profile-registry/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	registryURL string
	timeout     time.Duration
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "profilectl",
		Short:         "Company profile registry client",
		Long:          "profilectl reads the current company profile from the registry and reconstructs its version history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("REGISTRY_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8000"
	}

	root.PersistentFlags().StringVar(&opts.registryURL, "registry", defaultURL, "Base URL of the profile registry")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newLatestCmd(opts), newHistoryCmd(opts))
	return root
}

func (o *options) historyService(stderr io.Writer) *service.HistoryService {
	logger := logging.New(stderr, o.logLevel, "cli")
	return service.NewHistoryService(o.repository(), logger, nil)
}

func (o *options) repository() repository.ProfileRepository {
	return repository.NewHTTPProfileRepository(o.registryURL, o.timeout)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
