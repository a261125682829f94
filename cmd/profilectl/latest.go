package main

import (
	"errors"

	"profile-registry/internal/repository"

	"github.com/spf13/cobra"
)

var errNoProfile = errors.New("no profile registered")

func newLatestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the current company profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := opts.repository().FetchCurrent(cmd.Context())
			if errors.Is(err, repository.ErrProfileNotFound) {
				return errNoProfile
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), current)
		},
	}
}
