package main

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var annotate bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Reconstruct the profile's version history",
		Long:  "Rebuilds the version timeline from the current profile and its edit records. With --annotate every version lists each field's old value, new value and change type.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := opts.historyService(cmd.ErrOrStderr())

			if annotate {
				h, err := svc.Annotated(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), h)
			}

			h, err := svc.Reconstruct(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), h)
		},
	}

	cmd.Flags().BoolVar(&annotate, "annotate", false, "Include per-field change annotations")
	return cmd
}
