package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/exati-cli/internal/adapters/records"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/ports"
	"github.com/spf13/cobra"
)

func newObservationCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "observation",
		Short: "Update occurrence observations",
	}

	cmd.AddCommand(newObservationSetCmd(app), newObservationReopenCmd(app))

	return cmd
}

func newObservationSetCmd(app *app) *cobra.Command {
	var occurrenceID int64
	var text string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the observation of an occurrence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				occurrence := domain.Occurrence{OccurrenceID: domain.OccurrenceID(occurrenceID)}
				if err := records.NewObservations(caller).Update(ctx, &occurrence, text); err != nil {
					return err
				}
				return writeOutcome(cmd, occurrence, asJSON)
			})
		},
	}

	cmd.Flags().Int64Var(&occurrenceID, "occurrence", 0, "Occurrence id")
	cmd.Flags().StringVar(&text, "text", "", "New observation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("occurrence")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newObservationReopenCmd(app *app) *cobra.Command {
	var occurrenceID, pointID int64
	var observation string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reopen",
		Short: "Replace the reopening marker with the latest service status of a service point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				status, err := records.NewServiceStatus(caller).Latest(ctx, domain.ServicePointID(pointID))
				if err != nil {
					return err
				}

				occurrence := domain.Occurrence{
					OccurrenceID:   domain.OccurrenceID(occurrenceID),
					ServicePointID: domain.ServicePointID(pointID),
					Observation:    observation,
				}
				if err := records.NewObservations(caller).MarkReopening(ctx, &occurrence, status); err != nil {
					return err
				}
				return writeOutcome(cmd, occurrence, asJSON)
			})
		},
	}

	cmd.Flags().Int64Var(&occurrenceID, "occurrence", 0, "Occurrence id")
	cmd.Flags().Int64Var(&pointID, "point", 0, "Service point id")
	cmd.Flags().StringVar(&observation, "observation", "", "Current observation holding the reopening marker")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("occurrence")
	_ = cmd.MarkFlagRequired("point")
	_ = cmd.MarkFlagRequired("observation")

	return cmd
}

func writeOutcome(cmd *cobra.Command, occurrence domain.Occurrence, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), occurrence)
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", occurrence.Outcome, occurrence.Message)
	return err
}
