package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage backend credentials",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app), newAuthCheckCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var credentials string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store backend credentials in the secret store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.service.SetCredentials(cmd.Context(), credentials)
		},
	}

	cmd.Flags().StringVar(&credentials, "credentials", "", "Backend credentials (user:password)")
	_ = cmd.MarkFlagRequired("credentials")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove stored backend credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.service.RemoveCredentials(cmd.Context())
		},
	}
}

func newAuthCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Log in to the backend with the current credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.openSession(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "authenticated")
			return err
		},
	}
}
