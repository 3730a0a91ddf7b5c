package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ex",
		Short:         "Exati CLI (ex): manage occurrences and export backend records",
		Long:          "ex talks to the Exati lighting-management backend: it creates and deletes occurrences in batches, updates observations and exports catalogs, reports and service records.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(app),
		newOccurrenceCmd(app),
		newExportCmd(app),
		newObservationCmd(app),
	)

	return rootCmd
}
