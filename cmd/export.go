package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/exati-cli/internal/adapters/records"
	tomlrepo "github.com/bnema/exati-cli/internal/adapters/repo/toml"
	"github.com/bnema/exati-cli/internal/application"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/ports"
	"github.com/spf13/cobra"
)

func newExportCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export backend records as JSON or CSV",
	}

	cmd.AddCommand(
		newCatalogExportCmd(app, "attributes", "Export the attribute catalog", records.NewAttributes),
		newCatalogExportCmd(app, "teams", "Export active teams", records.NewTeams),
		newCatalogExportCmd(app, "occurrence-types", "Export occurrence types", records.NewOccurrenceTypes),
		newReportsExportCmd(app),
		newRequestsExportCmd(app),
		newServicePointsExportCmd(app),
		newServiceStatusExportCmd(app),
		newServiceHistoryExportCmd(app),
		newVersionsExportCmd(app),
		newStructureExportCmd(app),
		newReportOccurrencesExportCmd(app),
	)

	return cmd
}

// withSession opens a backend session and hands it to fn.
func withSession(cmd *cobra.Command, app *app, fn func(context.Context, ports.Caller) error) error {
	session, err := app.openSession(cmd.Context())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), session)
}

func newCatalogExportCmd(app *app, use, short string, newCatalog func(ports.Caller) *records.Catalog) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				list, err := newCatalog(caller).Records(ctx)
				if err != nil {
					return err
				}
				return writeRecords(cmd, list, asCSV)
			})
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	return cmd
}

func newReportsExportCmd(app *app) *cobra.Command {
	var since string
	var filters []string
	var asCSV, summary bool

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Export reports created since a day (default: last 30 days)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sinceDay, err := parseDay("since", since)
			if err != nil {
				return err
			}
			reportFilters, err := parseReportFilters(filters)
			if err != nil {
				return err
			}

			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				list, err := records.NewReports(caller, app.clock).Export(ctx, sinceDay, reportFilters)
				if err != nil {
					return err
				}
				if !summary {
					return writeRecords(cmd, list, asCSV)
				}

				reports := make([]domain.Report, 0, len(list))
				for _, record := range list {
					reports = append(reports, records.ReportFromRecord(record))
				}
				return writeReports(cmd, reports, asCSV)
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "First creation day (dd/mm/yyyy)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Keep reports whose KEY is one of the values (KEY=V1,V2); repeatable")
	cmd.Flags().BoolVar(&summary, "summary", false, "Only emit the report summary columns")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	return cmd
}

func parseReportFilters(raw []string) (records.ReportFilters, error) {
	filters := records.ReportFilters{}
	for _, item := range raw {
		key, values, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--filter must be KEY=V1,V2, got %q", item)
		}
		for _, value := range strings.Split(values, ",") {
			filters[key] = append(filters[key], strings.TrimSpace(value))
		}
	}
	return filters, nil
}

func newRequestsExportCmd(app *app) *cobra.Command {
	var since string
	var originID, statusID int64
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Export requests by complaint day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sinceDay, err := parseDay("since", since)
			if err != nil {
				return err
			}
			if sinceDay.IsZero() {
				sinceDay = app.clock.Now().Add(-records.DefaultReportWindow)
			}

			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				list, err := records.NewRequests(caller).Export(ctx, records.RequestQuery{
					Since:    sinceDay,
					OriginID: originID,
					StatusID: statusID,
				})
				if err != nil {
					return err
				}
				return writeRecords(cmd, list, asCSV)
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "First complaint day (dd/mm/yyyy, default: 30 days ago)")
	cmd.Flags().Int64Var(&originID, "origin", 0, "Origin type id (0: any)")
	cmd.Flags().Int64Var(&statusID, "status", 0, "Request status id (0: any)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	return cmd
}

func newServicePointsExportCmd(app *app) *cobra.Command {
	var attributes []string
	var itemID, filters string
	var asCSV, coordinates bool

	cmd := &cobra.Command{
		Use:   "service-points",
		Short: "Export service points with the given attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				points := records.NewServicePoints(caller, nil, app.logger)

				var list []records.Record
				var err error
				if itemID != "" {
					list, err = points.Export(ctx, records.ServicePointQuery{ItemID: itemID, Filters: filters})
				} else {
					list, err = points.ExportByNames(ctx, attributes, filters)
				}
				if err != nil {
					return err
				}
				if !coordinates {
					return writeRecords(cmd, list, asCSV)
				}

				located := make([]domain.ServicePoint, 0, len(list))
				for i, record := range list {
					point, ok := records.ServicePointFromRecord(record)
					if !ok {
						app.logger.Warn("service point record without id", "index", i)
						continue
					}
					located = append(located, point)
				}
				return writeServicePoints(cmd, located, asCSV)
			})
		},
	}

	cmd.Flags().StringSliceVar(&attributes, "attribute", nil, "Attribute names to export; repeatable or comma separated")
	cmd.Flags().StringVar(&itemID, "item", "", "Export a single item id instead of attributes")
	cmd.Flags().StringVar(&filters, "filters", "", "Attribute filter expression")
	cmd.Flags().BoolVar(&coordinates, "coordinates", false, "Only emit service point ids and coordinates")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	return cmd
}

func parseStatusFilter(raw string) (records.StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return records.StatusPending, nil
	case "done":
		return records.StatusDone, nil
	case "all", "":
		return records.StatusAll, nil
	default:
		return 0, fmt.Errorf("unsupported status %q (pending|done|all)", raw)
	}
}

// serviceWindow resolves --from and --to, defaulting to the 30 days up to
// today.
func serviceWindow(app *app, from, to string) (time.Time, time.Time, error) {
	start, err := parseDay("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.IsZero() {
		end = app.clock.Now()
	}
	if start.IsZero() {
		start = end.Add(-records.DefaultReportWindow)
	}
	return start, end, nil
}

func newServiceStatusExportCmd(app *app) *cobra.Command {
	var from, to, status string
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "service-status",
		Short: "Export service point occurrences by service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := serviceWindow(app, from, to)
			if err != nil {
				return err
			}
			filter, err := parseStatusFilter(status)
			if err != nil {
				return err
			}

			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				list, err := records.NewServiceStatus(caller).Export(ctx, start, end, filter)
				if err != nil {
					return err
				}
				return writeRecords(cmd, list, asCSV)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (dd/mm/yyyy, default: 30 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (dd/mm/yyyy, default: today)")
	cmd.Flags().StringVar(&status, "status", "all", "Service status (pending|done|all)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	return cmd
}

func newServiceHistoryExportCmd(app *app) *cobra.Command {
	var pointID int64
	var latest, asCSV bool

	cmd := &cobra.Command{
		Use:   "service-history",
		Short: "Export the service records of one service point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				status := records.NewServiceStatus(caller)
				if latest {
					current, err := status.Latest(ctx, domain.ServicePointID(pointID))
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), current)
				}

				list, err := status.ByPoint(ctx, domain.ServicePointID(pointID))
				if err != nil {
					return err
				}
				return writeRecords(cmd, list, asCSV)
			})
		},
	}

	cmd.Flags().Int64Var(&pointID, "point", 0, "Service point id")
	cmd.Flags().BoolVar(&latest, "latest", false, "Only print the newest status, reason and date")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	_ = cmd.MarkFlagRequired("point")
	return cmd
}

func newVersionsExportCmd(app *app) *cobra.Command {
	var pointID int64
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Export the structure versions of one service point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				list, err := records.NewHistory(caller).Versions(ctx, domain.ServicePointID(pointID))
				if err != nil {
					return err
				}
				return writeRecords(cmd, list, asCSV)
			})
		},
	}

	cmd.Flags().Int64Var(&pointID, "point", 0, "Service point id")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	_ = cmd.MarkFlagRequired("point")
	return cmd
}

func newStructureExportCmd(app *app) *cobra.Command {
	var structureID int64

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Print the XML items of one structure version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				document, err := records.NewHistory(caller).Structure(ctx, structureID)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), document)
				return err
			})
		},
	}

	cmd.Flags().Int64Var(&structureID, "id", 0, "Structure version id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newReportOccurrencesExportCmd(app *app) *cobra.Command {
	var reportID int64
	var from, to, batchPath string
	var skipMissing, asCSV bool

	cmd := &cobra.Command{
		Use:   "report-occurrences",
		Short: "Resolve the occurrences sampled by a report",
		Long:  "Resolves the occurrence ids of every sample of a report against the service status export of the given window. Use --batch to also write them to a batch file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := serviceWindow(app, from, to)
			if err != nil {
				return err
			}
			policy := application.MissStub
			if skipMissing {
				policy = application.MissSkip
			}

			return withSession(cmd, app, func(ctx context.Context, caller ports.Caller) error {
				index, err := records.NewServiceStatus(caller).Index(ctx, start, end, records.StatusAll)
				if err != nil {
					return err
				}
				samples, err := records.NewReports(caller, app.clock).Samples(ctx, reportID)
				if err != nil {
					return err
				}
				occurrences, err := application.ReportOccurrences(samples, index, policy)
				if err != nil {
					return err
				}

				if batchPath != "" {
					if err := tomlrepo.NewBatchRepository(batchPath).Save(ctx, occurrences); err != nil {
						return fmt.Errorf("write batch file: %w", err)
					}
				}
				return writeOccurrences(cmd, occurrences, asCSV)
			})
		},
	}

	cmd.Flags().Int64Var(&reportID, "report", 0, "Report id")
	cmd.Flags().StringVar(&from, "from", "", "First day of the service status window (dd/mm/yyyy)")
	cmd.Flags().StringVar(&to, "to", "", "Last day of the service status window (dd/mm/yyyy, default: today)")
	cmd.Flags().BoolVar(&skipMissing, "skip-missing", false, "Drop ids absent from the service status export instead of keeping bare ids")
	cmd.Flags().StringVar(&batchPath, "batch", "", "Also write the occurrences to this batch file")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Render CSV output")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}
