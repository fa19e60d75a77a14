package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"fuelrefund-service/internal/app"
	"fuelrefund-service/internal/domain/entity"
	"fuelrefund-service/internal/infrastructure/config"
	"fuelrefund-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type cli struct {
	actor string
	app   *app.App
	log   *logger.ZapLogger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "fuelctl",
		Short:         "Batch operations of the fuel refund service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			c.log = logger.NewLoggerWithLevel(cfg.LogLevel)
			c.app, err = app.New(cmd.Context(), cfg, c.log)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.Close(cmd.Context())
			}
			if c.log != nil {
				c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.actor, "actor", os.Getenv("USER"), "user recorded as author of changes")

	root.AddCommand(
		c.stageCommand(),
		c.diffCommand(),
		c.syncCommand(),
		c.migrateCommand(),
	)
	return root
}

func (c *cli) stageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <file>",
		Short: "Import a telemetry file and print the priced summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			session, err := c.app.Imports.Import(ctx, filepath.Base(args[0]), f, c.actor)
			if err != nil {
				return err
			}
			defer c.app.Imports.Close(ctx, session.ID)

			aggs, err := c.app.Imports.Aggregate(ctx, session.ID, nil)
			if err != nil {
				return err
			}
			printStage(cmd.OutOrStdout(), session, aggs)
			return nil
		},
	}
}

func (c *cli) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Compare the external personnel source with the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.MasterData.Diff(cmd.Context())
			if err != nil {
				return err
			}
			printDiff(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func (c *cli) syncCommand() *cobra.Command {
	var onlyNew bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Apply the registry diff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			diff, err := c.app.MasterData.Diff(ctx)
			if err != nil {
				return err
			}

			items := append([]entity.DiffItem(nil), diff.New...)
			if !onlyNew {
				items = append(items, diff.Changed...)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Registry is up to date")
				return nil
			}

			result, err := c.app.MasterData.Sync(ctx, items, c.actor)
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyNew, "only-new", false, "insert new personnel only, leave changed records untouched")
	return cmd
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema migrated")
			return nil
		},
	}
}

func printStage(out io.Writer, session *entity.ImportSession, aggs []entity.CollaboratorAggregate) {
	fmt.Fprintf(out, "Period: %s\n", session.PeriodLabel)
	fmt.Fprintf(out, "Records: %d  Ignored ids: %d  Rejected rows: %d\n\n",
		len(session.Records), len(session.Ignored), len(session.Rejected))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXTERNAL ID\tNAME\tGROUP\tVEHICLE\tKM\tLITERS\tVALUE")
	total := decimal.Zero
	for _, agg := range aggs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			agg.ExternalID,
			agg.CollaboratorName,
			agg.Group,
			agg.VehicleClass,
			decimal.NewFromFloat(agg.TotalDistance).StringFixed(1),
			decimal.NewFromFloat(agg.Liters).StringFixed(2),
			agg.DisplayValue())
		total = total.Add(decimal.NewFromFloat(agg.Value))
	}
	fmt.Fprintf(w, "\t\t\t\t\tTOTAL\t%s\n", total.StringFixed(2))
	w.Flush()

	for _, g := range session.Ignored {
		fmt.Fprintf(out, "ignored: %s (%s) %d rows\n", g.ExternalID, g.Name, len(g.Rows))
	}
	for _, r := range session.Rejected {
		fmt.Fprintf(out, "rejected: line %d: %s\n", r.Line, r.Message)
	}
}

func printDiff(out io.Writer, result *entity.DiffResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tEXTERNAL ID\tNAME\tSECTOR\tGROUP\tCHANGES")
	for _, item := range append(append([]entity.DiffItem(nil), result.New...), result.Changed...) {
		changes := ""
		for i, ch := range item.Changes {
			if i > 0 {
				changes += ", "
			}
			changes += fmt.Sprintf("%s: %q -> %q", ch.Field, ch.Old, ch.New)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Kind, item.ExternalID, item.Proposed.Name, item.Proposed.SectorCode, item.Proposed.Group, changes)
	}
	w.Flush()
	fmt.Fprintf(out, "\nnew: %d  changed: %d  skipped: %d\n", len(result.New), len(result.Changed), result.Skipped)
}

func printSync(out io.Writer, result *entity.SyncResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXTERNAL ID\tKIND\tRESULT")
	for _, r := range result.Results {
		status := "applied"
		if !r.Applied {
			status = "failed: " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ExternalID, r.Kind, status)
	}
	w.Flush()
	fmt.Fprintf(out, "\napplied %d of %d\n", result.Applied, len(result.Results))
}
