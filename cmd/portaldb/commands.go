package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/defenseportal/psql"
	"github.com/defenseportal/psql/config"
	"github.com/defenseportal/psql/database"
	"github.com/defenseportal/psql/services"
	"github.com/fatih/color"
	"github.com/gopsql/db"
	"github.com/gopsql/logger"
	"github.com/spf13/cobra"
)

// app holds the connection shared by the command being run.
type app struct {
	cfg      *config.Config
	conn     db.DB
	registry *services.Registry
}

// connect opens the pool on first use.
func (a *app) connect() (*services.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	conn, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	var options []interface{}
	if cfg.LogSQL {
		options = append(options, logger.StandardLogger)
	}
	a.cfg = cfg
	a.conn = conn
	a.registry = services.New(psql.NewExecutor(conn, options...))
	return a.registry, nil
}

func (a *app) close() {
	if a.conn != nil {
		a.conn.Close()
	}
}

func (a *app) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the database answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.connect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := database.Ping(ctx, r.Executor()); err != nil {
				return err
			}
			version, err := database.ServerVersion(ctx, r.Executor())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s PostgreSQL %s\n", color.GreenString("ok"), version)
			return nil
		},
	}
}

func (a *app) ensureSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-schema",
		Short: "Create tables that are not part of the migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.connect()
			if err != nil {
				return err
			}
			if err := r.PushSubscriptions().EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("ensure %s: %w", services.PushSubscriptions, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("ok"), services.PushSubscriptions)
			return nil
		},
	}
}

func (a *app) refreshViewsCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "refresh-views",
		Short: "Recompute overall percentages and group rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.connect()
			if err != nil {
				return err
			}
			// REFRESH MATERIALIZED VIEW locks out readers until it commits
			if a.cfg != nil && a.cfg.IsProduction() && !yes {
				return errors.New("refusing to refresh views in production without --yes")
			}
			err = r.Transaction(cmd.Context(), func(ctx context.Context, tx *services.Registry) error {
				// rankings are computed from the percentages
				if err := tx.OverallPercentages().Refresh(ctx); err != nil {
					return fmt.Errorf("refresh %s: %w", services.OverallPercentages, err)
				}
				if err := tx.GroupRankings().Refresh(ctx); err != nil {
					return fmt.Errorf("refresh %s: %w", services.GroupRankings, err)
				}
				_, err := tx.AuditLogs().Record(ctx, nil, "views.refresh", services.GroupRankings, "", nil)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s, %s\n", color.GreenString("refreshed"),
				services.OverallPercentages, services.GroupRankings)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the refresh in production")
	return cmd
}

func (a *app) rankingsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Print the best ranked thesis groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			r, err := a.connect()
			if err != nil {
				return err
			}
			rankings, err := r.GroupRankings().Top(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rankings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("no rankings, run refresh-views first"))
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tGROUP\tPERCENTAGE")
			for _, g := range rankings {
				fmt.Fprintf(w, "%d\t%s\t%s\n", g.Rank, g.Title, g.Percentage.StringFixed(2))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of groups to print")
	return cmd
}

func entitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the tables and views the services cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, e := range services.Entities() {
				kind := "table"
				if e.IsView() {
					kind = color.CyanString("view")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", e, kind)
			}
			return nil
		},
	}
}
