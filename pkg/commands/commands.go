// Package commands holds the staffctl subcommands. Each command builds the
// full application (pool, event bus, modules) and runs one operation against
// the live database.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	leaveservices "github.com/iota-uz/staffledger/modules/leave/services"
	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualification"
	qualservices "github.com/iota-uz/staffledger/modules/qualification/services"
	"github.com/iota-uz/staffledger/pkg/application"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/configuration"
	"github.com/iota-uz/staffledger/pkg/eventbus"
)

// Loader registers modules onto the application; cmd/staffctl passes
// modules.Load to avoid an import cycle with the modules package.
type Loader func(app application.Application) error

func newApplication(ctx context.Context, load Loader) (application.Application, *pgxpool.Pool, error) {
	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := load(app); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return app, pool, nil
}

func NewLeaveCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave ledger operations",
	}
	cmd.AddCommand(newLeaveRolloverCmd(load))
	return cmd
}

func newLeaveRolloverCmd(load Loader) *cobra.Command {
	var fromYear int
	var actorID int64

	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Create next year's entitlements from the given year",
		Long:  `Creates leave entitlements for the year following --year, copying unused days where the category carries forward. Rows that already exist are skipped, so the command is safe to rerun.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, pool, err := newApplication(ctx, load)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx = composables.WithPool(ctx, pool)
			ctx = composables.WithActorID(ctx, actorID)

			leaveSvc := app.Service(leaveservices.LeaveService{}).(*leaveservices.LeaveService)
			created, err := leaveSvc.RolloverYear(ctx, fromYear)
			if err != nil {
				return err
			}
			cmd.Printf("created %d entitlements for %d\n", created, fromYear+1)
			return nil
		},
	}
	cmd.Flags().IntVar(&fromYear, "year", time.Now().Year(), "source year to roll over from")
	cmd.Flags().Int64Var(&actorID, "actor", 0, "staff id performing the rollover (recorded in the audit trail)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func NewQualificationCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qualification",
		Short: "Qualification tracker operations",
	}
	cmd.AddCommand(newQualificationExpiringCmd(load))
	return cmd
}

func newQualificationExpiringCmd(load Loader) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List verified qualifications expiring within a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, pool, err := newApplication(ctx, load)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx = composables.WithPool(ctx, pool)

			qualSvc := app.Service(qualservices.QualificationService{}).(*qualservices.QualificationService)
			count := 0
			err = qualSvc.EachExpiring(ctx, time.Now(), days, func(q *qualification.Qualification) error {
				count++
				cmd.Printf("%d\tstaff=%d\t%s\texpires=%s\n",
					q.ID, q.StaffID, q.Name, q.ExpiresOn.Format(time.DateOnly))
				return nil
			})
			if err != nil {
				return err
			}
			cmd.Printf("%d expiring within %d days\n", count, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "window size in days")
	return cmd
}

func NewMigrateCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded module schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, pool, err := newApplication(ctx, load)
			if err != nil {
				return err
			}
			defer pool.Close()
			return app.Migrations().Apply(ctx)
		},
	}
}
