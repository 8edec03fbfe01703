package leavemodule

import (
	"embed"

	auditservices "github.com/iota-uz/staffledger/modules/audit/services"
	"github.com/iota-uz/staffledger/modules/leave/infrastructure/persistence"
	"github.com/iota-uz/staffledger/modules/leave/presentation/controllers"
	"github.com/iota-uz/staffledger/modules/leave/services"
	staffservices "github.com/iota-uz/staffledger/modules/staff/services"
	"github.com/iota-uz/staffledger/pkg/application"
	"github.com/iota-uz/staffledger/pkg/authz"
	"github.com/iota-uz/staffledger/pkg/bizdays"
	"github.com/iota-uz/staffledger/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/leave-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
	// Checker overrides the casbin service when set, for tests.
	Checker authz.Checker
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	auditSvc := app.Service(auditservices.AuditService{}).(*auditservices.AuditService)
	staffSvc := app.Service(staffservices.StaffService{}).(*staffservices.StaffService)

	checker := m.Checker
	if checker == nil {
		svc, err := authz.NewService(conf.Authz.ModelPath, conf.Authz.PolicyPath, conf.Logger())
		if err != nil {
			return err
		}
		checker = svc
	}

	categoryRepo := persistence.NewCategoryRepository()
	entitlementRepo := persistence.NewEntitlementRepository(conf.Ledger.LockTimeout)
	applicationRepo := persistence.NewLeaveApplicationRepository(conf.Ledger.LockTimeout)

	leaveSvc := services.NewLeaveService(
		categoryRepo,
		entitlementRepo,
		applicationRepo,
		staffSvc,
		auditSvc,
		checker,
		bizdays.NewStandardCalendar(),
		app.EventPublisher(),
		conf.Ledger,
	)

	// Terminating a staff member cancels their pending applications in the
	// same transaction.
	staffSvc.SetPendingLeaveCanceller(leaveSvc)

	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(leaveSvc)
	app.RegisterControllers(
		controllers.NewLeaveController(leaveSvc),
	)
	return nil
}

func (m *Module) Name() string {
	return "leave"
}
