package staffmodule

import (
	"embed"

	auditservices "github.com/iota-uz/staffledger/modules/audit/services"
	"github.com/iota-uz/staffledger/modules/staff/infrastructure/persistence"
	"github.com/iota-uz/staffledger/modules/staff/presentation/controllers"
	"github.com/iota-uz/staffledger/modules/staff/services"
	"github.com/iota-uz/staffledger/pkg/application"
	"github.com/iota-uz/staffledger/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/staff-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	auditSvc := app.Service(auditservices.AuditService{}).(*auditservices.AuditService)

	staffRepo := persistence.NewStaffRepository(conf.Ledger.LockTimeout)
	assignmentRepo := persistence.NewAssignmentRepository()
	catalogRepo := persistence.NewCatalogRepository()

	staffSvc := services.NewStaffService(staffRepo, assignmentRepo, catalogRepo, auditSvc, app.EventPublisher(), conf.Ledger)
	assignmentSvc := services.NewAssignmentService(staffRepo, assignmentRepo, catalogRepo, auditSvc, app.EventPublisher(), conf.Ledger)

	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(staffSvc, assignmentSvc)
	app.RegisterControllers(
		controllers.NewStaffController(staffSvc, assignmentSvc),
	)
	return nil
}

func (m *Module) Name() string {
	return "staff"
}
