package qualificationmodule

import (
	"embed"

	auditservices "github.com/iota-uz/staffledger/modules/audit/services"
	"github.com/iota-uz/staffledger/modules/qualification/infrastructure/persistence"
	"github.com/iota-uz/staffledger/modules/qualification/services"
	staffservices "github.com/iota-uz/staffledger/modules/staff/services"
	"github.com/iota-uz/staffledger/pkg/application"
	"github.com/iota-uz/staffledger/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/qualification-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	auditSvc := app.Service(auditservices.AuditService{}).(*auditservices.AuditService)
	staffSvc := app.Service(staffservices.StaffService{}).(*staffservices.StaffService)

	qualRepo := persistence.NewQualificationRepository(conf.Ledger.LockTimeout)
	typeRepo := persistence.NewQualTypeRepository()

	qualSvc := services.NewQualificationService(
		qualRepo, typeRepo, staffSvc, auditSvc, app.EventPublisher(), conf.Ledger,
	)

	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(qualSvc)
	return nil
}

func (m *Module) Name() string {
	return "qualification"
}
