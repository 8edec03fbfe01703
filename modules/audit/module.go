package audit

import (
	"embed"

	"github.com/iota-uz/staffledger/modules/audit/infrastructure/persistence"
	"github.com/iota-uz/staffledger/modules/audit/services"
	"github.com/iota-uz/staffledger/pkg/application"
)

//go:embed infrastructure/persistence/schema/audit-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(
		services.NewAuditService(persistence.NewAuditLogRepository()),
	)
	return nil
}

func (m *Module) Name() string {
	return "audit"
}
