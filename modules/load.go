package modules

import (
	auditmodule "github.com/iota-uz/staffledger/modules/audit"
	leavemodule "github.com/iota-uz/staffledger/modules/leave"
	qualificationmodule "github.com/iota-uz/staffledger/modules/qualification"
	staffmodule "github.com/iota-uz/staffledger/modules/staff"
	"github.com/iota-uz/staffledger/pkg/application"
)

// BuiltInModules in registration order: audit first so every other module
// can resolve the audit service, leave after staff so it can attach the
// pending-leave canceller.
var BuiltInModules = []application.Module{
	auditmodule.NewModule(),
	staffmodule.NewModule(),
	leavemodule.NewModule(),
	qualificationmodule.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
