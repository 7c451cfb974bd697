package modules

import (
	"github.com/iota-uz/tenantguard/modules/core"
	"github.com/iota-uz/tenantguard/modules/superadmin"
	"github.com/iota-uz/tenantguard/pkg/application"
)

// BuiltInModules returns the modules in registration order; superadmin depends on core's services.
func BuiltInModules(coreOpts *core.ModuleOptions) []application.Module {
	return []application.Module{
		core.NewModule(coreOpts),
		superadmin.NewModule(),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	return app.RegisterModules(externalModules...)
}
