package superadmin

import (
	coreservices "github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/modules/superadmin/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/modules/superadmin/presentation/controllers"
	"github.com/iota-uz/tenantguard/modules/superadmin/services"
	"github.com/iota-uz/tenantguard/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

// Module serves the platform tenant directory. It depends on the core module's TenantService.
type Module struct{}

func (m *Module) Register(app application.Application) error {
	tenantService := app.Service(coreservices.TenantService{}).(*coreservices.TenantService)

	app.RegisterServices(
		services.NewTenantDirectoryService(persistence.NewPgTenantDirectoryRepository(), tenantService),
	)
	app.RegisterControllers(
		controllers.NewTenantsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "superadmin"
}
