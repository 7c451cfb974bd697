package application_test

import (
	"context"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/pkg/application"
)

type stubService struct{ name string }

type stubController struct{ key string }

func (c *stubController) Key() string            { return c.key }
func (c *stubController) Register(r *mux.Router) {}

type stubModule struct{ registered bool }

func (m *stubModule) Name() string { return "stub" }

func (m *stubModule) Register(app application.Application) error {
	m.registered = true
	app.RegisterServices(&stubService{name: "svc"})
	app.RegisterControllers(&stubController{key: "/b"}, &stubController{key: "/a"})
	return nil
}

func TestApplication_Registry(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	m := &stubModule{}
	require.NoError(t, app.RegisterModules(m))
	assert.True(t, m.registered)

	svc := app.Service(stubService{}).(*stubService)
	assert.Equal(t, "svc", svc.name)

	controllers := app.Controllers()
	require.Len(t, controllers, 2)
	assert.Equal(t, "/a", controllers[0].Key())

	assert.Panics(t, func() { app.Service(struct{}{}) })
}

func TestMigrationManager_RequiresSchema(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	require.Error(t, app.Migrations().Up(context.Background()))
}
