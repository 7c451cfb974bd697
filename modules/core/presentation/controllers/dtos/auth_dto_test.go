package dtos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/tenantguard/modules/core/presentation/controllers/dtos"
)

func TestBootstrapRegisterDTO_Ok(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		d := &dtos.BootstrapRegisterDTO{Email: "ops@example.com", Password: "correct-horse", Name: "Ops"}
		errs, ok := d.Ok()
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("Reports_Each_Field", func(t *testing.T) {
		d := &dtos.BootstrapRegisterDTO{Email: "not-an-email", Password: "short"}
		errs, ok := d.Ok()
		assert.False(t, ok)
		assert.Contains(t, errs, "Email")
		assert.Contains(t, errs, "Password")
		assert.Contains(t, errs, "Name")
	})
}

func TestTenantStatusDTO_Ok(t *testing.T) {
	_, ok := (&dtos.TenantStatusDTO{Status: "archived"}).Ok()
	assert.False(t, ok)
	_, ok = (&dtos.TenantStatusDTO{Status: "suspended"}).Ok()
	assert.True(t, ok)
}
