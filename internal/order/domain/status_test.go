package domain

import (
	"testing"

	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusValid(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestCanTransitionFullCrossProduct(t *testing.T) {
	elevated := map[identity.Role]bool{
		identity.RoleAdmin:   true,
		identity.RoleManager: true,
		identity.RoleFinance: true,
	}
	roles := []identity.Role{
		identity.RoleAdmin,
		identity.RoleManager,
		identity.RoleFinance,
		identity.RoleStaff,
		identity.RoleViewer,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			for _, role := range roles {
				got := CanTransition(from, to, role)
				want := true
				if from == StatusPaid || to == StatusPaid {
					want = elevated[role]
				}
				assert.Equalf(t, want, got, "from=%s to=%s role=%s", from, to, role)
			}
		}
	}
}

func TestTouchesPaid(t *testing.T) {
	assert.True(t, TouchesPaid(StatusPaid, StatusProduction))
	assert.True(t, TouchesPaid(StatusQuotation, StatusPaid))
	assert.True(t, TouchesPaid(StatusPaid, StatusPaid))
	assert.False(t, TouchesPaid(StatusQuotation, StatusProduction))
	assert.False(t, TouchesPaid(StatusCompleted, StatusInstallation))
}
