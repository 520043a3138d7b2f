package security_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/security"
)

func TestAllowedTable(t *testing.T) {
	cases := []struct {
		role    string
		action  security.Action
		allowed bool
	}{
		{security.RoleGerente, security.ActionLedgerWrite, true},
		{security.RoleAdministrativo, security.ActionLedgerDelete, true},
		{security.RoleDesarrollador, security.ActionCollect, true},
		{security.RoleVendedor, security.ActionLedgerRead, true},
		{security.RoleVendedor, security.ActionLedgerWrite, false},
		{security.RoleVendedor, security.ActionCollect, false},
		{security.RoleLider, security.ActionPlanGenerate, false},
		{security.RoleLider, security.ActionEarningsRead, true},
		{"", security.ActionLedgerRead, false},
		{"superadmin", security.ActionLedgerWrite, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, security.Allowed(tc.role, tc.action),
			"role %q action %q", tc.role, tc.action)
	}
}

func TestKnownRole(t *testing.T) {
	for _, role := range []string{
		security.RoleGerente,
		security.RoleAdministrativo,
		security.RoleDesarrollador,
		security.RoleVendedor,
		security.RoleLider,
	} {
		assert.True(t, security.KnownRole(role), role)
	}
	assert.False(t, security.KnownRole("superadmin"))
	assert.False(t, security.KnownRole(""))
}

func TestPolicyFlagGrantsVendedorCollect(t *testing.T) {
	flags := security.NewStaticFlags()
	ctx := context.Background()

	assert.False(t, security.AllowedWithPolicy(ctx, flags, security.RoleVendedor, security.ActionCollect))

	flags.SetFlag(security.FlagVendedorCanCollect, true)
	assert.True(t, security.AllowedWithPolicy(ctx, flags, security.RoleVendedor, security.ActionCollect))

	// A flag never widens unrelated actions.
	assert.False(t, security.AllowedWithPolicy(ctx, flags, security.RoleVendedor, security.ActionLedgerWrite))
}

func TestCELPolicyGrantsLiderPlan(t *testing.T) {
	policy, err := security.NewCELPolicy(nil)
	require.NoError(t, err)
	require.NoError(t, policy.SetRule(security.FlagLiderCanPlan, `role == "lider" && agency_id == "ag-1"`))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "u-1",
		AgencyID: "ag-1",
		Role:     security.RoleLider,
	})
	assert.True(t, security.AllowedWithPolicy(ctx, policy, security.RoleLider, security.ActionPlanGenerate))

	otherAgency := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "u-2",
		AgencyID: "ag-2",
		Role:     security.RoleLider,
	})
	assert.False(t, security.AllowedWithPolicy(otherAgency, policy, security.RoleLider, security.ActionPlanGenerate))
}
