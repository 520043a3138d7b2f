// Package security provides role capability checks and per-agency policy flags.
package security

import "context"

// Session roles, as issued by the session resolver. The core treats them as
// opaque strings checked against fixed allow-lists; there is no hierarchy.
const (
	RoleGerente        = "gerente"
	RoleAdministrativo = "administrativo"
	RoleDesarrollador  = "desarrollador"
	RoleVendedor       = "vendedor"
	RoleLider          = "lider"
)

// Action identifies an operation guarded by a capability check.
type Action string

const (
	ActionLedgerRead   Action = "ledger:read"
	ActionLedgerWrite  Action = "ledger:write"
	ActionLedgerDelete Action = "ledger:delete"
	ActionPlanGenerate Action = "grupos:plan"
	ActionCollect      Action = "grupos:collect"
	ActionEarningsRead Action = "earnings:read"
	ActionFilesWrite   Action = "files:write"
	ActionFilesRead    Action = "files:read"
)

// capabilities is the single source of truth for role allow-lists.
// Handlers must not hand-roll role comparisons.
var capabilities = map[Action][]string{
	ActionLedgerRead:   {RoleGerente, RoleAdministrativo, RoleDesarrollador, RoleVendedor, RoleLider},
	ActionLedgerWrite:  {RoleGerente, RoleAdministrativo, RoleDesarrollador},
	ActionLedgerDelete: {RoleGerente, RoleAdministrativo, RoleDesarrollador},
	ActionPlanGenerate: {RoleGerente, RoleAdministrativo, RoleDesarrollador},
	ActionCollect:      {RoleGerente, RoleAdministrativo, RoleDesarrollador},
	ActionEarningsRead: {RoleGerente, RoleAdministrativo, RoleDesarrollador, RoleVendedor, RoleLider},
	ActionFilesWrite:   {RoleGerente, RoleAdministrativo, RoleDesarrollador, RoleVendedor, RoleLider},
	ActionFilesRead:    {RoleGerente, RoleAdministrativo, RoleDesarrollador, RoleVendedor, RoleLider},
}

// Allowed reports whether a role may perform an action.
func Allowed(role string, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// policyOverrides maps (role, action) pairs the agency can enable through a
// policy flag on top of the fixed allow-lists.
var policyOverrides = map[Action]map[string]string{
	ActionCollect:      {RoleVendedor: FlagVendedorCanCollect},
	ActionPlanGenerate: {RoleLider: FlagLiderCanPlan},
}

// AllowedWithPolicy checks the allow-list first, then any per-agency policy
// flag that grants the role the action. flags may be nil.
func AllowedWithPolicy(ctx context.Context, flags PolicyFlags, role string, action Action) bool {
	if Allowed(role, action) {
		return true
	}
	if flags == nil {
		return false
	}
	if flag, ok := policyOverrides[action][role]; ok {
		return flags.IsEnabled(ctx, flag)
	}
	return false
}

// KnownRole reports whether the role is one issued by the session resolver.
func KnownRole(role string) bool {
	switch role {
	case RoleGerente, RoleAdministrativo, RoleDesarrollador, RoleVendedor, RoleLider:
		return true
	}
	return false
}
