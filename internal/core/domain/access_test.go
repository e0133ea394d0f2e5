package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesFor_Matrix(t *testing.T) {
	cases := map[Role]Capabilities{
		RoleAdmin: {
			CanManageProducts: true, CanManageStaff: true, CanManageSettings: true,
			CanManageExpenses: true, CanViewReports: true, CanManageLoans: true,
			CanProcessSales: true, CanManageCustomers: true, CanManageSuppliers: true,
		},
		RoleManager: {
			CanManageProducts: true, CanManageExpenses: true, CanViewReports: true,
			CanManageLoans: true, CanProcessSales: true, CanManageCustomers: true,
			CanManageSuppliers: true,
		},
		RoleSupervisor: {
			CanManageProducts: true, CanManageExpenses: true, CanViewReports: true,
			CanManageLoans: true, CanProcessSales: true, CanManageCustomers: true,
			CanManageSuppliers: true,
		},
		RoleCashier: {
			CanManageLoans: true, CanProcessSales: true, CanManageCustomers: true,
		},
		Role(""):      {},
		Role("owner"): {},
	}

	for role, want := range cases {
		t.Run(string(role), func(t *testing.T) {
			assert.Equal(t, want, CapabilitiesFor(role))
		})
	}
}

func TestCapabilities_HasMatchesFields(t *testing.T) {
	names := []Capability{
		CanManageProducts, CanManageStaff, CanManageSettings, CanManageExpenses,
		CanViewReports, CanManageLoans, CanProcessSales, CanManageCustomers, CanManageSuppliers,
	}
	for _, role := range AllRoles {
		caps := CapabilitiesFor(role)
		granted := 0
		for _, n := range names {
			if caps.Has(n) {
				granted++
			}
		}
		switch role {
		case RoleAdmin:
			assert.Equal(t, 9, granted)
		case RoleManager, RoleSupervisor:
			assert.Equal(t, 7, granted)
		case RoleCashier:
			assert.Equal(t, 3, granted)
		}
	}
	assert.False(t, CapabilitiesFor(RoleAdmin).Has("canFly"))
}

func TestWithPreview_AdminOnly(t *testing.T) {
	for _, actual := range []Role{RoleManager, RoleSupervisor, RoleCashier} {
		state := NewRoleState(actual)
		for _, as := range AllRoles {
			next := WithPreview(state, as)
			assert.Equal(t, actual, next.EffectiveRole(), "non-admin %s must not preview", actual)
			assert.False(t, InPreview(next))
		}
	}

	admin := NewRoleState(RoleAdmin)
	next := WithPreview(admin, RoleCashier)
	assert.Equal(t, RoleCashier, next.EffectiveRole())
	assert.Equal(t, RoleAdmin, next.ActualRole())
	assert.True(t, InPreview(next))
}

func TestWithPreview_AdminClearsPreview(t *testing.T) {
	state := WithPreview(NewRoleState(RoleAdmin), RoleManager)
	assert.True(t, InPreview(state))

	cleared := WithPreview(state, RoleAdmin)
	assert.False(t, InPreview(cleared))
	assert.Equal(t, RoleAdmin, cleared.EffectiveRole())
}

func TestWithPreview_InvalidRoleIgnored(t *testing.T) {
	state := WithPreview(NewRoleState(RoleAdmin), RoleSupervisor)
	next := WithPreview(state, Role("owner"))
	assert.Equal(t, state, next)
}

func TestSnapshotOf(t *testing.T) {
	snap := SnapshotOf(WithPreview(NewRoleState(RoleAdmin), RoleCashier))
	assert.Equal(t, RoleCashier, snap.EffectiveRole)
	assert.Equal(t, RoleAdmin, snap.ActualRole)
	if assert.NotNil(t, snap.PreviewRole) {
		assert.Equal(t, RoleCashier, *snap.PreviewRole)
	}
	assert.True(t, snap.IsPreviewMode)
	assert.Equal(t, CapabilitiesFor(RoleCashier), snap.Capabilities)

	self := SnapshotOf(NewRoleState(RoleManager))
	assert.Nil(t, self.PreviewRole)
	assert.False(t, self.IsPreviewMode)

	assert.Equal(t, AnonymousSnapshot(), SnapshotOf(nil))
	assert.Equal(t, Capabilities{}, AnonymousSnapshot().Capabilities)
}

func TestGuard(t *testing.T) {
	cashier := AccessView{Status: StatusReady, Snapshot: SnapshotOf(NewRoleState(RoleCashier))}
	manager := AccessView{Status: StatusReady, Snapshot: SnapshotOf(NewRoleState(RoleManager))}
	loading := AccessView{Status: StatusLoading}
	anonymous := AccessView{Status: StatusUninitialized, Snapshot: AnonymousSnapshot()}

	reports := Requirement{Capability: CanViewReports}
	assert.False(t, Guard(cashier, reports))
	assert.True(t, Guard(manager, reports))
	assert.True(t, Guard(loading, reports))
	assert.False(t, Guard(anonymous, reports))

	audit := Requirement{AllowedRoles: []Role{RoleAdmin, RoleManager}}
	assert.True(t, Guard(manager, audit))
	assert.False(t, Guard(cashier, audit))

	both := Requirement{Capability: CanManageLoans, AllowedRoles: []Role{RoleAdmin}}
	assert.False(t, Guard(manager, both))
}

func TestFilterNavigation(t *testing.T) {
	keys := func(items []NavItem) []string {
		out := make([]string, 0, len(items))
		for _, i := range items {
			out = append(out, i.Key)
		}
		return out
	}

	cashier := AccessView{Status: StatusReady, Snapshot: SnapshotOf(NewRoleState(RoleCashier))}
	assert.Equal(t, []string{"dashboard", "sales", "customers", "loans"}, keys(FilterNavigation(DefaultNavigation, cashier)))

	admin := AccessView{Status: StatusReady, Snapshot: SnapshotOf(NewRoleState(RoleAdmin))}
	assert.Len(t, FilterNavigation(DefaultNavigation, admin), len(DefaultNavigation))

	supervisor := AccessView{Status: StatusReady, Snapshot: SnapshotOf(NewRoleState(RoleSupervisor))}
	got := keys(FilterNavigation(DefaultNavigation, supervisor))
	assert.NotContains(t, got, "staff")
	assert.NotContains(t, got, "settings")
	assert.NotContains(t, got, "audit")
	assert.Contains(t, got, "reports")

	loading := AccessView{Status: StatusLoading}
	assert.Len(t, FilterNavigation(DefaultNavigation, loading), len(DefaultNavigation))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("supervisor")
	assert.NoError(t, err)
	assert.Equal(t, RoleSupervisor, r)

	_, err = ParseRole("ADMIN")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
