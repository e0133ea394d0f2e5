package domain

// ============================================================
// Capabilities
// ============================================================

// Capability names a single permission flag
type Capability string

const (
	CanManageProducts  Capability = "canManageProducts"
	CanManageStaff     Capability = "canManageStaff"
	CanManageSettings  Capability = "canManageSettings"
	CanManageExpenses  Capability = "canManageExpenses"
	CanViewReports     Capability = "canViewReports"
	CanManageLoans     Capability = "canManageLoans"
	CanProcessSales    Capability = "canProcessSales"
	CanManageCustomers Capability = "canManageCustomers"
	CanManageSuppliers Capability = "canManageSuppliers"
)

// Capabilities is the derived permission set for an effective role
type Capabilities struct {
	CanManageProducts  bool `json:"canManageProducts"`
	CanManageStaff     bool `json:"canManageStaff"`
	CanManageSettings  bool `json:"canManageSettings"`
	CanManageExpenses  bool `json:"canManageExpenses"`
	CanViewReports     bool `json:"canViewReports"`
	CanManageLoans     bool `json:"canManageLoans"`
	CanProcessSales    bool `json:"canProcessSales"`
	CanManageCustomers bool `json:"canManageCustomers"`
	CanManageSuppliers bool `json:"canManageSuppliers"`
}

// CapabilitiesFor returns the fixed capability matrix row for a role.
// Unknown and empty roles get nothing.
func CapabilitiesFor(role Role) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{
			CanManageProducts:  true,
			CanManageStaff:     true,
			CanManageSettings:  true,
			CanManageExpenses:  true,
			CanViewReports:     true,
			CanManageLoans:     true,
			CanProcessSales:    true,
			CanManageCustomers: true,
			CanManageSuppliers: true,
		}
	case RoleManager, RoleSupervisor:
		return Capabilities{
			CanManageProducts:  true,
			CanManageExpenses:  true,
			CanViewReports:     true,
			CanManageLoans:     true,
			CanProcessSales:    true,
			CanManageCustomers: true,
			CanManageSuppliers: true,
		}
	case RoleCashier:
		return Capabilities{
			CanManageLoans:     true,
			CanProcessSales:    true,
			CanManageCustomers: true,
		}
	default:
		return Capabilities{}
	}
}

// Has looks up a capability by name
func (c Capabilities) Has(name Capability) bool {
	switch name {
	case CanManageProducts:
		return c.CanManageProducts
	case CanManageStaff:
		return c.CanManageStaff
	case CanManageSettings:
		return c.CanManageSettings
	case CanManageExpenses:
		return c.CanManageExpenses
	case CanViewReports:
		return c.CanViewReports
	case CanManageLoans:
		return c.CanManageLoans
	case CanProcessSales:
		return c.CanProcessSales
	case CanManageCustomers:
		return c.CanManageCustomers
	case CanManageSuppliers:
		return c.CanManageSuppliers
	}
	return false
}

// ============================================================
// Role state: the actor acts as themselves or an admin previews another role
// ============================================================

// RoleState is either AsSelf or Previewing
type RoleState interface {
	EffectiveRole() Role
	ActualRole() Role
	isRoleState()
}

// AsSelf means the actor's stored role is in force
type AsSelf struct {
	Role Role
}

func (s AsSelf) EffectiveRole() Role { return s.Role }
func (s AsSelf) ActualRole() Role    { return s.Role }
func (AsSelf) isRoleState()          {}

// Previewing means an admin evaluates permissions as another role
type Previewing struct {
	Actual Role
	As     Role
}

func (s Previewing) EffectiveRole() Role { return s.As }
func (s Previewing) ActualRole() Role    { return s.Actual }
func (Previewing) isRoleState()          {}

// NewRoleState returns the state for an actor with no preview
func NewRoleState(actual Role) RoleState {
	return AsSelf{Role: actual}
}

// WithPreview applies a preview selection. Only admins can preview, and
// previewing as admin is the same as clearing the preview.
func WithPreview(state RoleState, as Role) RoleState {
	actual := state.ActualRole()
	if actual != RoleAdmin || !as.IsValid() {
		return state
	}
	if as == RoleAdmin {
		return AsSelf{Role: actual}
	}
	return Previewing{Actual: actual, As: as}
}

// WithoutPreview drops any preview selection
func WithoutPreview(state RoleState) RoleState {
	return AsSelf{Role: state.ActualRole()}
}

// InPreview reports whether the state is a preview
func InPreview(state RoleState) bool {
	_, ok := state.(Previewing)
	return ok
}

// ============================================================
// Permission snapshot
// ============================================================

// PermissionSnapshot is the read-only view consumed by guards and navigation
type PermissionSnapshot struct {
	EffectiveRole Role         `json:"effectiveRole"`
	ActualRole    Role         `json:"actualRole"`
	PreviewRole   *Role        `json:"previewRole"`
	IsPreviewMode bool         `json:"isPreviewMode"`
	Capabilities  Capabilities `json:"capabilities"`
}

// SnapshotOf derives a snapshot from a role state
func SnapshotOf(state RoleState) PermissionSnapshot {
	if state == nil {
		return AnonymousSnapshot()
	}
	snap := PermissionSnapshot{
		EffectiveRole: state.EffectiveRole(),
		ActualRole:    state.ActualRole(),
		Capabilities:  CapabilitiesFor(state.EffectiveRole()),
	}
	if p, ok := state.(Previewing); ok {
		as := p.As
		snap.PreviewRole = &as
		snap.IsPreviewMode = true
	}
	return snap
}

// AnonymousSnapshot is the all-false snapshot for an unknown actor
func AnonymousSnapshot() PermissionSnapshot {
	return PermissionSnapshot{}
}

// SessionStatus is the access session lifecycle state
type SessionStatus string

const (
	StatusUninitialized SessionStatus = "uninitialized"
	StatusLoading       SessionStatus = "loading"
	StatusReady         SessionStatus = "ready"
)

// AccessView pairs a snapshot with the session status it was read in
type AccessView struct {
	Status   SessionStatus      `json:"status"`
	Snapshot PermissionSnapshot `json:"snapshot"`
}

// ============================================================
// Guards and navigation
// ============================================================

// Requirement describes what a route or menu entry needs. Empty fields
// impose no constraint.
type Requirement struct {
	Capability   Capability `json:"capability,omitempty"`
	AllowedRoles []Role     `json:"allowedRoles,omitempty"`
}

// Allows reports whether the snapshot satisfies the requirement
func (r Requirement) Allows(snap PermissionSnapshot) bool {
	if r.Capability != "" && !snap.Capabilities.Has(r.Capability) {
		return false
	}
	if len(r.AllowedRoles) > 0 {
		for _, role := range r.AllowedRoles {
			if role == snap.EffectiveRole {
				return true
			}
		}
		return false
	}
	return true
}

// Guard decides access for a view. While the session is loading access is
// granted provisionally.
func Guard(view AccessView, req Requirement) bool {
	if view.Status == StatusLoading {
		return true
	}
	return req.Allows(view.Snapshot)
}

// NavItem is a navigation entry of the back office
type NavItem struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Path  string `json:"path"`
	Requirement
}

// DefaultNavigation is the back-office menu
var DefaultNavigation = []NavItem{
	{Key: "dashboard", Title: "Dashboard", Path: "/"},
	{Key: "sales", Title: "Point of Sale", Path: "/pos", Requirement: Requirement{Capability: CanProcessSales}},
	{Key: "products", Title: "Products", Path: "/products", Requirement: Requirement{Capability: CanManageProducts}},
	{Key: "inventory", Title: "Inventory", Path: "/inventory", Requirement: Requirement{Capability: CanManageProducts}},
	{Key: "customers", Title: "Customers", Path: "/customers", Requirement: Requirement{Capability: CanManageCustomers}},
	{Key: "suppliers", Title: "Suppliers", Path: "/suppliers", Requirement: Requirement{Capability: CanManageSuppliers}},
	{Key: "expenses", Title: "Expenses", Path: "/expenses", Requirement: Requirement{Capability: CanManageExpenses}},
	{Key: "loans", Title: "Loans", Path: "/loans", Requirement: Requirement{Capability: CanManageLoans}},
	{Key: "reports", Title: "Reports", Path: "/reports", Requirement: Requirement{Capability: CanViewReports}},
	{Key: "staff", Title: "Staff", Path: "/staff", Requirement: Requirement{Capability: CanManageStaff}},
	{Key: "settings", Title: "Settings", Path: "/settings", Requirement: Requirement{Capability: CanManageSettings}},
	{Key: "audit", Title: "Audit Logs", Path: "/audit-logs", Requirement: Requirement{AllowedRoles: []Role{RoleAdmin, RoleManager}}},
}

// FilterNavigation keeps the items the view may see
func FilterNavigation(items []NavItem, view AccessView) []NavItem {
	visible := make([]NavItem, 0, len(items))
	for _, item := range items {
		if Guard(view, item.Requirement) {
			visible = append(visible, item)
		}
	}
	return visible
}
