package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"posdesk/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// profileSourceFunc adapts a function to ProfileSource
type profileSourceFunc func(ctx context.Context, userID uint) (*domain.Profile, error)

func (f profileSourceFunc) LoadProfile(ctx context.Context, userID uint) (*domain.Profile, error) {
	return f(ctx, userID)
}

// mutableProfiles is a ProfileSource whose answers can change between loads
type mutableProfiles struct {
	mu       sync.Mutex
	profiles map[uint]*domain.Profile
	err      error
}

func (m *mutableProfiles) set(userID uint, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profiles == nil {
		m.profiles = map[uint]*domain.Profile{}
	}
	m.profiles[userID] = &domain.Profile{UserID: userID, Role: role, IsActive: true}
}

func (m *mutableProfiles) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mutableProfiles) LoadProfile(_ context.Context, userID uint) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func TestAccessSession_StartsUninitializedAndClosed(t *testing.T) {
	session := NewAccessSession(1, &mutableProfiles{})
	view := session.View()
	assert.Equal(t, domain.StatusUninitialized, view.Status)
	assert.Equal(t, domain.Capabilities{}, view.Snapshot.Capabilities)
	assert.Empty(t, view.Snapshot.EffectiveRole)
}

func TestAccessSession_LoadCashier(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(7, domain.RoleCashier)
	session := NewAccessSession(7, profiles)

	require.NoError(t, session.Load(context.Background()))
	view := session.View()
	assert.Equal(t, domain.StatusReady, view.Status)
	assert.Equal(t, domain.RoleCashier, view.Snapshot.EffectiveRole)
	assert.Equal(t, domain.CapabilitiesFor(domain.RoleCashier), view.Snapshot.Capabilities)
}

func TestAccessSession_UnknownProfileIsAnonymous(t *testing.T) {
	session := NewAccessSession(99, &mutableProfiles{})
	require.NoError(t, session.Load(context.Background()))

	view := session.View()
	assert.Equal(t, domain.StatusReady, view.Status)
	assert.Empty(t, view.Snapshot.EffectiveRole)
	assert.Equal(t, domain.Capabilities{}, view.Snapshot.Capabilities)
}

func TestAccessSession_InactiveProfileIsAnonymous(t *testing.T) {
	source := profileSourceFunc(func(context.Context, uint) (*domain.Profile, error) {
		return &domain.Profile{UserID: 3, Role: domain.RoleAdmin, IsActive: false}, nil
	})
	session := NewAccessSession(3, source)
	require.NoError(t, session.Load(context.Background()))
	assert.Equal(t, domain.Capabilities{}, session.View().Snapshot.Capabilities)
}

func TestAccessSession_NonAdminPreviewIsNoop(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleManager, domain.RoleSupervisor, domain.RoleCashier} {
		profiles := &mutableProfiles{}
		profiles.set(1, role)
		session := NewAccessSession(1, profiles)
		require.NoError(t, session.Load(context.Background()))

		for _, as := range domain.AllRoles {
			view := session.SetPreviewRole(as)
			assert.Equal(t, role, view.Snapshot.EffectiveRole)
			assert.False(t, view.Snapshot.IsPreviewMode)
		}
		view := session.ClearPreviewRole()
		assert.Equal(t, role, view.Snapshot.EffectiveRole)
	}
}

func TestAccessSession_AdminPreviewLifecycle(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(1, domain.RoleAdmin)
	session := NewAccessSession(1, profiles)
	require.NoError(t, session.Load(context.Background()))

	view := session.SetPreviewRole(domain.RoleCashier)
	assert.True(t, view.Snapshot.IsPreviewMode)
	assert.Equal(t, domain.RoleCashier, view.Snapshot.EffectiveRole)
	assert.Equal(t, domain.RoleAdmin, view.Snapshot.ActualRole)
	assert.False(t, view.Snapshot.Capabilities.CanManageStaff)

	view = session.SetPreviewRole(domain.RoleSupervisor)
	assert.Equal(t, domain.RoleSupervisor, view.Snapshot.EffectiveRole)

	view = session.SetPreviewRole(domain.RoleAdmin)
	assert.False(t, view.Snapshot.IsPreviewMode)
	assert.Nil(t, view.Snapshot.PreviewRole)
	assert.True(t, view.Snapshot.Capabilities.CanManageStaff)

	session.SetPreviewRole(domain.RoleManager)
	view = session.ClearPreviewRole()
	assert.False(t, view.Snapshot.IsPreviewMode)
	assert.Equal(t, domain.RoleAdmin, view.Snapshot.EffectiveRole)
}

func TestAccessSession_PreviewBeforeLoadIsNoop(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(1, domain.RoleAdmin)
	session := NewAccessSession(1, profiles)

	view := session.SetPreviewRole(domain.RoleCashier)
	assert.Equal(t, domain.StatusUninitialized, view.Status)
	assert.Empty(t, view.Snapshot.EffectiveRole)
}

func TestAccessSession_TransientErrorKeepsPriorSnapshot(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(1, domain.RoleManager)
	session := NewAccessSession(1, profiles)
	require.NoError(t, session.Load(context.Background()))

	profiles.fail(errors.New("connection reset"))
	err := session.Load(context.Background())
	assert.Error(t, err)

	view := session.View()
	assert.Equal(t, domain.StatusReady, view.Status)
	assert.Equal(t, domain.RoleManager, view.Snapshot.EffectiveRole)
}

func TestAccessSession_TransientErrorBeforeFirstLoadStaysClosed(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.fail(errors.New("timeout"))
	session := NewAccessSession(1, profiles)

	assert.Error(t, session.Load(context.Background()))
	view := session.View()
	assert.Equal(t, domain.StatusUninitialized, view.Status)
	assert.False(t, domain.Guard(view, domain.Requirement{Capability: domain.CanProcessSales}))
}

func TestAccessSession_LoadingGrantsProvisionally(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	source := profileSourceFunc(func(context.Context, uint) (*domain.Profile, error) {
		close(entered)
		<-release
		return &domain.Profile{UserID: 1, Role: domain.RoleCashier, IsActive: true}, nil
	})
	session := NewAccessSession(1, source)

	done := make(chan error)
	go func() { done <- session.Load(context.Background()) }()
	<-entered

	view := session.View()
	assert.Equal(t, domain.StatusLoading, view.Status)
	assert.True(t, domain.Guard(view, domain.Requirement{Capability: domain.CanManageStaff}))
	assert.Len(t, domain.FilterNavigation(domain.DefaultNavigation, view), len(domain.DefaultNavigation))

	close(release)
	require.NoError(t, <-done)

	view = session.View()
	assert.Equal(t, domain.StatusReady, view.Status)
	assert.False(t, domain.Guard(view, domain.Requirement{Capability: domain.CanManageStaff}))
}

func TestAccessResolver_InvalidateReloadsAndDropsPreviewWhenDemoted(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(5, domain.RoleAdmin)
	resolver := NewAccessResolver(profiles)
	ctx := context.Background()

	view := resolver.SetPreviewRole(ctx, 5, domain.RoleCashier)
	assert.True(t, view.Snapshot.IsPreviewMode)

	// still admin: preview survives a reload
	resolver.Invalidate(5)
	view = resolver.View(ctx, 5)
	assert.True(t, view.Snapshot.IsPreviewMode)
	assert.Equal(t, domain.RoleCashier, view.Snapshot.EffectiveRole)

	profiles.set(5, domain.RoleManager)
	resolver.Invalidate(5)
	view = resolver.View(ctx, 5)
	assert.False(t, view.Snapshot.IsPreviewMode)
	assert.Equal(t, domain.RoleManager, view.Snapshot.EffectiveRole)
	assert.Equal(t, domain.RoleManager, view.Snapshot.ActualRole)
}

func TestAccessResolver_ViewIsCachedUntilInvalidated(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(2, domain.RoleCashier)
	resolver := NewAccessResolver(profiles)
	ctx := context.Background()

	assert.Equal(t, domain.RoleCashier, resolver.View(ctx, 2).Snapshot.EffectiveRole)

	profiles.set(2, domain.RoleSupervisor)
	assert.Equal(t, domain.RoleCashier, resolver.View(ctx, 2).Snapshot.EffectiveRole)

	resolver.Invalidate(2)
	assert.Equal(t, domain.RoleSupervisor, resolver.View(ctx, 2).Snapshot.EffectiveRole)
}

func TestAccessResolver_DiscardAndNavigation(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(1, domain.RoleAdmin)
	profiles.set(2, domain.RoleCashier)
	resolver := NewAccessResolver(profiles)
	ctx := context.Background()

	assert.Len(t, resolver.Navigation(ctx, 1), len(domain.DefaultNavigation))
	assert.Len(t, resolver.Navigation(ctx, 2), 4)
	assert.Equal(t, 2, resolver.SessionCount())

	resolver.SetPreviewRole(ctx, 1, domain.RoleCashier)
	assert.Len(t, resolver.Navigation(ctx, 1), 4)

	resolver.Discard(1)
	assert.Equal(t, 1, resolver.SessionCount())

	// a fresh session after sign-out starts without the preview
	assert.False(t, resolver.View(ctx, 1).Snapshot.IsPreviewMode)
}

func TestAccessResolver_AuditListsPreviewingAdmins(t *testing.T) {
	profiles := &mutableProfiles{}
	profiles.set(1, domain.RoleAdmin)
	profiles.set(2, domain.RoleCashier)
	profiles.set(3, domain.RoleAdmin)
	resolver := NewAccessResolver(profiles)
	ctx := context.Background()

	for id := uint(1); id <= 3; id++ {
		resolver.View(ctx, id)
	}
	resolver.SetPreviewRole(ctx, 3, domain.RoleSupervisor)
	resolver.SetPreviewRole(ctx, 2, domain.RoleManager) // ignored for a cashier

	audit := resolver.Audit()
	assert.Equal(t, 3, audit.ActiveSessions)
	assert.Equal(t, []PreviewEntry{
		{UserID: 3, ActualRole: domain.RoleAdmin, PreviewRole: domain.RoleSupervisor},
	}, audit.Previewing)

	resolver.Discard(3)
	audit = resolver.Audit()
	assert.Equal(t, 2, audit.ActiveSessions)
	assert.Empty(t, audit.Previewing)
}
