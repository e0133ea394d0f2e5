package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"

	"gorm.io/gorm"
)

// ProfileSource loads the stored profile of an actor
type ProfileSource interface {
	LoadProfile(ctx context.Context, userID uint) (*domain.Profile, error)
}

// userProfileSource reads profiles from the users table
type userProfileSource struct {
	userRepo repositories.UserRepository
}

// NewUserProfileSource creates a profile source backed by the user repository
func NewUserProfileSource(userRepo repositories.UserRepository) ProfileSource {
	return &userProfileSource{userRepo: userRepo}
}

// LoadProfile returns ErrProfileNotFound for missing users
func (s *userProfileSource) LoadProfile(ctx context.Context, userID uint) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	role, err := domain.ParseRole(user.Role)
	if err != nil {
		log.Printf("⚠️ User %d has unknown role %q, treating as no role", user.ID, user.Role)
		return &domain.Profile{UserID: user.ID, IsActive: false}, nil
	}

	return &domain.Profile{UserID: user.ID, Role: role, IsActive: user.IsActive}, nil
}

// ============================================================
// AccessSession: permission state of one signed-in actor
// ============================================================

// AccessSession holds the role state of one actor
type AccessSession struct {
	userID uint
	source ProfileSource

	loadMu sync.Mutex // serialises loads

	mu       sync.RWMutex
	status   domain.SessionStatus
	state    domain.RoleState // nil until a profile with a role is loaded
	snapshot domain.PermissionSnapshot
	stale    bool
}

// NewAccessSession creates an uninitialized session
func NewAccessSession(userID uint, source ProfileSource) *AccessSession {
	return &AccessSession{
		userID:   userID,
		source:   source,
		status:   domain.StatusUninitialized,
		snapshot: domain.AnonymousSnapshot(),
	}
}

// Load fetches the actor's stored role and recomputes the snapshot. A read
// error is logged and leaves the previous snapshot in place.
func (s *AccessSession) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx)
}

func (s *AccessSession) load(ctx context.Context) error {
	s.mu.Lock()
	prevStatus := s.status
	s.status = domain.StatusLoading
	s.mu.Unlock()

	profile, err := s.source.LoadProfile(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		log.Printf("⚠️ Failed to load permissions for user %d: %v", s.userID, err)
		s.status = prevStatus
		return err
	}

	s.stale = false
	s.status = domain.StatusReady

	if profile == nil || !profile.IsActive || !profile.Role.IsValid() {
		s.state = nil
		s.snapshot = domain.AnonymousSnapshot()
		return nil
	}

	next := domain.NewRoleState(profile.Role)
	if prev, ok := s.state.(domain.Previewing); ok {
		// a preview survives a reload only while the actor is still admin
		next = domain.WithPreview(next, prev.As)
	}
	s.state = next
	s.snapshot = domain.SnapshotOf(next)
	return nil
}

// Ensure loads the session when it has never been loaded or was invalidated,
// then returns the current view. Concurrent callers wait for the in-flight load.
func (s *AccessSession) Ensure(ctx context.Context) domain.AccessView {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	needsLoad := s.status != domain.StatusReady || s.stale
	s.mu.RUnlock()

	if needsLoad {
		_ = s.load(ctx)
	}
	return s.View()
}

// View returns the current status and snapshot without loading
func (s *AccessSession) View() domain.AccessView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.AccessView{Status: s.status, Snapshot: s.snapshot}
}

// SetPreviewRole evaluates permissions as another role. It is a no-op unless
// the actor's stored role is admin; previewing as admin clears the preview.
func (s *AccessSession) SetPreviewRole(role domain.Role) domain.AccessView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusReady && s.state != nil {
		s.state = domain.WithPreview(s.state, role)
		s.snapshot = domain.SnapshotOf(s.state)
	}
	return domain.AccessView{Status: s.status, Snapshot: s.snapshot}
}

// ClearPreviewRole returns an admin to their own role. No-op for others.
func (s *AccessSession) ClearPreviewRole() domain.AccessView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusReady && s.state != nil && s.state.ActualRole() == domain.RoleAdmin {
		s.state = domain.WithoutPreview(s.state)
		s.snapshot = domain.SnapshotOf(s.state)
	}
	return domain.AccessView{Status: s.status, Snapshot: s.snapshot}
}

// Invalidate marks the session for reload on next use
func (s *AccessSession) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

// ============================================================
// AccessResolver: sessions per actor
// ============================================================

// AccessResolver keeps one access session per signed-in actor
type AccessResolver struct {
	source ProfileSource

	mu       sync.RWMutex
	sessions map[uint]*AccessSession
}

// NewAccessResolver creates a new access resolver
func NewAccessResolver(source ProfileSource) *AccessResolver {
	return &AccessResolver{
		source:   source,
		sessions: make(map[uint]*AccessSession),
	}
}

// Session returns the actor's session, creating it on first use
func (r *AccessResolver) Session(userID uint) *AccessSession {
	r.mu.RLock()
	session, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok = r.sessions[userID]; ok {
		return session
	}
	session = NewAccessSession(userID, r.source)
	r.sessions[userID] = session
	return session
}

// View returns the actor's loaded permission view
func (r *AccessResolver) View(ctx context.Context, userID uint) domain.AccessView {
	return r.Session(userID).Ensure(ctx)
}

// SetPreviewRole applies an admin preview for the actor
func (r *AccessResolver) SetPreviewRole(ctx context.Context, userID uint, role domain.Role) domain.AccessView {
	session := r.Session(userID)
	session.Ensure(ctx)
	return session.SetPreviewRole(role)
}

// ClearPreviewRole drops an admin preview for the actor
func (r *AccessResolver) ClearPreviewRole(ctx context.Context, userID uint) domain.AccessView {
	session := r.Session(userID)
	session.Ensure(ctx)
	return session.ClearPreviewRole()
}

// Navigation returns the menu entries the actor may see
func (r *AccessResolver) Navigation(ctx context.Context, userID uint) []domain.NavItem {
	return domain.FilterNavigation(domain.DefaultNavigation, r.View(ctx, userID))
}

// Invalidate forces the actor's permissions to reload, e.g. after a role change
func (r *AccessResolver) Invalidate(userID uint) {
	r.mu.RLock()
	session, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		session.Invalidate()
	}
}

// Discard drops the actor's session on sign-out
func (r *AccessResolver) Discard(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// SessionCount returns the number of live sessions
func (r *AccessResolver) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PreviewEntry is an admin currently previewing another role
type PreviewEntry struct {
	UserID      uint        `json:"userId"`
	ActualRole  domain.Role `json:"actualRole"`
	PreviewRole domain.Role `json:"previewRole"`
}

// SessionAudit summarises the live access sessions
type SessionAudit struct {
	ActiveSessions int            `json:"activeSessions"`
	Previewing     []PreviewEntry `json:"previewing"`
}

// Audit lists live sessions and the admins in preview mode. Sessions are
// read as they are, nothing is reloaded.
func (r *AccessResolver) Audit() SessionAudit {
	r.mu.RLock()
	sessions := make([]*AccessSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	audit := SessionAudit{
		ActiveSessions: r.SessionCount(),
		Previewing:     []PreviewEntry{},
	}
	for _, session := range sessions {
		snap := session.View().Snapshot
		if !snap.IsPreviewMode || snap.PreviewRole == nil {
			continue
		}
		audit.Previewing = append(audit.Previewing, PreviewEntry{
			UserID:      session.userID,
			ActualRole:  snap.ActualRole,
			PreviewRole: *snap.PreviewRole,
		})
	}
	sort.Slice(audit.Previewing, func(i, j int) bool {
		return audit.Previewing[i].UserID < audit.Previewing[j].UserID
	})
	return audit
}
