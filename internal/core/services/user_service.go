package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"posdesk/internal/adapters/persistence/models"
	"posdesk/internal/adapters/persistence/repositories"
	"posdesk/internal/core/domain"
	"posdesk/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrOldPasswordWrong     = errors.New("old password is incorrect")
	ErrCannotDeactivateSelf = errors.New("cannot deactivate your own account")
	ErrAdminRequired        = errors.New("only an administrator can change roles")
)

// UserService handles staff management business logic
type UserService struct {
	userRepo repositories.UserRepository
	access   *AccessResolver
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, access *AccessResolver) *UserService {
	return &UserService{
		userRepo: userRepo,
		access:   access,
	}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// CreateStaffInput represents create staff input
type CreateStaffInput struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	FullName string `json:"full_name" validate:"required,max=150"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin manager supervisor cashier"`
}

// SetRoleInput represents a role change
type SetRoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin manager supervisor cashier"`
}

// SetActiveInput represents an activation change
type SetActiveInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ListUsers lists all staff with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	// Set defaults
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetUserByID gets a staff member by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// CreateStaff creates a staff account with the given role
func (s *UserService) CreateStaff(ctx context.Context, input *CreateStaffInput) (*models.UserResponse, error) {
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		FullName: input.FullName,
		Password: hashedPassword,
		Role:     string(role),
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Staff account created: %s (%s)", user.Email, user.Role)
	return user.ToResponse(), nil
}

// SetRole changes a staff member's stored role. Only an actor whose own
// stored role is admin may do this, and never on their own account.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID uint, input *SetRoleInput) (*models.UserResponse, error) {
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, domain.ErrCannotChangeOwnRole
	}
	if s.access.View(ctx, actorID).Snapshot.ActualRole != domain.RoleAdmin {
		return nil, ErrAdminRequired
	}

	user, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Role = string(role)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.access.Invalidate(user.ID)

	log.Printf("✅ Role of %s changed to %s by user %d", user.Email, user.Role, actorID)
	return user.ToResponse(), nil
}

// SetActive activates or deactivates a staff account
func (s *UserService) SetActive(ctx context.Context, actorID, targetID uint, input *SetActiveInput) (*models.UserResponse, error) {
	if input.IsActive == nil {
		return nil, domain.ErrInvalidInput
	}
	if actorID == targetID && !*input.IsActive {
		return nil, ErrCannotDeactivateSelf
	}

	user, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsActive = *input.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.access.Invalidate(user.ID)

	return user.ToResponse(), nil
}

// ChangePassword changes the actor's own password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	// Verify old password
	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	if !password.ValidatePassword(input.NewPassword) {
		return domain.ErrInvalidInput
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

func (s *UserService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
