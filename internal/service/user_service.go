package service

import (
	"context"
	"fmt"
	"strings"

	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type UpdateProfileRequest struct {
	Name    *string  `json:"name" binding:"omitempty,min=2,max=120"`
	Phone   *string  `json:"phone" binding:"omitempty,max=20"`
	Address *string  `json:"address" binding:"omitempty,max=255"`
	Lat     *float64 `json:"lat" binding:"omitempty,latitude"`
	Lng     *float64 `json:"lng" binding:"omitempty,longitude"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type DeactivateAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// UserResponse never exposes the password hash
type UserResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Role        model.Role     `json:"role"`
	IsVerified  bool           `json:"is_verified"`
	IsActive    bool           `json:"is_active"`
	Location    model.Location `json:"location"`
	Rating      model.Rating   `json:"rating"`
	LastLoginAt string         `json:"last_login_at,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

type UserListQuery struct {
	Role   string `form:"role" binding:"omitempty,oneof=user worker admin"`
	Active *bool  `form:"active"`
	Search string `form:"search"`
}

// --- Interface ---

type UserService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error)
	ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) error
	Deactivate(ctx context.Context, id uuid.UUID, password string) error

	ListUsers(ctx context.Context, q UserListQuery, p pagination.Params) ([]UserResponse, int64, error)
	ToggleStatus(ctx context.Context, actor Actor, id uuid.UUID) (*UserResponse, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens repository.RefreshTokenRepository
	audit  AuditService
	tx     repository.TransactionManager
	notify notify.Dispatcher
	now    Clock
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tokens repository.RefreshTokenRepository, audit AuditService, tx repository.TransactionManager, dispatcher notify.Dispatcher) UserService {
	return &userService{repo: repo, tokens: tokens, audit: audit, tx: tx, notify: dispatcher, now: systemClock}
}

// Helper: parse model to standard json API response
func mapUserResponse(u *model.User) *UserResponse {
	res := &UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		Location:   u.Location,
		Rating:     u.Rating,
		CreatedAt:  formatTime(u.CreatedAt),
		UpdatedAt:  formatTime(u.UpdatedAt),
	}
	if u.LastLoginAt != nil {
		res.LastLoginAt = formatTime(*u.LastLoginAt)
	}
	return res
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		user.Location.Address = strings.TrimSpace(*req.Address)
	}
	if req.Lat != nil {
		user.Location.Lat = req.Lat
	}
	if req.Lng != nil {
		user.Location.Lng = req.Lng
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return mapUserResponse(user), nil
}

func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperror.Validation("Current password is incorrect", map[string]string{"current_password": "incorrect"})
	}
	if req.CurrentPassword == req.NewPassword {
		return apperror.Validation("New password must differ from the current one", map[string]string{"new_password": "unchanged"})
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUser(txCtx, user.ID)
	})
	if err != nil {
		return err
	}

	sendEmail(ctx, s.notify, notify.Message{Kind: notify.KindPasswordChanged, To: user.Email, Name: user.Name})
	return nil
}

// Deactivate closes the caller's own account. The email is renamed so the address can register again.
func (s *userService) Deactivate(ctx context.Context, id uuid.UUID, password string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return apperror.Validation("Password is incorrect", map[string]string{"password": "incorrect"})
	}

	user.Email = fmt.Sprintf("deactivated+%d+%s", s.now().Unix(), user.Email)
	user.IsActive = false

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUser(txCtx, user.ID)
	})
}

func (s *userService) ListUsers(ctx context.Context, q UserListQuery, p pagination.Params) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, repository.UserFilter{Role: q.Role, Active: q.Active, Search: q.Search}, p)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUserResponse(&users[i]))
	}
	return responses, total, nil
}

// ToggleStatus flips the active flag of another account; admins cannot deactivate themselves
func (s *userService) ToggleStatus(ctx context.Context, actor Actor, id uuid.UUID) (*UserResponse, error) {
	if actor.UserID == id {
		return nil, apperror.Forbidden("You cannot change the status of your own account")
	}

	var user *model.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		user.IsActive = !user.IsActive
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		if !user.IsActive {
			if err := s.tokens.RevokeAllForUser(txCtx, user.ID); err != nil {
				return err
			}
		}
		actorID := actor.UserID
		return s.audit.Record(txCtx, &actorID, model.ActionToggleUserStatus, user.ID.String(), user.Email, map[string]interface{}{
			"is_active": user.IsActive,
		})
	})
	if err != nil {
		return nil, err
	}
	return mapUserResponse(user), nil
}
