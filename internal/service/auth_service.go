package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handyhub/internal/config"
	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type ResendOTPRequest struct {
	Email   string           `json:"email" binding:"required,email"`
	Purpose model.OTPPurpose `json:"purpose" binding:"required,oneof=email-verification password-reset login"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

// GenericOTPMessage is returned whether or not the account exists
const GenericOTPMessage = "If an account exists for this email, a code has been sent"

// --- Interface ---

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	VerifyEmail(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RequestLoginOTP(ctx context.Context, email string) error
	LoginWithOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	ResendOTP(ctx context.Context, req ResendOTPRequest) error
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	otps   OTPService
	tx     repository.TransactionManager
	notify notify.Dispatcher
	jwt    config.JWTConfig
	otpTTL time.Duration
	now    Clock
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	otps OTPService,
	tx repository.TransactionManager,
	dispatcher notify.Dispatcher,
	jwtCfg config.JWTConfig,
	otpTTL time.Duration,
) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		otps:   otps,
		tx:     tx,
		notify: dispatcher,
		jwt:    jwtCfg,
		otpTTL: otpTTL,
		now:    systemClock,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IssueAccessToken signs an HS256 token carrying sub, role and exp
func IssueAccessToken(secret string, userID uuid.UUID, role model.Role, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*AuthResponse, error) {
	now := s.now()
	access, err := IssueAccessToken(s.jwt.Secret, user.ID, user.Role, now, s.jwt.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString() + uuid.NewString(),
		ExpiresAt: now.Add(s.jwt.RefreshTTL),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.jwt.AccessTTL.Seconds()),
		User:         mapUserResponse(user),
	}, nil
}

func (s *authService) sendCode(ctx context.Context, kind notify.Kind, email, name, code string) {
	sendEmail(ctx, s.notify, notify.Message{
		Kind: kind,
		To:   email,
		Name: name,
		Data: map[string]string{"code": code, "expires_in": s.otpTTL.String()},
	})
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.AlreadyExists("An account with this email already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hashed,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	code, err := s.otps.Issue(ctx, email, model.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	s.sendCode(ctx, notify.KindVerification, email, user.Name, code)

	return mapUserResponse(user), nil
}

func (s *authService) VerifyEmail(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, apperror.Conflict("Email is already verified")
	}
	if err := s.otps.Verify(ctx, user.Email, model.PurposeEmailVerification, req.OTP); err != nil {
		return nil, err
	}

	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	sendEmail(ctx, s.notify, notify.Message{Kind: notify.KindWelcome, To: user.Email, Name: user.Name})

	return s.login(ctx, user)
}

// checkCanLogin applies the account state rules shared by every login path
func checkCanLogin(user *model.User) error {
	if !user.IsActive {
		return apperror.Forbidden("Account is deactivated")
	}
	if !user.IsVerified {
		return apperror.Forbidden("Please verify your email before logging in")
	}
	return nil
}

func (s *authService) login(ctx context.Context, user *model.User) (*AuthResponse, error) {
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return s.issueTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	invalid := apperror.Unauthorized("Invalid email or password")

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, invalid
	}
	if err := checkCanLogin(user); err != nil {
		return nil, err
	}
	return s.login(ctx, user)
}

func (s *authService) RequestLoginOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if checkCanLogin(user) != nil {
		return nil
	}

	code, err := s.otps.Issue(ctx, user.Email, model.PurposeLogin)
	if err != nil {
		return err
	}
	s.sendCode(ctx, notify.KindLoginCode, user.Email, user.Name, code)
	return nil
}

func (s *authService) LoginWithOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("Invalid email or code")
	}
	if err != nil {
		return nil, err
	}
	if err := checkCanLogin(user); err != nil {
		return nil, err
	}
	if err := s.otps.Verify(ctx, user.Email, model.PurposeLogin, req.OTP); err != nil {
		return nil, err
	}
	return s.login(ctx, user)
}

// ForgotPassword never reveals whether the email belongs to an account
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	code, err := s.otps.Issue(ctx, user.Email, model.PurposePasswordReset)
	if err != nil {
		return err
	}
	s.sendCode(ctx, notify.KindPasswordReset, user.Email, user.Name, code)
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.Validation("Invalid or expired reset code", map[string]string{"otp": "invalid"})
	}
	if err != nil {
		return err
	}
	if err := s.otps.Verify(ctx, user.Email, model.PurposePasswordReset, req.OTP); err != nil {
		return err
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Update(txCtx, user); err != nil {
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

func (s *authService) ResendOTP(ctx context.Context, req ResendOTPRequest) error {
	switch req.Purpose {
	case model.PurposePasswordReset:
		return s.ForgotPassword(ctx, req.Email)
	case model.PurposeLogin:
		return s.RequestLoginOTP(ctx, req.Email)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperror.Conflict("Email is already verified")
	}

	code, err := s.otps.Issue(ctx, user.Email, model.PurposeEmailVerification)
	if err != nil {
		return err
	}
	s.sendCode(ctx, notify.KindVerification, user.Email, user.Name, code)
	return nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new pair is issued
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Refresh token is missing")
	}

	var res *AuthResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rt, err := s.tokens.GetActive(txCtx, refreshToken, s.now())
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("Refresh token is invalid or expired")
		}
		if err != nil {
			return err
		}

		user, err := s.users.GetByID(txCtx, rt.UserID)
		if err != nil {
			return err
		}
		if err := checkCanLogin(user); err != nil {
			return err
		}
		if err := s.tokens.Revoke(txCtx, refreshToken); err != nil {
			return err
		}
		res, err = s.issueTokens(txCtx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, refreshToken)
}
