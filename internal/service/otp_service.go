package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"handyhub/internal/config"
	"handyhub/internal/model"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"

	"golang.org/x/crypto/bcrypt"
)

const otpDigits = 6

type OTPService interface {
	// Issue creates a fresh code for email+purpose, invalidating earlier ones, and returns it in clear
	Issue(ctx context.Context, email string, purpose model.OTPPurpose) (string, error)
	// Verify consumes the newest code for email+purpose
	Verify(ctx context.Context, email string, purpose model.OTPPurpose, code string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type otpService struct {
	repo repository.OTPRepository
	tx   repository.TransactionManager
	cfg  config.OTPConfig
	now  Clock
}

func NewOTPService(repo repository.OTPRepository, tx repository.TransactionManager, cfg config.OTPConfig) OTPService {
	return &otpService{repo: repo, tx: tx, cfg: cfg, now: systemClock}
}

func generateCode() (string, error) {
	var b strings.Builder
	for i := 0; i < otpDigits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func (s *otpService) Issue(ctx context.Context, email string, purpose model.OTPPurpose) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := s.now()

	if last, err := s.repo.Latest(ctx, email, purpose); err == nil {
		if wait := last.CreatedAt.Add(s.cfg.ResendCooldown).Sub(now); wait > 0 {
			return "", apperror.RateLimited(fmt.Sprintf("Please wait %d seconds before requesting a new code", int(wait.Seconds())+1))
		}
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.InvalidateActive(txCtx, email, purpose); err != nil {
			return err
		}
		return s.repo.Create(txCtx, &model.OTP{
			Email:     email,
			Purpose:   purpose,
			CodeHash:  string(hash),
			ExpiresAt: now.Add(s.cfg.TTL),
			CreatedAt: now,
		})
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks, in order: presence, used flag, attempt cap, expiry, then the code itself.
// The row stays locked for the whole check so concurrent attempts are counted one at a time.
func (s *otpService) Verify(ctx context.Context, email string, purpose model.OTPPurpose, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var verifyErr error
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		otp, err := s.repo.LatestForUpdate(txCtx, email, purpose)
		if errors.Is(err, apperror.ErrNotFound) {
			verifyErr = apperror.NotFound("No verification code found. Please request a new one")
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case otp.IsUsed:
			verifyErr = apperror.Validation("Verification code has already been used", map[string]string{"otp": "used"})
			return nil
		case otp.Attempts >= s.cfg.MaxAttempts:
			verifyErr = apperror.RateLimited("Too many failed attempts. Please request a new code")
			return nil
		case otp.Expired(s.now()):
			verifyErr = apperror.Validation("Verification code has expired", map[string]string{"otp": "expired"})
			return nil
		}

		if err := s.repo.IncrementAttempts(txCtx, otp.ID); err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
			remaining := s.cfg.MaxAttempts - otp.Attempts - 1
			verifyErr = apperror.Validation(fmt.Sprintf("Invalid verification code. %d attempt(s) remaining", remaining), map[string]string{"otp": "invalid"})
			return nil // keep the attempt
		}
		return s.repo.MarkUsed(txCtx, otp.ID)
	})
	if err != nil {
		return err
	}
	return verifyErr
}

func (s *otpService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
