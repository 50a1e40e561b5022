package service

import (
	"context"
	"testing"
	"time"

	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/pkg/apperror"
)

func TestOTPVerifyOrder(t *testing.T) {
	ctx := context.Background()
	const email = "otp@handyhub.test"

	t.Run("missing", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.otp.Verify(ctx, email, model.PurposeLogin, "123456")
		assertKind(t, err, apperror.ErrNotFound)
	})

	t.Run("used", func(t *testing.T) {
		env := newTestEnv(t)
		code, err := env.otp.Issue(ctx, email, model.PurposeLogin)
		if err != nil {
			t.Fatal(err)
		}
		if err := env.otp.Verify(ctx, email, model.PurposeLogin, code); err != nil {
			t.Fatalf("first verify failed: %v", err)
		}
		err = env.otp.Verify(ctx, email, model.PurposeLogin, code)
		assertKind(t, err, apperror.ErrValidation)
	})

	t.Run("attempt cap", func(t *testing.T) {
		env := newTestEnv(t)
		code, err := env.otp.Issue(ctx, email, model.PurposeLogin)
		if err != nil {
			t.Fatal(err)
		}
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		for i := 0; i < 3; i++ {
			err := env.otp.Verify(ctx, email, model.PurposeLogin, wrong)
			assertKind(t, err, apperror.ErrValidation)
		}
		// even the right code is refused once the cap is reached
		err = env.otp.Verify(ctx, email, model.PurposeLogin, code)
		assertKind(t, err, apperror.ErrRateLimited)
	})

	t.Run("expired", func(t *testing.T) {
		env := newTestEnv(t)
		code, err := env.otp.Issue(ctx, email, model.PurposeLogin)
		if err != nil {
			t.Fatal(err)
		}
		env.advance(11 * time.Minute)
		err = env.otp.Verify(ctx, email, model.PurposeLogin, code)
		assertKind(t, err, apperror.ErrValidation)
	})

	t.Run("purpose scoped", func(t *testing.T) {
		env := newTestEnv(t)
		code, err := env.otp.Issue(ctx, email, model.PurposeLogin)
		if err != nil {
			t.Fatal(err)
		}
		err = env.otp.Verify(ctx, email, model.PurposePasswordReset, code)
		assertKind(t, err, apperror.ErrNotFound)
	})
}

func TestOTPReissueInvalidatesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const email = "otp@handyhub.test"

	first, err := env.otp.Issue(ctx, email, model.PurposeLogin)
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.otp.Issue(ctx, email, model.PurposeLogin)
	assertKind(t, err, apperror.ErrRateLimited)

	env.advance(2 * time.Minute)
	second, err := env.otp.Issue(ctx, email, model.PurposeLogin)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		// the newest code is the only one that can be checked
		err = env.otp.Verify(ctx, email, model.PurposeLogin, first)
		assertKind(t, err, apperror.ErrValidation)
	}

	env.db.mu.Lock()
	active := 0
	for _, o := range env.db.otps {
		if !o.IsUsed {
			active++
		}
	}
	env.db.mu.Unlock()
	if active > 1 {
		t.Errorf("expected at most one active code, got %d", active)
	}

	env.advance(time.Hour)
	n, err := env.otp.PurgeExpired(ctx)
	if err != nil || n != 2 {
		t.Errorf("expected 2 purged codes, got %d (%v)", n, err)
	}
}

func TestRegisterVerifyAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterRequest{Name: " Jane ", Email: "Jane@Example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "jane@example.com" || user.Role != model.RoleUser || user.IsVerified {
		t.Errorf("unexpected user %+v", user)
	}

	_, err = env.auth.Register(ctx, RegisterRequest{Name: "Jane", Email: "JANE@example.com", Password: "password123"})
	assertKind(t, err, apperror.ErrAlreadyExists)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "password123"})
	assertKind(t, err, apperror.ErrForbidden)

	code := env.lastCode(t, notify.KindVerification, "jane@example.com")
	res, err := env.auth.VerifyEmail(ctx, VerifyOTPRequest{Email: "jane@example.com", OTP: code})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" || !res.User.IsVerified {
		t.Errorf("unexpected auth response %+v", res)
	}
	if _, ok := env.mail.last(notify.KindWelcome, "jane@example.com"); !ok {
		t.Error("welcome email not sent")
	}

	_, err = env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	assertKind(t, err, apperror.ErrUnauthorized)
	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assertKind(t, err, apperror.ErrUnauthorized)

	res, err = env.auth.Login(ctx, LoginRequest{Email: "JANE@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.LastLoginAt == "" {
		t.Error("last login not recorded")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "jane@example.com", model.RoleUser)

	res, err := env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}
	rotated, err := env.auth.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.RefreshToken == res.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	_, err = env.auth.Refresh(ctx, res.RefreshToken)
	assertKind(t, err, apperror.ErrUnauthorized)
	_, err = env.auth.Refresh(ctx, "")
	assertKind(t, err, apperror.ErrUnauthorized)

	if err := env.auth.Logout(ctx, rotated.RefreshToken); err != nil {
		t.Fatal(err)
	}
	_, err = env.auth.Refresh(ctx, rotated.RefreshToken)
	assertKind(t, err, apperror.ErrUnauthorized)
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "jane@example.com", model.RoleUser)

	session, err := env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}

	// unknown emails get the same silent success
	if err := env.auth.ForgotPassword(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if err := env.auth.ForgotPassword(ctx, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.lastCode(t, notify.KindPasswordReset, "jane@example.com")

	err = env.auth.ResetPassword(ctx, ResetPasswordRequest{Email: "jane@example.com", OTP: code, NewPassword: "new-password"})
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	_, err = env.auth.Refresh(ctx, session.RefreshToken)
	assertKind(t, err, apperror.ErrUnauthorized)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "password123"})
	assertKind(t, err, apperror.ErrUnauthorized)
	if _, err := env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "new-password"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestLoginWithOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "jane@example.com", model.RoleUser)

	if err := env.auth.RequestLoginOTP(ctx, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.lastCode(t, notify.KindLoginCode, "jane@example.com")

	res, err := env.auth.LoginWithOTP(ctx, VerifyOTPRequest{Email: "jane@example.com", OTP: code})
	if err != nil {
		t.Fatalf("otp login failed: %v", err)
	}
	if res.User.Email != "jane@example.com" {
		t.Errorf("unexpected user %+v", res.User)
	}

	_, err = env.auth.LoginWithOTP(ctx, VerifyOTPRequest{Email: "nobody@example.com", OTP: code})
	assertKind(t, err, apperror.ErrUnauthorized)
}

func TestDeactivatedAccountCannotLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jane := env.addUser(t, "jane@example.com", model.RoleUser)
	admin := env.addUser(t, "admin@example.com", model.RoleAdmin)

	_, err := env.users.ToggleStatus(ctx, actorFor(admin), admin.ID)
	assertKind(t, err, apperror.ErrForbidden)

	res, err := env.users.ToggleStatus(ctx, actorFor(admin), jane.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if res.IsActive {
		t.Fatal("expected account to be deactivated")
	}

	_, err = env.auth.Login(ctx, LoginRequest{Email: "jane@example.com", Password: "password123"})
	assertKind(t, err, apperror.ErrForbidden)
}
