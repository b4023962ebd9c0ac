package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// --- モック ---

type mockAdminRepo struct {
	findByUsernameFn func(ctx context.Context, username string) (*model.Administrateur, error)
	findByIDFn       func(ctx context.Context, id string) (*model.Administrateur, error)
}

func (m *mockAdminRepo) FindByUsername(ctx context.Context, username string) (*model.Administrateur, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}
func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*model.Administrateur, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func activeAdmin(t *testing.T, password string) *model.Administrateur {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &model.Administrateur{
		ID:           "admin-1",
		Username:     "fatimazahra",
		PasswordHash: hash,
		EstActif:     true,
	}
}

// --- テスト ---

// 正しい資格情報でログインすると検証可能なトークンが発行されることを検証する。
func TestService_Login_IssuesVerifiableToken(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.Administrateur, error) {
			return activeAdmin(t, "motdepasse"), nil
		},
	}
	s := NewService(adminRepo, "test-secret", 8*time.Hour)

	token, admin, err := s.Login(context.Background(), "fatimazahra", "motdepasse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.ID != "admin-1" {
		t.Errorf("admin.ID = %q", admin.ID)
	}

	adminID, err := s.VerifyToken(token)
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if adminID != "admin-1" {
		t.Errorf("adminID = %q, want admin-1", adminID)
	}
}

// パスワード不一致がIDENTIFIANTS_INVALIDESになることを検証する。
func TestService_Login_WrongPassword(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.Administrateur, error) {
			return activeAdmin(t, "motdepasse"), nil
		},
	}
	s := NewService(adminRepo, "test-secret", 8*time.Hour)

	_, _, err := s.Login(context.Background(), "fatimazahra", "mauvais")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeIdentifiantsInvalides {
		t.Fatalf("expected IDENTIFIANTS_INVALIDES, got %v", err)
	}
}

// 存在しないユーザー名がパスワード不一致と同じエラーになることを検証する。
func TestService_Login_UnknownUsername(t *testing.T) {
	s := NewService(&mockAdminRepo{}, "test-secret", 8*time.Hour)

	_, _, err := s.Login(context.Background(), "inconnu", "motdepasse")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeIdentifiantsInvalides {
		t.Fatalf("expected IDENTIFIANTS_INVALIDES, got %v", err)
	}
}

// 無効化された管理者のログインが拒否されることを検証する。
func TestService_Login_InactiveAdmin(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.Administrateur, error) {
			admin := activeAdmin(t, "motdepasse")
			admin.EstActif = false
			return admin, nil
		},
	}
	s := NewService(adminRepo, "test-secret", 8*time.Hour)

	_, _, err := s.Login(context.Background(), "fatimazahra", "motdepasse")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeIdentifiantsInvalides {
		t.Fatalf("expected IDENTIFIANTS_INVALIDES, got %v", err)
	}
}

// 期限切れトークンの検証が失敗することを検証する。
func TestService_VerifyToken_Expired(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.Administrateur, error) {
			return activeAdmin(t, "motdepasse"), nil
		},
	}
	s := NewService(adminRepo, "test-secret", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := s.Login(context.Background(), "fatimazahra", "motdepasse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.VerifyToken(token); err == nil {
		t.Fatal("expired token should not verify")
	}
}

// 別の鍵で署名されたトークンの検証が失敗することを検証する。
func TestService_VerifyToken_WrongSecret(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.Administrateur, error) {
			return activeAdmin(t, "motdepasse"), nil
		},
	}
	issuer := NewService(adminRepo, "secret-a", 8*time.Hour)
	verifier := NewService(adminRepo, "secret-b", 8*time.Hour)

	token, _, err := issuer.Login(context.Background(), "fatimazahra", "motdepasse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("token signed with a different secret should not verify")
	}
}
