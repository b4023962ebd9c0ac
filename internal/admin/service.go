// Package admin は管理者認証とトークン発行を提供する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// Claims は管理者トークンのJWTクレーム。
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service は管理者認証のサービス層。
// パスワードはbcryptで照合し、認証結果はBearerトークンとして発行する。
type Service struct {
	adminRepo repository.AdministrateurRepository
	secret    []byte
	maxAge    time.Duration
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(adminRepo repository.AdministrateurRepository, secret string, maxAge time.Duration) *Service {
	return &Service{
		adminRepo: adminRepo,
		secret:    []byte(secret),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// Login はユーザー名とパスワードで管理者を認証しトークンを発行する。
// ユーザー名の不在とパスワード不一致は同一のエラーで返し、アカウントの実在を漏らさない。
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.Administrateur, error) {
	admin, err := s.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	if admin == nil || !admin.EstActif {
		return "", nil, model.NewIdentifiantsInvalidesError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.NewIdentifiantsInvalidesError()
	}

	now := s.now()
	claims := Claims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}

	slog.Info("管理者がログインしました",
		slog.String("admin_id", admin.ID),
	)
	return token, admin, nil
}

// VerifyToken はBearerトークンを検証し管理者IDを返す。
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("予期しない署名方式です: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("トークンが無効です")
	}
	return claims.Subject, nil
}

// FindByID は指定IDの管理者を返す。
func (s *Service) FindByID(ctx context.Context, id string) (*model.Administrateur, error) {
	admin, err := s.adminRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	if admin == nil {
		return nil, model.NewIdentifiantsInvalidesError()
	}
	return admin, nil
}

// HashPassword はパスワードのbcryptハッシュを返す。初期管理者の作成に使う。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	return string(hash), nil
}
