package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

// ErrNoAdminID はコンテキストに管理者IDが無いことを示す。
var ErrNoAdminID = errors.New("管理者IDがコンテキストにありません")

// TokenVerifier はBearerトークンの検証インターフェース。
type TokenVerifier interface {
	VerifyToken(tokenString string) (string, error)
}

// NewAuthMiddleware はAuthorizationヘッダのBearerトークンを検証し、
// 管理者IDをリクエストコンテキストに注入するミドルウェアを返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "NON_AUTHENTIFIE",
					Message:  "Authentification requise.",
					Category: "auth",
					Action:   "Connectez-vous puis réessayez.",
				})
				return
			}

			adminID, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "TOKEN_INVALIDE",
					Message:  "Le jeton d'authentification est invalide ou expiré.",
					Category: "auth",
					Action:   "Reconnectez-vous pour obtenir un nouveau jeton.",
				})
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithAdminID は管理者IDを注入したコンテキストを返す。
// ハンドラーテストがミドルウェアを経由せずにIDを注入するために使う。
func ContextWithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// AdminIDFromContext はコンテキストから管理者IDを取得する。
func AdminIDFromContext(ctx context.Context) (string, error) {
	adminID, ok := ctx.Value(adminIDKey).(string)
	if !ok || adminID == "" {
		return "", ErrNoAdminID
	}
	return adminID, nil
}
