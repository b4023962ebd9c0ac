package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/middleware"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// AdminServiceInterface は管理者認証ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// Login は認証に成功するとJWTトークンと管理者情報を返す。
	Login(ctx context.Context, username, password string) (string, *model.Administrateur, error)
	// FindByID は管理者を1件取得する。
	FindByID(ctx context.Context, id string) (*model.Administrateur, error)
}

// AdminHandler は管理者認証のHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// loginRequest は管理者ログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// adminResponse は管理者情報のAPIレスポンス。
type adminResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token string        `json:"token"`
	Admin adminResponse `json:"admin"`
}

// Login は管理者ログインを処理する。
// POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	token, admin, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		Admin: toAdminResponse(admin),
	})
}

// Me は認証済み管理者の情報を返す。
// GET /admin/me
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.AdminIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "NON_AUTHENTIFIE",
			Message:  "Authentification requise.",
			Category: "auth",
			Action:   "Connectez-vous puis réessayez.",
		})
		return
	}

	admin, err := h.service.FindByID(r.Context(), adminID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if admin == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "TOKEN_INVALIDE",
			Message:  "Le compte administrateur associé au jeton n'existe plus.",
			Category: "auth",
			Action:   "Connectez-vous de nouveau.",
		})
		return
	}

	writeJSON(w, http.StatusOK, toAdminResponse(admin))
}

// --- ヘルパー関数 ---

func toAdminResponse(a *model.Administrateur) adminResponse {
	return adminResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Nom:      a.Nom,
		Prenom:   a.Prenom,
	}
}
