package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/candidat"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/middleware"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// CandidatServiceInterface は候補者ハンドラーが必要とするサービスインターフェース。
type CandidatServiceInterface interface {
	// Inscrire は候補者を登録し、受験枠の席を1つ予約する。
	Inscrire(ctx context.Context, req candidat.InscriptionRequest) (*model.Candidat, error)
	// Valider は登録を検証してセッションコードを発行・通知する。
	Valider(ctx context.Context, candidatID string) (*model.Candidat, error)
	// Rejeter は未検証の登録を削除して席を解放する。
	Rejeter(ctx context.Context, candidatID string) error
	// Lister は候補者を一覧する。estValideがnilの場合は全件。
	Lister(ctx context.Context, estValide *bool) ([]*model.Candidat, error)
	// Rechercher は氏名または学校名で候補者を検索する。
	Rechercher(ctx context.Context, term string) ([]*model.Candidat, error)
	// FindByID は候補者を1件取得する。
	FindByID(ctx context.Context, candidatID string) (*model.Candidat, error)
	// StatutParEmail はメールアドレスで登録状況を照会する。
	StatutParEmail(ctx context.Context, email string) (*model.Candidat, error)
	// RenvoyerCode は発行済みコードを再送する。
	RenvoyerCode(ctx context.Context, candidatID string) error
	// Connexion はセッションコードで候補者を認証する。
	Connexion(ctx context.Context, code string) (*model.Candidat, error)
}

// CandidatMetrics は候補者操作の計測インターフェース。
type CandidatMetrics interface {
	RecordInscription()
	RecordValidation()
}

// CandidatHandler は候補者管理のHTTPハンドラー。
type CandidatHandler struct {
	service   CandidatServiceInterface
	collector CandidatMetrics
}

// NewCandidatHandler はCandidatHandlerを生成する。collectorはnilでもよい。
func NewCandidatHandler(service CandidatServiceInterface, collector CandidatMetrics) *CandidatHandler {
	return &CandidatHandler{
		service:   service,
		collector: collector,
	}
}

// connexionRequest はセッションコード認証リクエストのボディ。
type connexionRequest struct {
	CodeSession string `json:"codeSession"`
}

// candidatResponse は候補者情報のAPIレスポンス。
// セッションコードは含めない。コードは通知チャネル経由でのみ候補者に届く。
type candidatResponse struct {
	ID        string    `json:"id"`
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom"`
	Ecole     string    `json:"ecole"`
	Filiere   string    `json:"filiere,omitempty"`
	Email     string    `json:"email"`
	Gsm       string    `json:"gsm"`
	EstValide bool      `json:"estValide"`
	CreneauID string    `json:"creneauId"`
	CreatedAt time.Time `json:"createdAt"`
}

// statutResponse は公開の登録状況照会レスポンス。
// 存在有無と検証状態のみを返し、個人情報は含めない。
type statutResponse struct {
	Inscrit   bool `json:"inscrit"`
	EstValide bool `json:"estValide"`
}

// connexionResponse はセッションコード認証成功時のレスポンス。
type connexionResponse struct {
	Candidat candidatResponse `json:"candidat"`
}

// inscriptionResponse は登録成功時のレスポンス。
// 登録は管理者の検証待ちで確定するため、validationRequiseを常に返す。
type inscriptionResponse struct {
	Candidat          candidatResponse `json:"candidat"`
	ValidationRequise bool             `json:"validationRequise"`
}

// candidatsResponse は候補者一覧のレスポンス。
type candidatsResponse struct {
	Candidats []candidatResponse `json:"candidats"`
}

// Inscrire は候補者登録を処理する。
// POST /candidats/inscription
func (h *CandidatHandler) Inscrire(w http.ResponseWriter, r *http.Request) {
	var req candidat.InscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.Inscrire(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordInscription()
	}
	writeJSON(w, http.StatusOK, inscriptionResponse{
		Candidat:          toCandidatResponse(c),
		ValidationRequise: true,
	})
}

// Rechercher は氏名または学校名で候補者を検索する。
// GET /candidats/search?term=...
func (h *CandidatHandler) Rechercher(w http.ResponseWriter, r *http.Request) {
	candidats, err := h.service.Rechercher(r.Context(), r.URL.Query().Get("term"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidatsResponse{Candidats: toCandidatResponses(candidats)})
}

// Statut は登録状況を照会する。
// GET /candidats/statut?email=...
func (h *CandidatHandler) Statut(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("le paramètre email est obligatoire"))
		return
	}

	c, err := h.service.StatutParEmail(r.Context(), email)
	if err != nil {
		// 未登録のメールアドレスは404ではなくinscrit=falseとして返す
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeCandidatIntrouvable {
			writeJSON(w, http.StatusOK, statutResponse{})
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statutResponse{
		Inscrit:   true,
		EstValide: c.EstValide,
	})
}

// Connexion はセッションコードで候補者を認証する。
// POST /candidats/connexion
func (h *CandidatHandler) Connexion(w http.ResponseWriter, r *http.Request) {
	var req connexionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.Connexion(r.Context(), req.CodeSession)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connexionResponse{Candidat: toCandidatResponse(c)})
}

// Lister は候補者一覧を返す。
// GET /admin/candidats?valide=true|false&q=...
func (h *CandidatHandler) Lister(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		candidats, err := h.service.Rechercher(r.Context(), q)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, candidatsResponse{Candidats: toCandidatResponses(candidats)})
		return
	}

	var estValide *bool
	switch r.URL.Query().Get("valide") {
	case "true":
		v := true
		estValide = &v
	case "false":
		v := false
		estValide = &v
	}

	candidats, err := h.service.Lister(r.Context(), estValide)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidatsResponse{Candidats: toCandidatResponses(candidats)})
}

// EnAttente は検証待ちの候補者一覧を返す。
// GET /admin/candidats/en-attente
func (h *CandidatHandler) EnAttente(w http.ResponseWriter, r *http.Request) {
	enAttente := false
	candidats, err := h.service.Lister(r.Context(), &enAttente)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidatsResponse{Candidats: toCandidatResponses(candidats)})
}

// Get は候補者詳細を返す。
// GET /admin/candidats/{id}
func (h *CandidatHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidatResponse(c))
}

// Valider は登録を検証してコードを発行する。
// POST /admin/candidats/{id}/valider
func (h *CandidatHandler) Valider(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Valider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordValidation()
	}
	writeJSON(w, http.StatusOK, toCandidatResponse(c))
}

// Rejeter は未検証の登録を削除する。
// POST /admin/candidats/{id}/rejeter
func (h *CandidatHandler) Rejeter(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Rejeter(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenvoyerCode は発行済みコードを再送する。
// POST /admin/candidats/{id}/envoyer-code
func (h *CandidatHandler) RenvoyerCode(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RenvoyerCode(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toCandidatResponse はmodel.CandidatからAPIレスポンスに変換する。
func toCandidatResponse(c *model.Candidat) candidatResponse {
	return candidatResponse{
		ID:        c.ID,
		Nom:       c.Nom,
		Prenom:    c.Prenom,
		Ecole:     c.Ecole,
		Filiere:   c.Filiere,
		Email:     c.Email,
		Gsm:       c.Gsm,
		EstValide: c.EstValide,
		CreneauID: c.CreneauID,
		CreatedAt: c.CreatedAt,
	}
}

func toCandidatResponses(candidats []*model.Candidat) []candidatResponse {
	out := make([]candidatResponse, 0, len(candidats))
	for _, c := range candidats {
		out = append(out, toCandidatResponse(c))
	}
	return out
}
