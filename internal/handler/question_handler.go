package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/question"
)

// QuestionServiceInterface は質問バンクハンドラーが必要とするサービスインターフェース。
type QuestionServiceInterface interface {
	// Lister は全質問を選択肢付きで返す。
	Lister(ctx context.Context) ([]*model.Question, error)
	// FindByID は質問を1件取得する。
	FindByID(ctx context.Context, id string) (*model.Question, error)
	// Creer は質問を選択肢付きで作成する。
	Creer(ctx context.Context, req question.QuestionRequest) (*model.Question, error)
	// Modifier は質問と選択肢を置き換える。
	Modifier(ctx context.Context, id string, req question.QuestionRequest) (*model.Question, error)
	// Supprimer はセッションから参照されていない質問を削除する。
	Supprimer(ctx context.Context, id string) error
	// ListerThemes は全テーマを返す。
	ListerThemes(ctx context.Context) ([]*model.Theme, error)
	// ListerTypes は全質問形式を返す。
	ListerTypes(ctx context.Context) ([]*model.TypeQuestion, error)
	// ListerParametres はテスト生成パラメータを返す。
	ListerParametres(ctx context.Context) ([]*model.Parametre, error)
	// ModifierParametre はテスト生成パラメータを更新する。
	ModifierParametre(ctx context.Context, nom, valeur string) error
}

// QuestionHandler は質問バンク管理のHTTPハンドラー。
type QuestionHandler struct {
	service QuestionServiceInterface
}

// NewQuestionHandler はQuestionHandlerを生成する。
func NewQuestionHandler(service QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{service: service}
}

// reponsePossibleResponse は選択肢のAPIレスポンス（管理者向け、正解フラグ付き）。
type reponsePossibleResponse struct {
	ID         string `json:"id"`
	Libelle    string `json:"libelle"`
	EstCorrect bool   `json:"estCorrect"`
	Ordre      int    `json:"ordre"`
}

// questionResponse は質問のAPIレスポンス（管理者向け）。
type questionResponse struct {
	ID             string                    `json:"id"`
	ThemeID        string                    `json:"themeId"`
	TypeQuestionID string                    `json:"typeQuestionId"`
	Libelle        string                    `json:"libelle"`
	Explication    string                    `json:"explication,omitempty"`
	Reponses       []reponsePossibleResponse `json:"reponses"`
}

// themeResponse はテーマのAPIレスポンス。
type themeResponse struct {
	ID          string `json:"id"`
	Nom         string `json:"nom"`
	Description string `json:"description,omitempty"`
}

// typeQuestionResponse は質問形式のAPIレスポンス。
type typeQuestionResponse struct {
	ID          string `json:"id"`
	Nom         string `json:"nom"`
	Description string `json:"description,omitempty"`
}

// parametreResponse はテスト生成パラメータのAPIレスポンス。
type parametreResponse struct {
	Nom    string `json:"nom"`
	Valeur string `json:"valeur"`
}

// modifierParametreRequest はパラメータ更新リクエストのボディ。
type modifierParametreRequest struct {
	Valeur string `json:"valeur"`
}

// Lister は全質問一覧を返す。
// GET /admin/questions
func (h *QuestionHandler) Lister(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Lister(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionResponse(q))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は質問詳細を返す。
// GET /admin/questions/{id}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// Creer は質問を作成する。
// POST /admin/questions
func (h *QuestionHandler) Creer(w http.ResponseWriter, r *http.Request) {
	var req question.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	q, err := h.service.Creer(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// Modifier は質問を更新する。
// PUT /admin/questions/{id}
func (h *QuestionHandler) Modifier(w http.ResponseWriter, r *http.Request) {
	var req question.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	q, err := h.service.Modifier(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// Supprimer は質問を削除する。
// DELETE /admin/questions/{id}
func (h *QuestionHandler) Supprimer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Supprimer(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListerThemes は全テーマ一覧を返す。
// GET /admin/themes
func (h *QuestionHandler) ListerThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.ListerThemes(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]themeResponse, 0, len(themes))
	for _, t := range themes {
		out = append(out, themeResponse{ID: t.ID, Nom: t.Nom, Description: t.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListerTypes は全質問形式一覧を返す。
// GET /admin/types-questions
func (h *QuestionHandler) ListerTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListerTypes(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]typeQuestionResponse, 0, len(types))
	for _, t := range types {
		out = append(out, typeQuestionResponse{ID: t.ID, Nom: t.Nom, Description: t.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListerParametres はテスト生成パラメータ一覧を返す。
// GET /admin/parametres
func (h *QuestionHandler) ListerParametres(w http.ResponseWriter, r *http.Request) {
	parametres, err := h.service.ListerParametres(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]parametreResponse, 0, len(parametres))
	for _, p := range parametres {
		out = append(out, parametreResponse{Nom: p.Nom, Valeur: p.Valeur})
	}
	writeJSON(w, http.StatusOK, out)
}

// ModifierParametre はテスト生成パラメータを更新する。
// PUT /admin/parametres/{nom}
func (h *QuestionHandler) ModifierParametre(w http.ResponseWriter, r *http.Request) {
	var req modifierParametreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	nom := chi.URLParam(r, "nom")
	if err := h.service.ModifierParametre(r.Context(), nom, req.Valeur); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parametreResponse{Nom: nom, Valeur: req.Valeur})
}

// --- ヘルパー関数 ---

func toQuestionResponse(q *model.Question) questionResponse {
	reponses := make([]reponsePossibleResponse, 0, len(q.ReponsesPossibles))
	for _, rp := range q.ReponsesPossibles {
		reponses = append(reponses, reponsePossibleResponse{
			ID:         rp.ID,
			Libelle:    rp.Libelle,
			EstCorrect: rp.EstCorrect,
			Ordre:      rp.Ordre,
		})
	}
	return questionResponse{
		ID:             q.ID,
		ThemeID:        q.ThemeID,
		TypeQuestionID: q.TypeQuestionID,
		Libelle:        q.Libelle,
		Explication:    q.Explication,
		Reponses:       reponses,
	}
}
