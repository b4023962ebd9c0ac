package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/creneau"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// CreneauServiceInterface は受験枠ハンドラーが必要とするサービスインターフェース。
type CreneauServiceInterface interface {
	// ListerDisponibles は席が残っている今日以降の受験枠を返す。
	ListerDisponibles(ctx context.Context) ([]*model.CreneauHoraire, error)
	// ListerTous は全受験枠を返す。
	ListerTous(ctx context.Context) ([]*model.CreneauHoraire, error)
	// FindByID は受験枠を1件取得する。
	FindByID(ctx context.Context, id string) (*model.CreneauHoraire, error)
	// Creer は受験枠を作成する。
	Creer(ctx context.Context, req creneau.CreneauRequest) (*model.CreneauHoraire, error)
	// Modifier は受験枠を更新する。消費済みの席数は保持される。
	Modifier(ctx context.Context, id string, req creneau.CreneauRequest) (*model.CreneauHoraire, error)
	// Supprimer は参照されていない受験枠を削除する。
	Supprimer(ctx context.Context, id string) error
}

// CreneauHandler は受験枠管理のHTTPハンドラー。
type CreneauHandler struct {
	service CreneauServiceInterface
}

// NewCreneauHandler はCreneauHandlerを生成する。
func NewCreneauHandler(service CreneauServiceInterface) *CreneauHandler {
	return &CreneauHandler{service: service}
}

// creneauResponse は受験枠情報のAPIレスポンス。
// heureFinは開始時刻と所要時間から導出される。
type creneauResponse struct {
	ID              string `json:"id"`
	DateExam        string `json:"dateExam"`
	HeureDebut      string `json:"heureDebut"`
	HeureFin        string `json:"heureFin"`
	DureeMinutes    int    `json:"dureeMinutes"`
	PlacesTotales   int    `json:"placesTotales"`
	PlacesRestantes int    `json:"placesRestantes"`
}

// creneauxResponse は受験枠一覧のレスポンス。
type creneauxResponse struct {
	Creneaux []creneauResponse `json:"creneaux"`
}

// ListerDisponibles は予約可能な受験枠一覧を返す。
// GET /creneaux/disponibles
func (h *CreneauHandler) ListerDisponibles(w http.ResponseWriter, r *http.Request) {
	creneaux, err := h.service.ListerDisponibles(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creneauxResponse{Creneaux: toCreneauResponses(creneaux)})
}

// ListerTous は全受験枠一覧を返す。
// GET /admin/creneaux
func (h *CreneauHandler) ListerTous(w http.ResponseWriter, r *http.Request) {
	creneaux, err := h.service.ListerTous(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creneauxResponse{Creneaux: toCreneauResponses(creneaux)})
}

// Get は受験枠詳細を返す。
// GET /admin/creneaux/{id}
func (h *CreneauHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCreneauResponse(c))
}

// Creer は受験枠を作成する。
// POST /admin/creneaux
func (h *CreneauHandler) Creer(w http.ResponseWriter, r *http.Request) {
	var req creneau.CreneauRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.Creer(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCreneauResponse(c))
}

// Modifier は受験枠を更新する。
// PUT /admin/creneaux/{id}
func (h *CreneauHandler) Modifier(w http.ResponseWriter, r *http.Request) {
	var req creneau.CreneauRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.Modifier(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCreneauResponse(c))
}

// Supprimer は受験枠を削除する。
// DELETE /admin/creneaux/{id}
func (h *CreneauHandler) Supprimer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Supprimer(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func toCreneauResponse(c *model.CreneauHoraire) creneauResponse {
	return creneauResponse{
		ID:              c.ID,
		DateExam:        c.DateExam.Format(time.DateOnly),
		HeureDebut:      c.HeureDebut,
		HeureFin:        c.HeureFin(),
		DureeMinutes:    c.DureeMinutes,
		PlacesTotales:   c.PlacesTotales,
		PlacesRestantes: c.PlacesRestantes,
	}
}

func toCreneauResponses(creneaux []*model.CreneauHoraire) []creneauResponse {
	out := make([]creneauResponse, 0, len(creneaux))
	for _, c := range creneaux {
		out = append(out, toCreneauResponse(c))
	}
	return out
}
