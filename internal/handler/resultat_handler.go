package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/middleware"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/resultat"
)

// ResultatServiceInterface は結果ハンドラーが必要とするサービスインターフェース。
type ResultatServiceInterface interface {
	// Detail はセッションの採点結果をテーマ別内訳付きで返す。
	Detail(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error)
	// ListerPourCandidat は候補者のセッション一覧を返す。
	ListerPourCandidat(ctx context.Context, candidatID string) ([]*model.SessionTest, error)
	// ListerSessions は全セッションを候補者情報付きで返す。
	ListerSessions(ctx context.Context) ([]*model.SessionAvecCandidat, error)
	// Stats はプラットフォーム全体の集計を返す。
	Stats(ctx context.Context) (*resultat.StatsOverview, error)
	// ExporterCSV は期間内の終了セッションをCSV形式で書き出す。
	ExporterCSV(ctx context.Context, w io.Writer, from, to time.Time) error
}

// ResultatHandler は採点結果のHTTPハンドラー。
type ResultatHandler struct {
	service ResultatServiceInterface
}

// NewResultatHandler はResultatHandlerを生成する。
func NewResultatHandler(service ResultatServiceInterface) *ResultatHandler {
	return &ResultatHandler{service: service}
}

// sessionAvecCandidatResponse は管理者向けセッション一覧のAPIレスポンス。
type sessionAvecCandidatResponse struct {
	sessionResponse
	NomCandidat    string `json:"nomCandidat"`
	PrenomCandidat string `json:"prenomCandidat"`
	Ecole          string `json:"ecole"`
	Filiere        string `json:"filiere,omitempty"`
	Email          string `json:"email"`
	CodeSession    string `json:"codeSession"`
}

// statsResponse はプラットフォーム集計のAPIレスポンス。
type statsResponse struct {
	TotalSessions     int `json:"totalSessions"`
	SessionsTerminees int `json:"sessionsTerminees"`
	SessionsEnCours   int `json:"sessionsEnCours"`
	MoyennePourcent   int `json:"moyennePourcent"`
}

// sessionsAdminResponse は管理者向けセッション一覧のレスポンス。
type sessionsAdminResponse struct {
	Sessions []sessionAvecCandidatResponse `json:"sessions"`
}

// sessionsResponse は候補者向けセッション一覧のレスポンス。
type sessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

// exportRequest はCSVエクスポートの対象期間。両方とも省略可能。
type exportRequest struct {
	DateDebut string `json:"dateDebut"`
	DateFin   string `json:"dateFin"`
}

// Lister は全セッション一覧を候補者情報付きで返す。
// GET /admin/resultats/sessions
func (h *ResultatHandler) Lister(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListerSessions(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]sessionAvecCandidatResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionAvecCandidatResponse{
			sessionResponse: toSessionResponse(&s.SessionTest),
			NomCandidat:     s.NomCandidat,
			PrenomCandidat:  s.PrenomCandidat,
			Ecole:           s.Ecole,
			Filiere:         s.Filiere,
			Email:           s.Email,
			CodeSession:     s.CodeSession,
		})
	}
	writeJSON(w, http.StatusOK, sessionsAdminResponse{Sessions: out})
}

// Detail はセッションの採点結果をテーマ別内訳付きで返す。
// GET /resultats/session/{id}
func (h *ResultatHandler) Detail(w http.ResponseWriter, r *http.Request) {
	session, parThemes, err := h.service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultatResponse(session, parThemes))
}

// ListerPourCandidat は候補者のセッション一覧を新しい順で返す。
// GET /resultats/candidat/{id}
func (h *ResultatHandler) ListerPourCandidat(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListerPourCandidat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: out})
}

// Stats はプラットフォーム全体の集計を返す。
// GET /admin/stats
func (h *ResultatHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalSessions:     stats.TotalSessions,
		SessionsTerminees: stats.SessionsTerminees,
		SessionsEnCours:   stats.SessionsEnCours,
		MoyennePourcent:   stats.MoyennePourcent,
	})
}

// ExporterCSV は期間内の終了セッションをCSVでダウンロードさせる。
// POST /admin/resultats/export body {dateDebut?, dateFin?}
func (h *ResultatHandler) ExporterCSV(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	from, to, err := parsePeriode(req)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=resultats_%s_%s.csv",
			from.Format(time.DateOnly), to.Format(time.DateOnly)))

	if err := h.service.ExporterCSV(r.Context(), w, from, to); err != nil {
		// ヘッダー送信後はステータスを変更できないためログのみ
		handleServiceError(w, err)
		return
	}
}

// parsePeriode はエクスポート対象期間を解析する。
// 省略時は過去30日間を対象とし、dateFinの終端はその日の終わりまで含める。
func parsePeriode(req exportRequest) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if req.DateDebut != "" {
		parsed, err := time.Parse(time.DateOnly, req.DateDebut)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("dateDebut doit être au format AAAA-MM-JJ : %s", req.DateDebut)
		}
		from = parsed
	}
	if req.DateFin != "" {
		parsed, err := time.Parse(time.DateOnly, req.DateFin)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("dateFin doit être au format AAAA-MM-JJ : %s", req.DateFin)
		}
		to = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("la date de fin est antérieure à la date de début")
	}
	return from, to, nil
}
