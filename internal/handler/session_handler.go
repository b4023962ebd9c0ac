package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/testsession"
)

// SessionServiceInterface は受験セッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// Demarrer は受験セッションを開始するか、未終了セッションを再開する。
	Demarrer(ctx context.Context, candidatID string) (*model.SessionTest, error)
	// QuestionsDeSession はセッションの出題一覧を回答付きで返す。
	QuestionsDeSession(ctx context.Context, sessionID string) ([]testsession.QuestionPosee, error)
	// EnregistrerReponse は1問の回答を保存する。再提出は上書きされる。
	EnregistrerReponse(ctx context.Context, sessionID, questionID string, choix []string) error
	// Terminer はセッションを終了して採点を確定する。
	Terminer(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error)
	// TempsRestant は締切までの残り秒数を返す。
	TempsRestant(ctx context.Context, sessionID string) (int, error)
}

// SessionMetrics は受験セッション操作の計測インターフェース。
type SessionMetrics interface {
	RecordSessionDemarree()
	RecordSessionTerminee(pourcentage int)
}

// SessionHandler は受験セッションのHTTPハンドラー。
type SessionHandler struct {
	service   SessionServiceInterface
	collector SessionMetrics
}

// NewSessionHandler はSessionHandlerを生成する。collectorはnilでもよい。
func NewSessionHandler(service SessionServiceInterface, collector SessionMetrics) *SessionHandler {
	return &SessionHandler{
		service:   service,
		collector: collector,
	}
}

// demarrerRequest はセッション開始リクエストのボディ。
type demarrerRequest struct {
	CandidatID string `json:"candidatId"`
}

// reponseRequest は回答提出リクエストのボディ。
type reponseRequest struct {
	QuestionID string   `json:"questionId"`
	Reponses   []string `json:"reponses"`
}

// sessionResponse はセッション情報のAPIレスポンス。
type sessionResponse struct {
	ID          string     `json:"id"`
	CandidatID  string     `json:"candidatId"`
	DateDebut   time.Time  `json:"dateDebut"`
	DateLimite  time.Time  `json:"dateLimite"`
	DateFin     *time.Time `json:"dateFin,omitempty"`
	EstTermine  bool       `json:"estTermine"`
	ScoreTotal  int        `json:"scoreTotal"`
	ScoreMax    int        `json:"scoreMax"`
	Pourcentage int        `json:"pourcentage"`
}

// choixResponse は選択肢のAPIレスポンス。
// 受験中の候補者にはestCorrectを決して返さない。
type choixResponse struct {
	ID      string `json:"id"`
	Libelle string `json:"libelle"`
	Ordre   int    `json:"ordre"`
}

// questionPoseeResponse はセッション内の1問のAPIレスポンス。
type questionPoseeResponse struct {
	QuestionID     string          `json:"questionId"`
	Libelle        string          `json:"libelle"`
	OrdreAffichage int             `json:"ordreAffichage"`
	TempsAlloueSec int             `json:"tempsAlloueSec"`
	Choix          []choixResponse `json:"choix"`
	ChoixSelection []string        `json:"choixSelectionnes"`
}

// resultatThemeResponse はテーマごとのスコア内訳のAPIレスポンス。
type resultatThemeResponse struct {
	ThemeID     string `json:"themeId"`
	NomTheme    string `json:"nomTheme"`
	ScoreObtenu int    `json:"scoreObtenu"`
	ScoreMax    int    `json:"scoreMax"`
	Pourcentage int    `json:"pourcentage"`
}

// resultatResponse は終了したセッションの採点結果レスポンス。
type resultatResponse struct {
	Session   sessionResponse         `json:"session"`
	ParThemes []resultatThemeResponse `json:"parThemes"`
}

// tempsRestantResponse は残り時間のレスポンス。
type tempsRestantResponse struct {
	Secondes int `json:"secondes"`
}

// Demarrer は受験セッションを開始する。
// POST /tests/demarrer
func (h *SessionHandler) Demarrer(w http.ResponseWriter, r *http.Request) {
	var req demarrerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	session, err := h.service.Demarrer(r.Context(), req.CandidatID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordSessionDemarree()
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// questionsPoseesResponse はセッションの出題一覧レスポンス。
type questionsPoseesResponse struct {
	Questions []questionPoseeResponse `json:"questions"`
}

// Questions はセッションの出題一覧を返す。
// GET /tests/sessions/{id}/questions
func (h *SessionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	posees, err := h.service.QuestionsDeSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]questionPoseeResponse, 0, len(posees))
	for _, p := range posees {
		out = append(out, toQuestionPoseeResponse(p))
	}
	writeJSON(w, http.StatusOK, questionsPoseesResponse{Questions: out})
}

// Repondre は1問の回答を保存する。再提出は上書きされる。
// POST /tests/sessions/{id}/reponses
func (h *SessionHandler) Repondre(w http.ResponseWriter, r *http.Request) {
	var req reponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	sessionID := chi.URLParam(r, "id")

	if err := h.service.EnregistrerReponse(r.Context(), sessionID, req.QuestionID, req.Reponses); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Terminer はセッションを終了して採点結果を返す。
// POST /tests/sessions/{id}/terminer
func (h *SessionHandler) Terminer(w http.ResponseWriter, r *http.Request) {
	session, parThemes, err := h.service.Terminer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordSessionTerminee(session.Pourcentage)
	}
	writeJSON(w, http.StatusOK, toResultatResponse(session, parThemes))
}

// TempsRestant は締切までの残り秒数を返す。
// GET /tests/sessions/{id}/temps-restant
func (h *SessionHandler) TempsRestant(w http.ResponseWriter, r *http.Request) {
	secondes, err := h.service.TempsRestant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tempsRestantResponse{Secondes: secondes})
}

// --- ヘルパー関数 ---

func toSessionResponse(s *model.SessionTest) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		CandidatID:  s.CandidatID,
		DateDebut:   s.DateDebut,
		DateLimite:  s.DateLimite,
		DateFin:     s.DateFin,
		EstTermine:  s.EstTermine,
		ScoreTotal:  s.ScoreTotal,
		ScoreMax:    s.ScoreMax,
		Pourcentage: s.Pourcentage,
	}
}

func toQuestionPoseeResponse(p testsession.QuestionPosee) questionPoseeResponse {
	choix := make([]choixResponse, 0, len(p.Question.ReponsesPossibles))
	for _, rp := range p.Question.ReponsesPossibles {
		choix = append(choix, choixResponse{
			ID:      rp.ID,
			Libelle: rp.Libelle,
			Ordre:   rp.Ordre,
		})
	}

	selection := []string{}
	if p.Reponse != nil {
		selection = p.Reponse.ReponsesChoisies
	}

	return questionPoseeResponse{
		QuestionID:     p.Question.ID,
		Libelle:        p.Question.Libelle,
		OrdreAffichage: p.SessionQuestion.OrdreAffichage,
		TempsAlloueSec: p.SessionQuestion.TempsAlloueSec,
		Choix:          choix,
		ChoixSelection: selection,
	}
}

func toResultatResponse(s *model.SessionTest, parThemes []model.ResultatTheme) resultatResponse {
	themes := make([]resultatThemeResponse, 0, len(parThemes))
	for _, rt := range parThemes {
		themes = append(themes, resultatThemeResponse{
			ThemeID:     rt.ThemeID,
			NomTheme:    rt.NomTheme,
			ScoreObtenu: rt.ScoreObtenu,
			ScoreMax:    rt.ScoreMax,
			Pourcentage: rt.Pourcentage,
		})
	}
	return resultatResponse{
		Session:   toSessionResponse(s),
		ParThemes: themes,
	}
}
