package resultat

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// --- モック ---

type mockSessionRepo struct {
	scoringRows      []repository.ScoringRow
	session          *model.SessionTest
	completedBetween []*model.SessionAvecCandidat
	allWithCandidat  []*model.SessionAvecCandidat

	setScoresFn func(ctx context.Context, sessionID string, total, max, pourcentage int) error
}

func (m *mockSessionRepo) CreateWithQuestions(ctx context.Context, s *model.SessionTest, qs []model.SessionQuestion) error {
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.SessionTest, error) {
	return m.session, nil
}
func (m *mockSessionRepo) FindActive(ctx context.Context, candidatID, creneauID string) (*model.SessionTest, error) {
	return nil, nil
}
func (m *mockSessionRepo) HasCompleted(ctx context.Context, candidatID, creneauID string) (bool, error) {
	return false, nil
}
func (m *mockSessionRepo) ListByCandidat(ctx context.Context, candidatID string) ([]*model.SessionTest, error) {
	return nil, nil
}
func (m *mockSessionRepo) ListAllWithCandidat(ctx context.Context) ([]*model.SessionAvecCandidat, error) {
	return m.allWithCandidat, nil
}
func (m *mockSessionRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*model.SessionAvecCandidat, error) {
	return m.completedBetween, nil
}
func (m *mockSessionRepo) ListQuestions(ctx context.Context, sessionID string) ([]model.SessionQuestion, error) {
	return nil, nil
}
func (m *mockSessionRepo) ListReponses(ctx context.Context, sessionID string) ([]model.ReponseCandidat, error) {
	return nil, nil
}
func (m *mockSessionRepo) FindSessionQuestion(ctx context.Context, sessionID, questionID string) (*model.SessionQuestion, error) {
	return nil, nil
}
func (m *mockSessionRepo) UpsertReponse(ctx context.Context, sqID string, choix []string) error {
	return nil
}
func (m *mockSessionRepo) ClaimCompletion(ctx context.Context, sessionID string, enforceDeadline bool) (bool, error) {
	return true, nil
}
func (m *mockSessionRepo) SetScores(ctx context.Context, sessionID string, total, max, pourcentage int) error {
	if m.setScoresFn != nil {
		return m.setScoresFn(ctx, sessionID, total, max, pourcentage)
	}
	return nil
}
func (m *mockSessionRepo) ListScoringRows(ctx context.Context, sessionID string) ([]repository.ScoringRow, error) {
	return m.scoringRows, nil
}
func (m *mockSessionRepo) ListExpiredIDs(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

// --- テスト ---

// 完全一致採点を検証する。部分一致・過剰選択・未回答は得点しない。
func TestService_Finalize_ExactSetScoring(t *testing.T) {
	rows := []repository.ScoringRow{
		// 完全一致 → 1点
		{ThemeID: "t1", NomTheme: "Logique", CorrectIDs: []string{"a", "b"}, ChoixIDs: []string{"b", "a"}, Repondu: true},
		// 部分一致 → 0点
		{ThemeID: "t1", NomTheme: "Logique", CorrectIDs: []string{"a", "b"}, ChoixIDs: []string{"a"}, Repondu: true},
		// 過剰選択 → 0点
		{ThemeID: "t2", NomTheme: "Algo", CorrectIDs: []string{"c"}, ChoixIDs: []string{"c", "d"}, Repondu: true},
		// 未回答 → 0点
		{ThemeID: "t2", NomTheme: "Algo", CorrectIDs: []string{"e"}, Repondu: false},
		// 単一選択の正解 → 1点
		{ThemeID: "t2", NomTheme: "Algo", CorrectIDs: []string{"f"}, ChoixIDs: []string{"f"}, Repondu: true},
	}

	var gotTotal, gotMax, gotPct int
	repo := &mockSessionRepo{
		scoringRows: rows,
		session:     &model.SessionTest{ID: "session-1", EstTermine: true},
		setScoresFn: func(_ context.Context, _ string, total, max, pourcentage int) error {
			gotTotal, gotMax, gotPct = total, max, pourcentage
			return nil
		},
	}

	s := NewService(repo)
	_, themes, err := s.Finalize(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTotal != 2 || gotMax != 5 {
		t.Errorf("score = %d/%d, want 2/5", gotTotal, gotMax)
	}
	if gotPct != 40 {
		t.Errorf("pourcentage = %d, want 40", gotPct)
	}

	if len(themes) != 2 {
		t.Fatalf("len(themes) = %d, want 2", len(themes))
	}
	// テーマは名前順
	if themes[0].NomTheme != "Algo" || themes[0].ScoreObtenu != 1 || themes[0].ScoreMax != 3 {
		t.Errorf("Algo = %+v", themes[0])
	}
	if themes[1].NomTheme != "Logique" || themes[1].ScoreObtenu != 1 || themes[1].ScoreMax != 2 {
		t.Errorf("Logique = %+v", themes[1])
	}
}

// 出題0問のセッションでスコアと百分率が0になることを検証する。
func TestService_Finalize_EmptySession(t *testing.T) {
	var gotPct int
	repo := &mockSessionRepo{
		session: &model.SessionTest{ID: "session-1", EstTermine: true},
		setScoresFn: func(_ context.Context, _ string, _, _, pourcentage int) error {
			gotPct = pourcentage
			return nil
		},
	}

	s := NewService(repo)
	_, themes, err := s.Finalize(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPct != 0 {
		t.Errorf("pourcentage = %d, want 0 when max is 0", gotPct)
	}
	if len(themes) != 0 {
		t.Errorf("themes = %v", themes)
	}
}

// 正解の無い質問が得点しないことを検証する。
func TestEstCorrecte_NoCorrectAnswers(t *testing.T) {
	row := repository.ScoringRow{Repondu: true, ChoixIDs: []string{"a"}}
	if estCorrecte(row) {
		t.Error("a question without correct answers should never score")
	}
}

// CSVエクスポートのヘッダと行内容を検証する。
func TestService_ExporterCSV(t *testing.T) {
	debut := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	repo := &mockSessionRepo{
		completedBetween: []*model.SessionAvecCandidat{
			{
				SessionTest: model.SessionTest{
					DateDebut: debut, EstTermine: true,
					ScoreTotal: 8, ScoreMax: 10, Pourcentage: 80,
				},
				NomCandidat:    "El Amrani",
				PrenomCandidat: "Yasmine",
				Ecole:          "ENSIAS",
				Filiere:        "GL",
				Email:          "yasmine@example.com",
				CodeSession:    "AB12CD34",
			},
		},
	}

	var buf bytes.Buffer
	s := NewService(repo)
	err := s.ExporterCSV(context.Background(), &buf, debut.AddDate(0, 0, -1), debut.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0] != "Nom,Prenom,Ecole,Filiere,Email,Date Test,Score,Score Max,Pourcentage,Code Session" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "El Amrani,Yasmine,ENSIAS,GL,yasmine@example.com,2026-08-20 10:30,8,10,80,AB12CD34") {
		t.Errorf("row = %q", lines[1])
	}
}

// 概況集計が終了済みセッションのみで平均を取ることを検証する。
func TestService_Stats(t *testing.T) {
	repo := &mockSessionRepo{
		allWithCandidat: []*model.SessionAvecCandidat{
			{SessionTest: model.SessionTest{EstTermine: true, Pourcentage: 80}},
			{SessionTest: model.SessionTest{EstTermine: true, Pourcentage: 60}},
			{SessionTest: model.SessionTest{EstTermine: false}},
		},
	}

	s := NewService(repo)
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalSessions != 3 || stats.SessionsTerminees != 2 || stats.SessionsEnCours != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.MoyennePourcent != 70 {
		t.Errorf("MoyennePourcent = %d, want 70", stats.MoyennePourcent)
	}
}

// Pourcentageの四捨五入を検証する。
func TestPourcentage_Rounding(t *testing.T) {
	cases := []struct {
		total, max, want int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{10, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
	}
	for _, tc := range cases {
		if got := model.Pourcentage(tc.total, tc.max); got != tc.want {
			t.Errorf("Pourcentage(%d, %d) = %d, want %d", tc.total, tc.max, got, tc.want)
		}
	}
}
