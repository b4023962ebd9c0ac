// Package resultat はセッションの採点と結果集計を提供する。
package resultat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// Service は結果集計のサービス層。
// 採点は完全一致方式で、部分点は与えない。
type Service struct {
	sessionRepo repository.SessionTestRepository
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(sessionRepo repository.SessionTestRepository) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// Finalize は終了済みセッションのスコアを計算して保存する。
// 1問1点で、選択集合が正解集合と完全一致した場合のみ得点する。
func (s *Service) Finalize(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error) {
	total, max, themes, err := s.score(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	pourcentage := model.Pourcentage(total, max)
	if err := s.sessionRepo.SetScores(ctx, sessionID, total, max, pourcentage); err != nil {
		return nil, nil, fmt.Errorf("スコアの保存に失敗しました: %w", err)
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの再取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, nil, model.NewSessionIntrouvableError(sessionID)
	}

	slog.Info("セッションを採点しました",
		slog.String("session_id", sessionID),
		slog.Int("score_total", total),
		slog.Int("score_max", max),
		slog.Int("pourcentage", pourcentage),
	)
	return session, themes, nil
}

// score は採点行からスコア合計とテーマ別内訳を計算する。
func (s *Service) score(ctx context.Context, sessionID string) (int, int, []model.ResultatTheme, error) {
	rows, err := s.sessionRepo.ListScoringRows(ctx, sessionID)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("採点行の取得に失敗しました: %w", err)
	}

	total := 0
	parTheme := make(map[string]*model.ResultatTheme)
	var themeOrder []string

	for _, row := range rows {
		rt, ok := parTheme[row.ThemeID]
		if !ok {
			rt = &model.ResultatTheme{ThemeID: row.ThemeID, NomTheme: row.NomTheme}
			parTheme[row.ThemeID] = rt
			themeOrder = append(themeOrder, row.ThemeID)
		}
		rt.ScoreMax++

		if estCorrecte(row) {
			total++
			rt.ScoreObtenu++
		}
	}

	themes := make([]model.ResultatTheme, 0, len(themeOrder))
	for _, themeID := range themeOrder {
		rt := parTheme[themeID]
		rt.Pourcentage = model.Pourcentage(rt.ScoreObtenu, rt.ScoreMax)
		themes = append(themes, *rt)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].NomTheme < themes[j].NomTheme })

	return total, len(rows), themes, nil
}

// estCorrecte は選択集合が正解集合と完全一致するかを判定する。
// 未回答と正解の無い質問は得点しない。
func estCorrecte(row repository.ScoringRow) bool {
	if !row.Repondu || len(row.CorrectIDs) == 0 {
		return false
	}
	if len(row.ChoixIDs) != len(row.CorrectIDs) {
		return false
	}
	correct := make(map[string]bool, len(row.CorrectIDs))
	for _, id := range row.CorrectIDs {
		correct[id] = true
	}
	for _, id := range row.ChoixIDs {
		if !correct[id] {
			return false
		}
	}
	return true
}

// Detail はセッションの確定スコアとテーマ別内訳を返す。
func (s *Service) Detail(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, nil, model.NewSessionIntrouvableError(sessionID)
	}

	_, _, themes, err := s.score(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, themes, nil
}

// ListerPourCandidat は候補者のセッション一覧を返す。
func (s *Service) ListerPourCandidat(ctx context.Context, candidatID string) ([]*model.SessionTest, error) {
	return s.sessionRepo.ListByCandidat(ctx, candidatID)
}

// ListerSessions は全セッションを候補者情報付きで返す（管理者向け）。
func (s *Service) ListerSessions(ctx context.Context) ([]*model.SessionAvecCandidat, error) {
	return s.sessionRepo.ListAllWithCandidat(ctx)
}

// StatsOverview は結果の概況を表す。
type StatsOverview struct {
	TotalSessions     int `json:"totalSessions"`
	SessionsTerminees int `json:"sessionsTerminees"`
	SessionsEnCours   int `json:"sessionsEnCours"`
	MoyennePourcent   int `json:"moyennePourcent"`
}

// Stats は全セッションから概況を集計する。
// 平均は終了済みセッションのみを対象にする。
func (s *Service) Stats(ctx context.Context) (*StatsOverview, error) {
	sessions, err := s.sessionRepo.ListAllWithCandidat(ctx)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧の取得に失敗しました: %w", err)
	}

	stats := &StatsOverview{TotalSessions: len(sessions)}
	sum := 0
	for _, session := range sessions {
		if session.EstTermine {
			stats.SessionsTerminees++
			sum += session.Pourcentage
		} else {
			stats.SessionsEnCours++
		}
	}
	if stats.SessionsTerminees > 0 {
		stats.MoyennePourcent = int(float64(sum)/float64(stats.SessionsTerminees) + 0.5)
	}
	return stats, nil
}
