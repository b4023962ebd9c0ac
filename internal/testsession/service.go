// Package testsession は受験セッションのライフサイクルを管理する。
package testsession

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// Scorer はセッション終了時のスコア確定インターフェース。
type Scorer interface {
	// Finalize は終了済みセッションのスコアを計算して保存する。
	Finalize(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error)

	// Detail は確定済みセッションとテーマ別内訳を返す。
	Detail(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error)
}

// QuestionPosee はセッション内の1問を質問内容付きで表す。
type QuestionPosee struct {
	SessionQuestion model.SessionQuestion
	Question        *model.Question
	Reponse         *model.ReponseCandidat
}

// Service は受験セッションのサービス層。
// 開始時の出題抽選と、締切をサーバ側で強制する終了処理を担う。
type Service struct {
	sessionRepo  repository.SessionTestRepository
	candidatRepo repository.CandidatRepository
	creneauRepo  repository.CreneauRepository
	questionRepo repository.QuestionRepository
	paramRepo    repository.ParametreRepository
	scorer       Scorer

	defaultQuestionsParTheme int
	defaultTempsQuestionSec  int

	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	sessionRepo repository.SessionTestRepository,
	candidatRepo repository.CandidatRepository,
	creneauRepo repository.CreneauRepository,
	questionRepo repository.QuestionRepository,
	paramRepo repository.ParametreRepository,
	scorer Scorer,
	defaultQuestionsParTheme int,
	defaultTempsQuestionSec int,
) *Service {
	return &Service{
		sessionRepo:              sessionRepo,
		candidatRepo:             candidatRepo,
		creneauRepo:              creneauRepo,
		questionRepo:             questionRepo,
		paramRepo:                paramRepo,
		scorer:                   scorer,
		defaultQuestionsParTheme: defaultQuestionsParTheme,
		defaultTempsQuestionSec:  defaultTempsQuestionSec,
		now:                      time.Now,
	}
}

// Demarrer は候補者の受験セッションを開始する。
// 受験枠の時間帯内でのみ開始でき、未終了セッションがあればそれを再開する。
// 終了済みセッションを持つ候補者の再受験は拒否する。
func (s *Service) Demarrer(ctx context.Context, candidatID string) (*model.SessionTest, error) {
	candidat, err := s.candidatRepo.FindByID(ctx, candidatID)
	if err != nil {
		return nil, fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}
	if candidat == nil {
		return nil, model.NewCandidatIntrouvableError(candidatID)
	}
	if !candidat.EstValide {
		return nil, model.NewCodeNonEmisError()
	}

	creneau, err := s.creneauRepo.FindByID(ctx, candidat.CreneauID)
	if err != nil {
		return nil, fmt.Errorf("受験枠の取得に失敗しました: %w", err)
	}
	if creneau == nil {
		return nil, model.NewCreneauIntrouvableError(candidat.CreneauID)
	}

	now := s.now()
	if now.Before(creneau.Debut()) || now.After(creneau.Fin()) {
		return nil, model.NewCreneauHorsFenetreError()
	}

	// 未終了セッションがあれば新規作成せず再開する。
	active, err := s.sessionRepo.FindActive(ctx, candidatID, candidat.CreneauID)
	if err != nil {
		return nil, fmt.Errorf("進行中セッションの確認に失敗しました: %w", err)
	}
	if active != nil {
		return active, nil
	}

	completed, err := s.sessionRepo.HasCompleted(ctx, candidatID, candidat.CreneauID)
	if err != nil {
		return nil, fmt.Errorf("終了済みセッションの確認に失敗しました: %w", err)
	}
	if completed {
		return nil, model.NewTestDejaTermineError()
	}

	questions, err := s.tirerQuestions(ctx)
	if err != nil {
		return nil, err
	}

	session := &model.SessionTest{
		ID:         uuid.NewString(),
		CandidatID: candidatID,
		CreneauID:  candidat.CreneauID,
		DateDebut:  now,
		DateLimite: now.Add(time.Duration(creneau.DureeMinutes) * time.Minute),
		CreatedAt:  now,
	}
	for i := range questions {
		questions[i].SessionID = session.ID
	}

	if err := s.sessionRepo.CreateWithQuestions(ctx, session, questions); err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("受験セッションを開始しました",
		slog.String("session_id", session.ID),
		slog.String("candidat_id", candidatID),
		slog.Int("questions", len(questions)),
	)
	return session, nil
}

// tirerQuestions はテーマごとに設定数の質問を無作為に抽選する。
// テーマの質問が設定数に満たない場合はある分だけ出題する。
func (s *Service) tirerQuestions(ctx context.Context) ([]model.SessionQuestion, error) {
	parTheme, err := s.paramRepo.GetInt(ctx, model.ParamNombreQuestionsParTheme, s.defaultQuestionsParTheme)
	if err != nil {
		return nil, fmt.Errorf("出題数パラメータの取得に失敗しました: %w", err)
	}
	tempsSec, err := s.paramRepo.GetInt(ctx, model.ParamTempsQuestionParDefaut, s.defaultTempsQuestionSec)
	if err != nil {
		return nil, fmt.Errorf("制限時間パラメータの取得に失敗しました: %w", err)
	}

	themes, err := s.questionRepo.ListThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("テーマ一覧の取得に失敗しました: %w", err)
	}

	var questions []model.SessionQuestion
	ordre := 0
	for _, theme := range themes {
		ids, err := s.questionRepo.ListIDsByTheme(ctx, theme.ID)
		if err != nil {
			return nil, fmt.Errorf("テーマ別質問の取得に失敗しました: %w", err)
		}

		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		n := parTheme
		if len(ids) < n {
			n = len(ids)
		}

		for _, qid := range ids[:n] {
			ordre++
			questions = append(questions, model.SessionQuestion{
				ID:             uuid.NewString(),
				QuestionID:     qid,
				OrdreAffichage: ordre,
				TempsAlloueSec: tempsSec,
			})
		}
	}

	if len(questions) == 0 {
		return nil, model.NewAucuneQuestionError()
	}
	return questions, nil
}

// QuestionsDeSession はセッションの出題を質問内容・既存回答付きで返す。
func (s *Service) QuestionsDeSession(ctx context.Context, sessionID string) ([]QuestionPosee, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionIntrouvableError(sessionID)
	}

	sqs, err := s.sessionRepo.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("出題一覧の取得に失敗しました: %w", err)
	}

	// 再開時に既存の選択を復元できるよう、保存済み回答を出題行に紐づける。
	reponses, err := s.sessionRepo.ListReponses(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("回答一覧の取得に失敗しました: %w", err)
	}
	parSessionQuestion := make(map[string]*model.ReponseCandidat, len(reponses))
	for i := range reponses {
		parSessionQuestion[reponses[i].SessionQuestionID] = &reponses[i]
	}

	posees := make([]QuestionPosee, 0, len(sqs))
	for _, sq := range sqs {
		question, err := s.questionRepo.FindByID(ctx, sq.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
		}
		posees = append(posees, QuestionPosee{
			SessionQuestion: sq,
			Question:        question,
			Reponse:         parSessionQuestion[sq.ID],
		})
	}
	return posees, nil
}

// EnregistrerReponse は1問への回答を保存する。
// 終了済みセッションと締切超過は拒否し、再提出は既存の回答を上書きする。
func (s *Service) EnregistrerReponse(ctx context.Context, sessionID, questionID string, choix []string) error {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return model.NewSessionIntrouvableError(sessionID)
	}
	if session.EstTermine {
		return model.NewTestDejaTermineError()
	}
	if s.now().After(session.DateLimite) {
		return model.NewTempsEcouleError()
	}

	sq, err := s.sessionRepo.FindSessionQuestion(ctx, sessionID, questionID)
	if err != nil {
		return fmt.Errorf("出題行の取得に失敗しました: %w", err)
	}
	if sq == nil {
		return model.NewQuestionHorsSessionError(questionID)
	}

	if choix == nil {
		choix = []string{}
	}
	if err := s.sessionRepo.UpsertReponse(ctx, sq.ID, choix); err != nil {
		return fmt.Errorf("回答の保存に失敗しました: %w", err)
	}
	return nil
}

// Terminer はセッションを終了しスコアを確定する。
// 終了遷移は条件付きUPDATEで行い、並行する終了要求が二重にスコアを確定することはない。
// 終了済みセッションに対しては確定済みの結果をそのまま返す（冪等）。
func (s *Service) Terminer(ctx context.Context, sessionID string) (*model.SessionTest, []model.ResultatTheme, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, nil, model.NewSessionIntrouvableError(sessionID)
	}
	if session.EstTermine {
		return s.scorer.Detail(ctx, sessionID)
	}

	claimed, err := s.sessionRepo.ClaimCompletion(ctx, sessionID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの終了に失敗しました: %w", err)
	}
	if !claimed {
		// 並行終了か締切超過のどちらか。再取得して区別する。
		current, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			return nil, nil, fmt.Errorf("セッションの再取得に失敗しました: %w", err)
		}
		if current != nil && current.EstTermine {
			return s.scorer.Detail(ctx, sessionID)
		}
		// 締切超過。期限切れジョブが回収するまで未終了のまま残る。
		return nil, nil, model.NewTempsEcouleError()
	}

	finalized, themes, err := s.scorer.Finalize(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("スコアの確定に失敗しました: %w", err)
	}

	slog.Info("受験セッションを終了しました",
		slog.String("session_id", sessionID),
		slog.Int("score_total", finalized.ScoreTotal),
		slog.Int("score_max", finalized.ScoreMax),
	)
	return finalized, themes, nil
}

// TempsRestant はセッションの残り時間を秒で返す。締切超過は0を返す。
func (s *Service) TempsRestant(ctx context.Context, sessionID string) (int, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return 0, model.NewSessionIntrouvableError(sessionID)
	}
	if session.EstTermine {
		return 0, nil
	}

	remaining := int(session.DateLimite.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// FindByID は指定IDのセッションを返す。
func (s *Service) FindByID(ctx context.Context, sessionID string) (*model.SessionTest, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionIntrouvableError(sessionID)
	}
	return session, nil
}
