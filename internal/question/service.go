// Package question は質問バンクと出題パラメータの管理ロジックを提供する。
package question

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// ReponseRequest は選択肢1件の入力を表す。
type ReponseRequest struct {
	Libelle    string `json:"libelle" validate:"required,max=500"`
	EstCorrect bool   `json:"estCorrect"`
}

// QuestionRequest は質問の作成・更新の入力を表す。
type QuestionRequest struct {
	ThemeID        string           `json:"themeId" validate:"required"`
	TypeQuestionID string           `json:"typeQuestionId" validate:"required"`
	Libelle        string           `json:"libelle" validate:"required,max=2000"`
	Explication    string           `json:"explication" validate:"max=2000"`
	Reponses       []ReponseRequest `json:"reponses" validate:"required,min=2,max=10,dive"`
}

// Service は質問バンクのサービス層。
type Service struct {
	questionRepo repository.QuestionRepository
	paramRepo    repository.ParametreRepository
	validate     *validator.Validate
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(questionRepo repository.QuestionRepository, paramRepo repository.ParametreRepository) *Service {
	return &Service{
		questionRepo: questionRepo,
		paramRepo:    paramRepo,
		validate:     validator.New(),
	}
}

// Lister は全質問を選択肢付きで返す。
func (s *Service) Lister(ctx context.Context) ([]*model.Question, error) {
	return s.questionRepo.ListAll(ctx)
}

// FindByID は指定IDの質問を返す。
func (s *Service) FindByID(ctx context.Context, id string) (*model.Question, error) {
	question, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}
	if question == nil {
		return nil, model.NewQuestionIntrouvableError(id)
	}
	return question, nil
}

// Creer は質問を作成する。
// 正解の無い質問と、単一選択で複数正解の質問は拒否する。
func (s *Service) Creer(ctx context.Context, req QuestionRequest) (*model.Question, error) {
	question, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	question.ID = uuid.NewString()
	question.CreatedAt = time.Now()
	for i := range question.ReponsesPossibles {
		question.ReponsesPossibles[i].ID = uuid.NewString()
		question.ReponsesPossibles[i].QuestionID = question.ID
	}

	if err := s.questionRepo.CreateWithReponses(ctx, question); err != nil {
		return nil, fmt.Errorf("質問の作成に失敗しました: %w", err)
	}

	slog.Info("質問を作成しました",
		slog.String("question_id", question.ID),
		slog.String("theme_id", question.ThemeID),
	)
	return question, nil
}

// Modifier は質問を更新し、選択肢集合を置き換える。
func (s *Service) Modifier(ctx context.Context, id string, req QuestionRequest) (*model.Question, error) {
	question, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	question.ID = id
	for i := range question.ReponsesPossibles {
		question.ReponsesPossibles[i].ID = uuid.NewString()
		question.ReponsesPossibles[i].QuestionID = id
	}

	ok, err := s.questionRepo.UpdateWithReponses(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("質問の更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewQuestionIntrouvableError(id)
	}

	slog.Info("質問を更新しました",
		slog.String("question_id", id),
	)
	return question, nil
}

// build は入力を検証しQuestionモデルを構築する。
func (s *Service) build(ctx context.Context, req QuestionRequest) (*model.Question, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	theme, err := s.questionRepo.FindThemeByID(ctx, req.ThemeID)
	if err != nil {
		return nil, fmt.Errorf("テーマの取得に失敗しました: %w", err)
	}
	if theme == nil {
		return nil, model.NewThemeIntrouvableError(req.ThemeID)
	}

	correctCount := 0
	for _, rp := range req.Reponses {
		if rp.EstCorrect {
			correctCount++
		}
	}
	if correctCount == 0 {
		return nil, model.NewQuestionSansBonneReponseError()
	}

	typeNom, err := s.typeNom(ctx, req.TypeQuestionID)
	if err != nil {
		return nil, err
	}
	if typeNom == model.TypeChoixUnique && correctCount > 1 {
		return nil, model.NewValidationError("une question à choix unique doit avoir exactement une bonne réponse")
	}

	question := &model.Question{
		ThemeID:        req.ThemeID,
		TypeQuestionID: req.TypeQuestionID,
		Libelle:        strings.TrimSpace(req.Libelle),
		Explication:    strings.TrimSpace(req.Explication),
	}
	for i, rp := range req.Reponses {
		question.ReponsesPossibles = append(question.ReponsesPossibles, model.ReponsePossible{
			Libelle:    strings.TrimSpace(rp.Libelle),
			EstCorrect: rp.EstCorrect,
			Ordre:      i + 1,
		})
	}
	return question, nil
}

func (s *Service) typeNom(ctx context.Context, typeID string) (string, error) {
	types, err := s.questionRepo.ListTypes(ctx)
	if err != nil {
		return "", fmt.Errorf("質問形式一覧の取得に失敗しました: %w", err)
	}
	for _, tq := range types {
		if tq.ID == typeID {
			return tq.Nom, nil
		}
	}
	return "", model.NewValidationError("typeQuestionId inconnu")
}

// Supprimer は質問を削除する。セッションから参照されている質問は削除できない。
func (s *Service) Supprimer(ctx context.Context, id string) error {
	refs, err := s.questionRepo.CountSessionRefs(ctx, id)
	if err != nil {
		return fmt.Errorf("質問の参照数の取得に失敗しました: %w", err)
	}
	if refs > 0 {
		return model.NewQuestionUtiliseeError()
	}

	ok, err := s.questionRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("質問の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewQuestionIntrouvableError(id)
	}

	slog.Info("質問を削除しました",
		slog.String("question_id", id),
	)
	return nil
}

// ListerThemes は全テーマを返す。
func (s *Service) ListerThemes(ctx context.Context) ([]*model.Theme, error) {
	return s.questionRepo.ListThemes(ctx)
}

// ListerTypes は全質問形式を返す。
func (s *Service) ListerTypes(ctx context.Context) ([]*model.TypeQuestion, error) {
	return s.questionRepo.ListTypes(ctx)
}

// ListerParametres は全出題パラメータを返す。
func (s *Service) ListerParametres(ctx context.Context) ([]*model.Parametre, error) {
	return s.paramRepo.ListAll(ctx)
}

// ModifierParametre は出題パラメータを更新する。値は正の整数のみ許可する。
func (s *Service) ModifierParametre(ctx context.Context, nom, valeur string) error {
	n, err := strconv.Atoi(valeur)
	if err != nil || n <= 0 {
		return model.NewValidationError("la valeur doit être un entier positif")
	}

	ok, err := s.paramRepo.Update(ctx, nom, valeur)
	if err != nil {
		return fmt.Errorf("パラメータの更新に失敗しました: %w", err)
	}
	if !ok {
		return model.NewParametreIntrouvableError(nom)
	}

	slog.Info("出題パラメータを更新しました",
		slog.String("nom", nom),
		slog.String("valeur", valeur),
	)
	return nil
}
