// Package creneau は受験枠の管理ロジックを提供する。
package creneau

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// CreneauRequest は受験枠の作成・更新の入力を表す。
type CreneauRequest struct {
	DateExam      string `json:"dateExam" validate:"required,datetime=2006-01-02"`
	HeureDebut    string `json:"heureDebut" validate:"required,datetime=15:04"`
	DureeMinutes  int    `json:"dureeMinutes" validate:"required,gt=0,lte=480"`
	PlacesTotales int    `json:"placesTotales" validate:"required,gt=0,lte=1000"`
}

// Service は受験枠管理のサービス層。
type Service struct {
	creneauRepo repository.CreneauRepository
	validate    *validator.Validate
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(creneauRepo repository.CreneauRepository) *Service {
	return &Service{
		creneauRepo: creneauRepo,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// ListerDisponibles は予約可能な受験枠（残席あり・当日以降）を返す。
func (s *Service) ListerDisponibles(ctx context.Context) ([]*model.CreneauHoraire, error) {
	return s.creneauRepo.ListAvailable(ctx, s.now())
}

// ListerTous は全受験枠を返す（管理者向け）。
func (s *Service) ListerTous(ctx context.Context) ([]*model.CreneauHoraire, error) {
	return s.creneauRepo.ListAll(ctx)
}

// FindByID は指定IDの受験枠を返す。
func (s *Service) FindByID(ctx context.Context, id string) (*model.CreneauHoraire, error) {
	creneau, err := s.creneauRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("受験枠の取得に失敗しました: %w", err)
	}
	if creneau == nil {
		return nil, model.NewCreneauIntrouvableError(id)
	}
	return creneau, nil
}

// Creer は受験枠を作成する。残席は定員と同数で初期化される。
func (s *Service) Creer(ctx context.Context, req CreneauRequest) (*model.CreneauHoraire, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	dateExam, err := time.Parse("2006-01-02", req.DateExam)
	if err != nil {
		return nil, model.NewValidationError("dateExam doit être au format AAAA-MM-JJ")
	}

	creneau := &model.CreneauHoraire{
		ID:              uuid.NewString(),
		DateExam:        dateExam,
		HeureDebut:      req.HeureDebut,
		DureeMinutes:    req.DureeMinutes,
		PlacesTotales:   req.PlacesTotales,
		PlacesRestantes: req.PlacesTotales,
		CreatedAt:       s.now(),
	}

	if err := s.creneauRepo.Create(ctx, creneau); err != nil {
		return nil, fmt.Errorf("受験枠の作成に失敗しました: %w", err)
	}

	slog.Info("受験枠を作成しました",
		slog.String("creneau_id", creneau.ID),
		slog.String("date_exam", req.DateExam),
	)
	return creneau, nil
}

// Modifier は受験枠を更新する。
// 定員の変更時は消費済みの予約数を保ったまま残席を再計算する。
func (s *Service) Modifier(ctx context.Context, id string, req CreneauRequest) (*model.CreneauHoraire, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	existing, err := s.creneauRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("受験枠の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewCreneauIntrouvableError(id)
	}

	dateExam, err := time.Parse("2006-01-02", req.DateExam)
	if err != nil {
		return nil, model.NewValidationError("dateExam doit être au format AAAA-MM-JJ")
	}

	consumed := existing.PlacesTotales - existing.PlacesRestantes
	if req.PlacesTotales < consumed {
		return nil, model.NewValidationError(
			fmt.Sprintf("placesTotales ne peut pas être inférieur aux %d places déjà réservées", consumed))
	}

	updated := &model.CreneauHoraire{
		ID:              id,
		DateExam:        dateExam,
		HeureDebut:      req.HeureDebut,
		DureeMinutes:    req.DureeMinutes,
		PlacesTotales:   req.PlacesTotales,
		PlacesRestantes: req.PlacesTotales - consumed,
		CreatedAt:       existing.CreatedAt,
	}

	ok, err := s.creneauRepo.Update(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("受験枠の更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewCreneauIntrouvableError(id)
	}

	slog.Info("受験枠を更新しました",
		slog.String("creneau_id", id),
	)
	return updated, nil
}

// Supprimer は受験枠を削除する。
// 候補者またはセッションから参照されている受験枠は削除できない。
func (s *Service) Supprimer(ctx context.Context, id string) error {
	refs, err := s.creneauRepo.CountReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("受験枠の参照数の取得に失敗しました: %w", err)
	}
	if refs > 0 {
		return model.NewCreneauUtiliseError()
	}

	ok, err := s.creneauRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("受験枠の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewCreneauIntrouvableError(id)
	}

	slog.Info("受験枠を削除しました",
		slog.String("creneau_id", id),
	)
	return nil
}
