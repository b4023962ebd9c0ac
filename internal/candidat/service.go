// Package candidat は候補者の登録・検証・ログインのドメインロジックを提供する。
package candidat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/notification"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/repository"
)

// コード衝突時の再生成回数の上限。36^8の空間では実質的に到達しない。
const maxCodeAttempts = 5

// InscriptionRequest は候補者登録の入力を表す。
type InscriptionRequest struct {
	Nom       string `json:"nom" validate:"required,max=100"`
	Prenom    string `json:"prenom" validate:"required,max=100"`
	Ecole     string `json:"ecole" validate:"required,max=200"`
	Filiere   string `json:"filiere" validate:"max=200"`
	Email     string `json:"email" validate:"required,email"`
	Gsm       string `json:"gsm" validate:"required,min=8,max=20"`
	CreneauID string `json:"creneauId" validate:"required"`
}

// Service は候補者管理のサービス層。
// 登録時の受験枠予約とセッションコードの発行を担う。
type Service struct {
	candidatRepo repository.CandidatRepository
	creneauRepo  repository.CreneauRepository
	notifier     notification.Notifier
	validate     *validator.Validate
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	candidatRepo repository.CandidatRepository,
	creneauRepo repository.CreneauRepository,
	notifier notification.Notifier,
) *Service {
	return &Service{
		candidatRepo: candidatRepo,
		creneauRepo:  creneauRepo,
		notifier:     notifier,
		validate:     validator.New(),
	}
}

// Inscrire は候補者を登録し、受験枠の残席を1つ予約する。
// メールアドレスは大文字小文字を区別せず一意で、登録直後はコード未発行の保留状態になる。
func (s *Service) Inscrire(ctx context.Context, req InscriptionRequest) (*model.Candidat, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))

	// メールアドレスの重複確認
	existing, err := s.candidatRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailDejaUtiliseError(email)
	}

	// 受験枠の存在確認
	creneau, err := s.creneauRepo.FindByID(ctx, req.CreneauID)
	if err != nil {
		return nil, fmt.Errorf("受験枠の取得に失敗しました: %w", err)
	}
	if creneau == nil {
		return nil, model.NewCreneauIntrouvableError(req.CreneauID)
	}

	// 残席の予約。条件付きUPDATEのため定員超過は起きない。
	reserved, err := s.creneauRepo.Reserve(ctx, req.CreneauID)
	if err != nil {
		return nil, fmt.Errorf("受験枠の予約に失敗しました: %w", err)
	}
	if !reserved {
		return nil, model.NewCreneauCompletError()
	}

	candidat := &model.Candidat{
		ID:        uuid.NewString(),
		Nom:       strings.TrimSpace(req.Nom),
		Prenom:    strings.TrimSpace(req.Prenom),
		Ecole:     strings.TrimSpace(req.Ecole),
		Filiere:   strings.TrimSpace(req.Filiere),
		Email:     email,
		Gsm:       strings.TrimSpace(req.Gsm),
		CreneauID: req.CreneauID,
		CreatedAt: time.Now(),
	}

	if err := s.candidatRepo.Create(ctx, candidat); err != nil {
		// 作成に失敗した場合は予約した残席を戻す。
		if relErr := s.creneauRepo.Release(ctx, req.CreneauID); relErr != nil {
			slog.Error("予約済み残席の返却に失敗しました",
				slog.String("creneau_id", req.CreneauID),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, fmt.Errorf("候補者の作成に失敗しました: %w", err)
	}

	slog.Info("候補者を登録しました",
		slog.String("candidat_id", candidat.ID),
		slog.String("creneau_id", candidat.CreneauID),
	)
	return candidat, nil
}

// Valider は候補者を検証しセッションコードを発行する。
// すでに検証済みの場合はエラーにせず既存の候補者をそのまま返す。
func (s *Service) Valider(ctx context.Context, candidatID string) (*model.Candidat, error) {
	candidat, err := s.candidatRepo.FindByID(ctx, candidatID)
	if err != nil {
		return nil, fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}
	if candidat == nil {
		return nil, model.NewCandidatIntrouvableError(candidatID)
	}
	if candidat.EstValide {
		// 冪等。二重送信や画面の再読み込みを許容する。
		return candidat, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		// コードの衝突確認。UNIQUE制約が最終防壁になる。
		taken, err := s.candidatRepo.FindByCodeSession(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("セッションコードの確認に失敗しました: %w", err)
		}
		if taken != nil {
			continue
		}

		assigned, err := s.candidatRepo.AssignCodeSession(ctx, candidatID, code)
		if err != nil {
			return nil, fmt.Errorf("セッションコードの割り当てに失敗しました: %w", err)
		}
		if !assigned {
			// 並行する検証が先にコードを発行した。発行済みの状態を返す。
			return s.candidatRepo.FindByID(ctx, candidatID)
		}

		candidat.EstValide = true
		candidat.CodeSession = &code

		slog.Info("候補者を検証しセッションコードを発行しました",
			slog.String("candidat_id", candidatID),
		)

		if s.notifier != nil {
			if err := s.notifier.SendCodeSession(ctx, candidat, code); err != nil {
				// 通知失敗は検証自体を巻き戻さない。再送APIで回復できる。
				slog.Error("セッションコードの通知に失敗しました",
					slog.String("candidat_id", candidatID),
					slog.String("error", err.Error()),
				)
			}
		}
		return candidat, nil
	}

	return nil, fmt.Errorf("セッションコードの生成が%d回続けて衝突しました", maxCodeAttempts)
}

// Rejeter は保留中の候補者を削除し、予約済みの残席を受験枠に戻す。
// 検証済み候補者の削除は拒否する。
func (s *Service) Rejeter(ctx context.Context, candidatID string) error {
	candidat, err := s.candidatRepo.FindByID(ctx, candidatID)
	if err != nil {
		return fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}
	if candidat == nil {
		return model.NewCandidatIntrouvableError(candidatID)
	}
	if candidat.EstValide {
		return model.NewCandidatDejaValideError()
	}

	if err := s.candidatRepo.DeleteAndReleaseSlot(ctx, candidatID, candidat.CreneauID); err != nil {
		return fmt.Errorf("候補者の削除に失敗しました: %w", err)
	}

	slog.Info("候補者を却下しました",
		slog.String("candidat_id", candidatID),
		slog.String("creneau_id", candidat.CreneauID),
	)
	return nil
}

// Lister は候補者一覧を返す。estValideがnilの場合は全件を返す。
func (s *Service) Lister(ctx context.Context, estValide *bool) ([]*model.Candidat, error) {
	if estValide == nil {
		return s.candidatRepo.ListAll(ctx)
	}
	return s.candidatRepo.ListByEstValide(ctx, *estValide)
}

// Rechercher はnom・prenom・ecoleの部分一致で候補者を検索する。
func (s *Service) Rechercher(ctx context.Context, term string) ([]*model.Candidat, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.candidatRepo.ListAll(ctx)
	}
	return s.candidatRepo.Search(ctx, term)
}

// FindByID は指定IDの候補者を返す。
func (s *Service) FindByID(ctx context.Context, candidatID string) (*model.Candidat, error) {
	candidat, err := s.candidatRepo.FindByID(ctx, candidatID)
	if err != nil {
		return nil, fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}
	if candidat == nil {
		return nil, model.NewCandidatIntrouvableError(candidatID)
	}
	return candidat, nil
}

// StatutParEmail はメールアドレスから候補者の検証状態を返す。
func (s *Service) StatutParEmail(ctx context.Context, email string) (*model.Candidat, error) {
	candidat, err := s.candidatRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}
	if candidat == nil {
		return nil, model.NewCandidatIntrouvableError(email)
	}
	return candidat, nil
}

// RenvoyerCode は発行済みのセッションコードを候補者に再送する。
func (s *Service) RenvoyerCode(ctx context.Context, candidatID string) error {
	candidat, err := s.candidatRepo.FindByID(ctx, candidatID)
	if err != nil {
		return fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}
	if candidat == nil {
		return model.NewCandidatIntrouvableError(candidatID)
	}
	if !candidat.EstValide || candidat.CodeSession == nil {
		return model.NewCodeNonEmisError()
	}

	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.SendCodeSession(ctx, candidat, *candidat.CodeSession); err != nil {
		return fmt.Errorf("セッションコードの再送に失敗しました: %w", err)
	}

	slog.Info("セッションコードを再送しました",
		slog.String("candidat_id", candidatID),
	)
	return nil
}

// Connexion はセッションコードで候補者を認証する。
// コードが存在しない場合はコードの実在を漏らさない単一のエラーを返す。
func (s *Service) Connexion(ctx context.Context, code string) (*model.Candidat, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, model.NewCodeSessionInvalideError()
	}

	candidat, err := s.candidatRepo.FindByCodeSession(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("セッションコードの検索に失敗しました: %w", err)
	}
	if candidat == nil {
		return nil, model.NewCodeSessionInvalideError()
	}

	slog.Info("候補者がログインしました",
		slog.String("candidat_id", candidat.ID),
	)
	return candidat, nil
}
