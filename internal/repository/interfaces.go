// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// CandidatRepository は候補者データの永続化インターフェース。
type CandidatRepository interface {
	// Create は候補者を作成する。
	Create(ctx context.Context, candidat *model.Candidat) error

	// FindByID は指定IDの候補者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Candidat, error)

	// FindByEmail はメールアドレスで候補者を検索する（大文字小文字を区別しない完全一致）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Candidat, error)

	// FindByCodeSession はセッションコードで候補者を検索する。見つからない場合はnilを返す。
	FindByCodeSession(ctx context.Context, code string) (*model.Candidat, error)

	// Search はnom・prenom・ecoleの部分一致で候補者を検索する。
	Search(ctx context.Context, term string) ([]*model.Candidat, error)

	// ListAll は全候補者を登録日時の降順で返す。
	ListAll(ctx context.Context) ([]*model.Candidat, error)

	// ListByEstValide は検証状態で候補者を絞り込み、登録日時の降順で返す。
	ListByEstValide(ctx context.Context, estValide bool) ([]*model.Candidat, error)

	// AssignCodeSession はコード未発行の候補者にのみコードを割り当て、est_valideをtrueにする。
	// 条件付きUPDATEのため、すでにコードを持つ候補者に対してはfalseを返し何も変更しない。
	AssignCodeSession(ctx context.Context, candidatID, code string) (bool, error)

	// DeleteAndReleaseSlot は候補者を削除し、同一トランザクションで受験枠の残席を1つ戻す。
	DeleteAndReleaseSlot(ctx context.Context, candidatID, creneauID string) error
}

// CreneauRepository は受験枠データの永続化インターフェース。
type CreneauRepository interface {
	// FindByID は指定IDの受験枠を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CreneauHoraire, error)

	// ListAvailable は残席があり試験日が当日以降の受験枠を日付・開始時刻順で返す。
	ListAvailable(ctx context.Context, today time.Time) ([]*model.CreneauHoraire, error)

	// ListAll は全受験枠を日付・開始時刻順で返す。
	ListAll(ctx context.Context) ([]*model.CreneauHoraire, error)

	// Create は受験枠を作成する。
	Create(ctx context.Context, creneau *model.CreneauHoraire) error

	// Update は受験枠を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, creneau *model.CreneauHoraire) (bool, error)

	// Delete は受験枠を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// Reserve は残席を1つ条件付きUPDATEで減算する。
	// 残席がない場合はfalseを返す。同時実行下でも残席は負にならない。
	Reserve(ctx context.Context, id string) (bool, error)

	// Release は残席を1つ戻す。places_totalesを超える返却は無視される。
	Release(ctx context.Context, id string) error

	// CountReferences は受験枠を参照する候補者・セッション数の合計を返す。
	CountReferences(ctx context.Context, id string) (int, error)
}

// SessionTestRepository はテストセッションデータの永続化インターフェース。
type SessionTestRepository interface {
	// CreateWithQuestions はセッションと出題リストを同一トランザクションで作成する。
	CreateWithQuestions(ctx context.Context, session *model.SessionTest, questions []model.SessionQuestion) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.SessionTest, error)

	// FindActive は候補者と受験枠に紐づく未終了セッションを返す。見つからない場合はnilを返す。
	FindActive(ctx context.Context, candidatID, creneauID string) (*model.SessionTest, error)

	// HasCompleted は候補者が指定受験枠で終了済みセッションを持つかを返す。
	HasCompleted(ctx context.Context, candidatID, creneauID string) (bool, error)

	// ListByCandidat は候補者のセッションを開始日時の降順で返す。
	ListByCandidat(ctx context.Context, candidatID string) ([]*model.SessionTest, error)

	// ListAllWithCandidat は全セッションを候補者情報付きで開始日時の降順で返す。
	ListAllWithCandidat(ctx context.Context) ([]*model.SessionAvecCandidat, error)

	// ListCompletedBetween は期間内に開始された終了済みセッションを候補者情報付きで返す。
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*model.SessionAvecCandidat, error)

	// ListQuestions はセッションの出題リストを表示順で返す。
	ListQuestions(ctx context.Context, sessionID string) ([]model.SessionQuestion, error)

	// FindSessionQuestion はセッションと質問IDから出題行を取得する。見つからない場合はnilを返す。
	FindSessionQuestion(ctx context.Context, sessionID, questionID string) (*model.SessionQuestion, error)

	// UpsertReponse は回答を冪等にUPSERTする。再提出は既存行を上書きし、重複行を作らない。
	UpsertReponse(ctx context.Context, sessionQuestionID string, choix []string) error

	// ListReponses はセッション内の保存済み回答を返す。
	ListReponses(ctx context.Context, sessionID string) ([]model.ReponseCandidat, error)

	// ClaimCompletion はセッションを終了状態に遷移させる。
	// est_termine=FALSEの行にのみ作用し、enforceDeadlineがtrueの場合は
	// date_limiteの判定を同一UPDATE内で行う。遷移できた場合のみtrueを返す。
	ClaimCompletion(ctx context.Context, sessionID string, enforceDeadline bool) (bool, error)

	// SetScores は終了済みセッションの確定スコアを書き込む。
	SetScores(ctx context.Context, sessionID string, scoreTotal, scoreMax, pourcentage int) error

	// ListScoringRows は採点に必要な行（出題・正解集合・候補者の選択集合）を返す。
	ListScoringRows(ctx context.Context, sessionID string) ([]ScoringRow, error)

	// ListExpiredIDs は締切を過ぎた未終了セッションのIDを返す。
	ListExpiredIDs(ctx context.Context, limit int) ([]string, error)
}

// ScoringRow は採点計算の入力1行を表す。
type ScoringRow struct {
	SessionQuestionID string
	QuestionID        string
	ThemeID           string
	NomTheme          string
	CorrectIDs        []string
	ChoixIDs          []string
	Repondu           bool
}

// QuestionRepository は質問バンクの永続化インターフェース。
type QuestionRepository interface {
	// FindByID は指定IDの質問を選択肢付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Question, error)

	// ListAll は全質問を選択肢付きで返す。
	ListAll(ctx context.Context) ([]*model.Question, error)

	// ListByTheme はテーマの質問ID一覧を返す（出題抽選用）。
	ListIDsByTheme(ctx context.Context, themeID string) ([]string, error)

	// CreateWithReponses は質問と選択肢を同一トランザクションで作成する。
	CreateWithReponses(ctx context.Context, question *model.Question) error

	// UpdateWithReponses は質問を更新し、選択肢集合を置き換える。
	// 対象が存在しない場合はfalseを返す。
	UpdateWithReponses(ctx context.Context, question *model.Question) (bool, error)

	// Delete は質問を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// CountSessionRefs は質問を参照するsession_questions行数を返す。
	CountSessionRefs(ctx context.Context, id string) (int, error)

	// ListThemes は全テーマを名前順で返す。
	ListThemes(ctx context.Context) ([]*model.Theme, error)

	// FindThemeByID は指定IDのテーマを取得する。見つからない場合はnilを返す。
	FindThemeByID(ctx context.Context, id string) (*model.Theme, error)

	// ListTypes は全質問形式を返す。
	ListTypes(ctx context.Context) ([]*model.TypeQuestion, error)
}

// AdministrateurRepository は管理者データの永続化インターフェース。
type AdministrateurRepository interface {
	// FindByUsername はユーザー名で管理者を検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Administrateur, error)

	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Administrateur, error)
}

// ParametreRepository はテスト生成パラメータの永続化インターフェース。
type ParametreRepository interface {
	// GetInt はパラメータを整数として返す。未設定または不正値の場合はdefaultValを返す。
	GetInt(ctx context.Context, nom string, defaultVal int) (int, error)

	// ListAll は全パラメータを名前順で返す。
	ListAll(ctx context.Context) ([]*model.Parametre, error)

	// Update はパラメータ値を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, nom, valeur string) (bool, error)
}
