package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// PostgresCandidatRepo はPostgreSQLを使用した候補者リポジトリ。
type PostgresCandidatRepo struct {
	db *sql.DB
}

// NewPostgresCandidatRepo はPostgresCandidatRepoを生成する。
func NewPostgresCandidatRepo(db *sql.DB) *PostgresCandidatRepo {
	return &PostgresCandidatRepo{db: db}
}

const candidatColumns = `id, nom, prenom, ecole, filiere, email, gsm,
	        est_valide, code_session, creneau_id, created_at`

// Create は候補者を作成する。
func (r *PostgresCandidatRepo) Create(ctx context.Context, candidat *model.Candidat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO candidats (id, nom, prenom, ecole, filiere, email, gsm,
		                        est_valide, code_session, creneau_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		candidat.ID, candidat.Nom, candidat.Prenom, candidat.Ecole, candidat.Filiere,
		candidat.Email, candidat.Gsm, candidat.EstValide, candidat.CodeSession,
		candidat.CreneauID, candidat.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("候補者の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの候補者を取得する。見つからない場合はnilを返す。
func (r *PostgresCandidatRepo) FindByID(ctx context.Context, id string) (*model.Candidat, error) {
	return r.findOne(ctx, `SELECT `+candidatColumns+` FROM candidats WHERE id = $1`, id)
}

// FindByEmail はメールアドレスで候補者を検索する。見つからない場合はnilを返す。
func (r *PostgresCandidatRepo) FindByEmail(ctx context.Context, email string) (*model.Candidat, error) {
	return r.findOne(ctx,
		`SELECT `+candidatColumns+` FROM candidats WHERE lower(email) = lower($1)`, email)
}

// FindByCodeSession はセッションコードで候補者を検索する。見つからない場合はnilを返す。
func (r *PostgresCandidatRepo) FindByCodeSession(ctx context.Context, code string) (*model.Candidat, error) {
	return r.findOne(ctx,
		`SELECT `+candidatColumns+` FROM candidats WHERE code_session = $1`, code)
}

func (r *PostgresCandidatRepo) findOne(ctx context.Context, query string, arg any) (*model.Candidat, error) {
	candidat := &model.Candidat{}
	var codeSession sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&candidat.ID, &candidat.Nom, &candidat.Prenom, &candidat.Ecole, &candidat.Filiere,
		&candidat.Email, &candidat.Gsm, &candidat.EstValide, &codeSession,
		&candidat.CreneauID, &candidat.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("候補者の取得に失敗しました: %w", err)
	}

	if codeSession.Valid {
		candidat.CodeSession = &codeSession.String
	}
	return candidat, nil
}

// Search はnom・prenom・ecoleの部分一致で候補者を検索する。
func (r *PostgresCandidatRepo) Search(ctx context.Context, term string) ([]*model.Candidat, error) {
	pattern := "%" + term + "%"
	return r.list(ctx,
		`SELECT `+candidatColumns+`
		 FROM candidats
		 WHERE nom ILIKE $1 OR prenom ILIKE $1 OR ecole ILIKE $1
		 ORDER BY created_at DESC`,
		pattern)
}

// ListAll は全候補者を登録日時の降順で返す。
func (r *PostgresCandidatRepo) ListAll(ctx context.Context) ([]*model.Candidat, error) {
	return r.list(ctx,
		`SELECT `+candidatColumns+` FROM candidats ORDER BY created_at DESC`)
}

// ListByEstValide は検証状態で候補者を絞り込む。
func (r *PostgresCandidatRepo) ListByEstValide(ctx context.Context, estValide bool) ([]*model.Candidat, error) {
	return r.list(ctx,
		`SELECT `+candidatColumns+`
		 FROM candidats WHERE est_valide = $1 ORDER BY created_at DESC`,
		estValide)
}

func (r *PostgresCandidatRepo) list(ctx context.Context, query string, args ...any) ([]*model.Candidat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("候補者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var candidats []*model.Candidat
	for rows.Next() {
		candidat := &model.Candidat{}
		var codeSession sql.NullString

		err := rows.Scan(
			&candidat.ID, &candidat.Nom, &candidat.Prenom, &candidat.Ecole, &candidat.Filiere,
			&candidat.Email, &candidat.Gsm, &candidat.EstValide, &codeSession,
			&candidat.CreneauID, &candidat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("候補者行の読み取りに失敗しました: %w", err)
		}
		if codeSession.Valid {
			candidat.CodeSession = &codeSession.String
		}
		candidats = append(candidats, candidat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("候補者一覧の走査に失敗しました: %w", err)
	}
	return candidats, nil
}

// AssignCodeSession はコード未発行の候補者にのみコードを割り当てる。
// 条件付きUPDATEのため、同時検証でも二重発行は起きない。
func (r *PostgresCandidatRepo) AssignCodeSession(ctx context.Context, candidatID, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE candidats
		 SET code_session = $2, est_valide = TRUE
		 WHERE id = $1 AND code_session IS NULL`,
		candidatID, code,
	)
	if err != nil {
		return false, fmt.Errorf("セッションコードの割り当てに失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// DeleteAndReleaseSlot は候補者削除と受験枠の残席返却を同一トランザクションで行う。
func (r *PostgresCandidatRepo) DeleteAndReleaseSlot(ctx context.Context, candidatID, creneauID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM candidats WHERE id = $1`, candidatID)
	if err != nil {
		return fmt.Errorf("候補者の削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE creneaux_horaires
		 SET places_restantes = places_restantes + 1
		 WHERE id = $1 AND places_restantes < places_totales`,
		creneauID,
	)
	if err != nil {
		return fmt.Errorf("受験枠の残席返却に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

var _ CandidatRepository = (*PostgresCandidatRepo)(nil)
