package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// PostgresCreneauRepo はPostgreSQLを使用した受験枠リポジトリ。
type PostgresCreneauRepo struct {
	db *sql.DB
}

// NewPostgresCreneauRepo はPostgresCreneauRepoを生成する。
func NewPostgresCreneauRepo(db *sql.DB) *PostgresCreneauRepo {
	return &PostgresCreneauRepo{db: db}
}

const creneauColumns = `id, date_exam, heure_debut, duree_minutes,
	        places_totales, places_restantes, created_at`

// FindByID は指定IDの受験枠を取得する。見つからない場合はnilを返す。
func (r *PostgresCreneauRepo) FindByID(ctx context.Context, id string) (*model.CreneauHoraire, error) {
	creneau := &model.CreneauHoraire{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+creneauColumns+` FROM creneaux_horaires WHERE id = $1`,
		id,
	).Scan(
		&creneau.ID, &creneau.DateExam, &creneau.HeureDebut, &creneau.DureeMinutes,
		&creneau.PlacesTotales, &creneau.PlacesRestantes, &creneau.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("受験枠の取得に失敗しました: %w", err)
	}
	return creneau, nil
}

// ListAvailable は残席があり試験日が当日以降の受験枠を返す。
func (r *PostgresCreneauRepo) ListAvailable(ctx context.Context, today time.Time) ([]*model.CreneauHoraire, error) {
	return r.list(ctx,
		`SELECT `+creneauColumns+`
		 FROM creneaux_horaires
		 WHERE places_restantes > 0 AND date_exam >= $1
		 ORDER BY date_exam, heure_debut`,
		today.Format("2006-01-02"))
}

// ListAll は全受験枠を日付・開始時刻順で返す。
func (r *PostgresCreneauRepo) ListAll(ctx context.Context) ([]*model.CreneauHoraire, error) {
	return r.list(ctx,
		`SELECT `+creneauColumns+`
		 FROM creneaux_horaires ORDER BY date_exam, heure_debut`)
}

func (r *PostgresCreneauRepo) list(ctx context.Context, query string, args ...any) ([]*model.CreneauHoraire, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("受験枠一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var creneaux []*model.CreneauHoraire
	for rows.Next() {
		creneau := &model.CreneauHoraire{}
		err := rows.Scan(
			&creneau.ID, &creneau.DateExam, &creneau.HeureDebut, &creneau.DureeMinutes,
			&creneau.PlacesTotales, &creneau.PlacesRestantes, &creneau.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("受験枠行の読み取りに失敗しました: %w", err)
		}
		creneaux = append(creneaux, creneau)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("受験枠一覧の走査に失敗しました: %w", err)
	}
	return creneaux, nil
}

// Create は受験枠を作成する。
func (r *PostgresCreneauRepo) Create(ctx context.Context, creneau *model.CreneauHoraire) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO creneaux_horaires (id, date_exam, heure_debut, duree_minutes,
		                                places_totales, places_restantes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		creneau.ID, creneau.DateExam, creneau.HeureDebut, creneau.DureeMinutes,
		creneau.PlacesTotales, creneau.PlacesRestantes, creneau.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("受験枠の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は受験枠を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresCreneauRepo) Update(ctx context.Context, creneau *model.CreneauHoraire) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE creneaux_horaires
		 SET date_exam = $2, heure_debut = $3, duree_minutes = $4,
		     places_totales = $5, places_restantes = $6
		 WHERE id = $1`,
		creneau.ID, creneau.DateExam, creneau.HeureDebut, creneau.DureeMinutes,
		creneau.PlacesTotales, creneau.PlacesRestantes,
	)
	if err != nil {
		return false, fmt.Errorf("受験枠の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は受験枠を削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresCreneauRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM creneaux_horaires WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("受験枠の削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Reserve は残席を条件付きUPDATEで1つ減算する。残席がない場合はfalseを返す。
func (r *PostgresCreneauRepo) Reserve(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE creneaux_horaires
		 SET places_restantes = places_restantes - 1
		 WHERE id = $1 AND places_restantes > 0`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("受験枠の予約に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Release は残席を1つ戻す。places_totalesを超える返却は無視される。
func (r *PostgresCreneauRepo) Release(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE creneaux_horaires
		 SET places_restantes = places_restantes + 1
		 WHERE id = $1 AND places_restantes < places_totales`,
		id,
	)
	if err != nil {
		return fmt.Errorf("受験枠の残席返却に失敗しました: %w", err)
	}
	return nil
}

// CountReferences は受験枠を参照する候補者・セッション数の合計を返す。
func (r *PostgresCreneauRepo) CountReferences(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM candidats WHERE creneau_id = $1)
		      + (SELECT COUNT(*) FROM session_tests WHERE creneau_id = $1)`,
		id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("受験枠の参照数の取得に失敗しました: %w", err)
	}
	return count, nil
}

var _ CreneauRepository = (*PostgresCreneauRepo)(nil)
