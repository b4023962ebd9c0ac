package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// PostgresParametreRepo はPostgreSQLを使用したパラメータリポジトリ。
type PostgresParametreRepo struct {
	db *sql.DB
}

// NewPostgresParametreRepo はPostgresParametreRepoを生成する。
func NewPostgresParametreRepo(db *sql.DB) *PostgresParametreRepo {
	return &PostgresParametreRepo{db: db}
}

// GetInt はパラメータを整数として返す。未設定または不正値の場合はdefaultValを返す。
func (r *PostgresParametreRepo) GetInt(ctx context.Context, nom string, defaultVal int) (int, error) {
	var valeur string
	err := r.db.QueryRowContext(ctx,
		`SELECT valeur FROM parametres WHERE nom = $1`, nom).Scan(&valeur)
	if err == sql.ErrNoRows {
		return defaultVal, nil
	}
	if err != nil {
		return 0, fmt.Errorf("パラメータの取得に失敗しました: %w", err)
	}

	n, err := strconv.Atoi(valeur)
	if err != nil {
		return defaultVal, nil
	}
	return n, nil
}

// ListAll は全パラメータを名前順で返す。
func (r *PostgresParametreRepo) ListAll(ctx context.Context) ([]*model.Parametre, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT nom, valeur FROM parametres ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("パラメータ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var parametres []*model.Parametre
	for rows.Next() {
		p := &model.Parametre{}
		if err := rows.Scan(&p.Nom, &p.Valeur); err != nil {
			return nil, fmt.Errorf("パラメータ行の読み取りに失敗しました: %w", err)
		}
		parametres = append(parametres, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("パラメータ一覧の走査に失敗しました: %w", err)
	}
	return parametres, nil
}

// Update はパラメータ値を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresParametreRepo) Update(ctx context.Context, nom, valeur string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE parametres SET valeur = $2 WHERE nom = $1`, nom, valeur)
	if err != nil {
		return false, fmt.Errorf("パラメータの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

var _ ParametreRepository = (*PostgresParametreRepo)(nil)
