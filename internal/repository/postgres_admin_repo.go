package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// PostgresAdministrateurRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdministrateurRepo struct {
	db *sql.DB
}

// NewPostgresAdministrateurRepo はPostgresAdministrateurRepoを生成する。
func NewPostgresAdministrateurRepo(db *sql.DB) *PostgresAdministrateurRepo {
	return &PostgresAdministrateurRepo{db: db}
}

// FindByUsername はユーザー名で管理者を検索する。見つからない場合はnilを返す。
func (r *PostgresAdministrateurRepo) FindByUsername(ctx context.Context, username string) (*model.Administrateur, error) {
	return r.findOne(ctx,
		`SELECT id, username, password_hash, email, nom, prenom, est_actif, created_at
		 FROM administrateurs WHERE username = $1`,
		username)
}

// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdministrateurRepo) FindByID(ctx context.Context, id string) (*model.Administrateur, error) {
	return r.findOne(ctx,
		`SELECT id, username, password_hash, email, nom, prenom, est_actif, created_at
		 FROM administrateurs WHERE id = $1`,
		id)
}

func (r *PostgresAdministrateurRepo) findOne(ctx context.Context, query string, arg any) (*model.Administrateur, error) {
	admin := &model.Administrateur{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&admin.ID, &admin.Username, &admin.PasswordHash, &admin.Email,
		&admin.Nom, &admin.Prenom, &admin.EstActif, &admin.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	return admin, nil
}

var _ AdministrateurRepository = (*PostgresAdministrateurRepo)(nil)
