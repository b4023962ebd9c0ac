package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// PostgresQuestionRepo はPostgreSQLを使用した質問バンクリポジトリ。
type PostgresQuestionRepo struct {
	db *sql.DB
}

// NewPostgresQuestionRepo はPostgresQuestionRepoを生成する。
func NewPostgresQuestionRepo(db *sql.DB) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{db: db}
}

// FindByID は指定IDの質問を選択肢付きで取得する。見つからない場合はnilを返す。
func (r *PostgresQuestionRepo) FindByID(ctx context.Context, id string) (*model.Question, error) {
	question := &model.Question{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, theme_id, type_question_id, libelle, explication, created_at
		 FROM questions WHERE id = $1`,
		id,
	).Scan(
		&question.ID, &question.ThemeID, &question.TypeQuestionID,
		&question.Libelle, &question.Explication, &question.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}

	reponses, err := r.listReponses(ctx, id)
	if err != nil {
		return nil, err
	}
	question.ReponsesPossibles = reponses
	return question, nil
}

func (r *PostgresQuestionRepo) listReponses(ctx context.Context, questionID string) ([]model.ReponsePossible, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question_id, libelle, est_correct, ordre
		 FROM reponses_possibles
		 WHERE question_id = $1
		 ORDER BY ordre`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("選択肢の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reponses []model.ReponsePossible
	for rows.Next() {
		var rp model.ReponsePossible
		err := rows.Scan(&rp.ID, &rp.QuestionID, &rp.Libelle, &rp.EstCorrect, &rp.Ordre)
		if err != nil {
			return nil, fmt.Errorf("選択肢行の読み取りに失敗しました: %w", err)
		}
		reponses = append(reponses, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("選択肢一覧の走査に失敗しました: %w", err)
	}
	return reponses, nil
}

// ListAll は全質問を選択肢付きで返す。
func (r *PostgresQuestionRepo) ListAll(ctx context.Context) ([]*model.Question, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, theme_id, type_question_id, libelle, explication, created_at
		 FROM questions
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("質問一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var questions []*model.Question
	byID := make(map[string]*model.Question)
	for rows.Next() {
		question := &model.Question{}
		err := rows.Scan(
			&question.ID, &question.ThemeID, &question.TypeQuestionID,
			&question.Libelle, &question.Explication, &question.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("質問行の読み取りに失敗しました: %w", err)
		}
		questions = append(questions, question)
		byID[question.ID] = question
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("質問一覧の走査に失敗しました: %w", err)
	}

	// 選択肢はN+1を避けるため一括で取得して割り当てる。
	rpRows, err := r.db.QueryContext(ctx,
		`SELECT id, question_id, libelle, est_correct, ordre
		 FROM reponses_possibles
		 ORDER BY question_id, ordre`,
	)
	if err != nil {
		return nil, fmt.Errorf("選択肢の取得に失敗しました: %w", err)
	}
	defer rpRows.Close()

	for rpRows.Next() {
		var rp model.ReponsePossible
		err := rpRows.Scan(&rp.ID, &rp.QuestionID, &rp.Libelle, &rp.EstCorrect, &rp.Ordre)
		if err != nil {
			return nil, fmt.Errorf("選択肢行の読み取りに失敗しました: %w", err)
		}
		if q, ok := byID[rp.QuestionID]; ok {
			q.ReponsesPossibles = append(q.ReponsesPossibles, rp)
		}
	}
	if err := rpRows.Err(); err != nil {
		return nil, fmt.Errorf("選択肢一覧の走査に失敗しました: %w", err)
	}
	return questions, nil
}

// ListIDsByTheme はテーマの質問ID一覧を返す。
func (r *PostgresQuestionRepo) ListIDsByTheme(ctx context.Context, themeID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM questions WHERE theme_id = $1`, themeID)
	if err != nil {
		return nil, fmt.Errorf("テーマ別質問の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("質問IDの読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("テーマ別質問一覧の走査に失敗しました: %w", err)
	}
	return ids, nil
}

// CreateWithReponses は質問と選択肢を同一トランザクションで作成する。
func (r *PostgresQuestionRepo) CreateWithReponses(ctx context.Context, question *model.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id, theme_id, type_question_id, libelle, explication, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		question.ID, question.ThemeID, question.TypeQuestionID,
		question.Libelle, question.Explication, question.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("質問の作成に失敗しました: %w", err)
	}

	if err := insertReponses(ctx, tx, question); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateWithReponses は質問を更新し、選択肢集合を置き換える。
func (r *PostgresQuestionRepo) UpdateWithReponses(ctx context.Context, question *model.Question) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE questions
		 SET theme_id = $2, type_question_id = $3, libelle = $4, explication = $5
		 WHERE id = $1`,
		question.ID, question.ThemeID, question.TypeQuestionID,
		question.Libelle, question.Explication,
	)
	if err != nil {
		return false, fmt.Errorf("質問の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM reponses_possibles WHERE question_id = $1`, question.ID)
	if err != nil {
		return false, fmt.Errorf("選択肢の置き換えに失敗しました: %w", err)
	}
	if err := insertReponses(ctx, tx, question); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return true, nil
}

func insertReponses(ctx context.Context, tx *sql.Tx, question *model.Question) error {
	for _, rp := range question.ReponsesPossibles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reponses_possibles (id, question_id, libelle, est_correct, ordre)
			 VALUES ($1, $2, $3, $4, $5)`,
			rp.ID, question.ID, rp.Libelle, rp.EstCorrect, rp.Ordre,
		)
		if err != nil {
			return fmt.Errorf("選択肢の作成に失敗しました: %w", err)
		}
	}
	return nil
}

// Delete は質問を削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresQuestionRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("質問の削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// CountSessionRefs は質問を参照するsession_questions行数を返す。
func (r *PostgresQuestionRepo) CountSessionRefs(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_questions WHERE question_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("質問の参照数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ListThemes は全テーマを名前順で返す。
func (r *PostgresQuestionRepo) ListThemes(ctx context.Context) ([]*model.Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nom, description, created_at FROM themes ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("テーマ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var themes []*model.Theme
	for rows.Next() {
		theme := &model.Theme{}
		err := rows.Scan(&theme.ID, &theme.Nom, &theme.Description, &theme.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("テーマ行の読み取りに失敗しました: %w", err)
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("テーマ一覧の走査に失敗しました: %w", err)
	}
	return themes, nil
}

// FindThemeByID は指定IDのテーマを取得する。見つからない場合はnilを返す。
func (r *PostgresQuestionRepo) FindThemeByID(ctx context.Context, id string) (*model.Theme, error) {
	theme := &model.Theme{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, nom, description, created_at FROM themes WHERE id = $1`, id,
	).Scan(&theme.ID, &theme.Nom, &theme.Description, &theme.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("テーマの取得に失敗しました: %w", err)
	}
	return theme, nil
}

// ListTypes は全質問形式を返す。
func (r *PostgresQuestionRepo) ListTypes(ctx context.Context) ([]*model.TypeQuestion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nom, description FROM types_questions ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("質問形式一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var types []*model.TypeQuestion
	for rows.Next() {
		tq := &model.TypeQuestion{}
		err := rows.Scan(&tq.ID, &tq.Nom, &tq.Description)
		if err != nil {
			return nil, fmt.Errorf("質問形式行の読み取りに失敗しました: %w", err)
		}
		types = append(types, tq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("質問形式一覧の走査に失敗しました: %w", err)
	}
	return types, nil
}

var _ QuestionRepository = (*PostgresQuestionRepo)(nil)
