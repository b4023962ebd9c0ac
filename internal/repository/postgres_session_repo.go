package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// PostgresSessionTestRepo はPostgreSQLを使用したテストセッションリポジトリ。
type PostgresSessionTestRepo struct {
	db *sql.DB
}

// NewPostgresSessionTestRepo はPostgresSessionTestRepoを生成する。
func NewPostgresSessionTestRepo(db *sql.DB) *PostgresSessionTestRepo {
	return &PostgresSessionTestRepo{db: db}
}

const sessionColumns = `id, candidat_id, creneau_id, date_debut, date_limite, date_fin,
	        est_termine, score_total, score_max, pourcentage, created_at`

// CreateWithQuestions はセッションと出題リストを同一トランザクションで作成する。
func (r *PostgresSessionTestRepo) CreateWithQuestions(ctx context.Context, session *model.SessionTest, questions []model.SessionQuestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_tests (id, candidat_id, creneau_id, date_debut, date_limite,
		                            est_termine, score_total, score_max, pourcentage, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, 0, 0, 0, $6)`,
		session.ID, session.CandidatID, session.CreneauID,
		session.DateDebut, session.DateLimite, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	for _, q := range questions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_questions (id, session_id, question_id, ordre_affichage, temps_alloue_sec)
			 VALUES ($1, $2, $3, $4, $5)`,
			q.ID, q.SessionID, q.QuestionID, q.OrdreAffichage, q.TempsAlloueSec,
		)
		if err != nil {
			return fmt.Errorf("出題行の作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionTestRepo) FindByID(ctx context.Context, id string) (*model.SessionTest, error) {
	return r.findOne(ctx, `SELECT `+sessionColumns+` FROM session_tests WHERE id = $1`, id)
}

// FindActive は候補者と受験枠に紐づく未終了セッションを返す。見つからない場合はnilを返す。
func (r *PostgresSessionTestRepo) FindActive(ctx context.Context, candidatID, creneauID string) (*model.SessionTest, error) {
	return r.findOne(ctx,
		`SELECT `+sessionColumns+`
		 FROM session_tests
		 WHERE candidat_id = $1 AND creneau_id = $2 AND est_termine = FALSE
		 ORDER BY date_debut DESC
		 LIMIT 1`,
		candidatID, creneauID)
}

func (r *PostgresSessionTestRepo) findOne(ctx context.Context, query string, args ...any) (*model.SessionTest, error) {
	session := &model.SessionTest{}
	var dateFin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&session.ID, &session.CandidatID, &session.CreneauID,
		&session.DateDebut, &session.DateLimite, &dateFin,
		&session.EstTermine, &session.ScoreTotal, &session.ScoreMax,
		&session.Pourcentage, &session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}

	if dateFin.Valid {
		session.DateFin = &dateFin.Time
	}
	return session, nil
}

// HasCompleted は候補者が指定受験枠で終了済みセッションを持つかを返す。
func (r *PostgresSessionTestRepo) HasCompleted(ctx context.Context, candidatID, creneauID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM session_tests
		   WHERE candidat_id = $1 AND creneau_id = $2 AND est_termine = TRUE
		 )`,
		candidatID, creneauID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("終了済みセッションの確認に失敗しました: %w", err)
	}
	return exists, nil
}

// ListByCandidat は候補者のセッションを開始日時の降順で返す。
func (r *PostgresSessionTestRepo) ListByCandidat(ctx context.Context, candidatID string) ([]*model.SessionTest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM session_tests
		 WHERE candidat_id = $1
		 ORDER BY date_debut DESC`,
		candidatID,
	)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []*model.SessionTest
	for rows.Next() {
		session := &model.SessionTest{}
		var dateFin sql.NullTime

		err := rows.Scan(
			&session.ID, &session.CandidatID, &session.CreneauID,
			&session.DateDebut, &session.DateLimite, &dateFin,
			&session.EstTermine, &session.ScoreTotal, &session.ScoreMax,
			&session.Pourcentage, &session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("セッション行の読み取りに失敗しました: %w", err)
		}
		if dateFin.Valid {
			session.DateFin = &dateFin.Time
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セッション一覧の走査に失敗しました: %w", err)
	}
	return sessions, nil
}

// ListAllWithCandidat は全セッションを候補者情報付きで返す。
func (r *PostgresSessionTestRepo) ListAllWithCandidat(ctx context.Context) ([]*model.SessionAvecCandidat, error) {
	return r.listWithCandidat(ctx,
		`SELECT s.id, s.candidat_id, s.creneau_id, s.date_debut, s.date_limite, s.date_fin,
		        s.est_termine, s.score_total, s.score_max, s.pourcentage, s.created_at,
		        c.nom, c.prenom, c.ecole, c.filiere, c.email, c.code_session
		 FROM session_tests s
		 JOIN candidats c ON c.id = s.candidat_id
		 ORDER BY s.date_debut DESC`)
}

// ListCompletedBetween は期間内に開始された終了済みセッションを候補者情報付きで返す。
func (r *PostgresSessionTestRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*model.SessionAvecCandidat, error) {
	return r.listWithCandidat(ctx,
		`SELECT s.id, s.candidat_id, s.creneau_id, s.date_debut, s.date_limite, s.date_fin,
		        s.est_termine, s.score_total, s.score_max, s.pourcentage, s.created_at,
		        c.nom, c.prenom, c.ecole, c.filiere, c.email, c.code_session
		 FROM session_tests s
		 JOIN candidats c ON c.id = s.candidat_id
		 WHERE s.est_termine = TRUE AND s.date_debut >= $1 AND s.date_debut <= $2
		 ORDER BY s.date_debut DESC`,
		from, to)
}

func (r *PostgresSessionTestRepo) listWithCandidat(ctx context.Context, query string, args ...any) ([]*model.SessionAvecCandidat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []*model.SessionAvecCandidat
	for rows.Next() {
		s := &model.SessionAvecCandidat{}
		var dateFin sql.NullTime
		var codeSession sql.NullString

		err := rows.Scan(
			&s.ID, &s.CandidatID, &s.CreneauID,
			&s.DateDebut, &s.DateLimite, &dateFin,
			&s.EstTermine, &s.ScoreTotal, &s.ScoreMax,
			&s.Pourcentage, &s.CreatedAt,
			&s.NomCandidat, &s.PrenomCandidat, &s.Ecole, &s.Filiere, &s.Email, &codeSession,
		)
		if err != nil {
			return nil, fmt.Errorf("セッション行の読み取りに失敗しました: %w", err)
		}
		if dateFin.Valid {
			s.DateFin = &dateFin.Time
		}
		if codeSession.Valid {
			s.CodeSession = codeSession.String
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セッション一覧の走査に失敗しました: %w", err)
	}
	return sessions, nil
}

// ListQuestions はセッションの出題リストを表示順で返す。
func (r *PostgresSessionTestRepo) ListQuestions(ctx context.Context, sessionID string) ([]model.SessionQuestion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, question_id, ordre_affichage, temps_alloue_sec
		 FROM session_questions
		 WHERE session_id = $1
		 ORDER BY ordre_affichage`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("出題一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var questions []model.SessionQuestion
	for rows.Next() {
		var q model.SessionQuestion
		err := rows.Scan(&q.ID, &q.SessionID, &q.QuestionID, &q.OrdreAffichage, &q.TempsAlloueSec)
		if err != nil {
			return nil, fmt.Errorf("出題行の読み取りに失敗しました: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("出題一覧の走査に失敗しました: %w", err)
	}
	return questions, nil
}

// FindSessionQuestion はセッションと質問IDから出題行を取得する。見つからない場合はnilを返す。
func (r *PostgresSessionTestRepo) FindSessionQuestion(ctx context.Context, sessionID, questionID string) (*model.SessionQuestion, error) {
	q := &model.SessionQuestion{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, question_id, ordre_affichage, temps_alloue_sec
		 FROM session_questions
		 WHERE session_id = $1 AND question_id = $2`,
		sessionID, questionID,
	).Scan(&q.ID, &q.SessionID, &q.QuestionID, &q.OrdreAffichage, &q.TempsAlloueSec)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("出題行の取得に失敗しました: %w", err)
	}
	return q, nil
}

// UpsertReponse は回答を冪等にUPSERTする。再提出は既存行を上書きする。
func (r *PostgresSessionTestRepo) UpsertReponse(ctx context.Context, sessionQuestionID string, choix []string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reponses_candidat (id, session_question_id, reponses_choisies, repondu_le)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (session_question_id)
		 DO UPDATE SET reponses_choisies = EXCLUDED.reponses_choisies, repondu_le = now()`,
		uuid.NewString(), sessionQuestionID, pq.Array(choix),
	)
	if err != nil {
		return fmt.Errorf("回答の保存に失敗しました: %w", err)
	}
	return nil
}

// ListReponses はセッション内の保存済み回答を返す。
func (r *PostgresSessionTestRepo) ListReponses(ctx context.Context, sessionID string) ([]model.ReponseCandidat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rc.id, rc.session_question_id, rc.reponses_choisies, rc.repondu_le
		 FROM reponses_candidat rc
		 JOIN session_questions sq ON sq.id = rc.session_question_id
		 WHERE sq.session_id = $1`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("回答一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reponses []model.ReponseCandidat
	for rows.Next() {
		var rep model.ReponseCandidat
		err := rows.Scan(&rep.ID, &rep.SessionQuestionID, pq.Array(&rep.ReponsesChoisies), &rep.ReponduLe)
		if err != nil {
			return nil, fmt.Errorf("回答行の読み取りに失敗しました: %w", err)
		}
		reponses = append(reponses, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("回答一覧の走査に失敗しました: %w", err)
	}
	return reponses, nil
}

// ClaimCompletion はセッションを終了状態に遷移させる。遷移できた場合のみtrueを返す。
func (r *PostgresSessionTestRepo) ClaimCompletion(ctx context.Context, sessionID string, enforceDeadline bool) (bool, error) {
	query := `UPDATE session_tests
	          SET est_termine = TRUE, date_fin = now()
	          WHERE id = $1 AND est_termine = FALSE`
	if enforceDeadline {
		query += ` AND now() <= date_limite`
	}

	result, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return false, fmt.Errorf("セッションの終了に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// SetScores は終了済みセッションの確定スコアを書き込む。
func (r *PostgresSessionTestRepo) SetScores(ctx context.Context, sessionID string, scoreTotal, scoreMax, pourcentage int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_tests
		 SET score_total = $2, score_max = $3, pourcentage = $4
		 WHERE id = $1`,
		sessionID, scoreTotal, scoreMax, pourcentage,
	)
	if err != nil {
		return fmt.Errorf("スコアの保存に失敗しました: %w", err)
	}
	return nil
}

// ListScoringRows は採点に必要な行を返す。未回答の出題も1行として含む。
func (r *PostgresSessionTestRepo) ListScoringRows(ctx context.Context, sessionID string) ([]ScoringRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sq.id, q.id, t.id, t.nom,
		        COALESCE((SELECT array_agg(rp.id ORDER BY rp.ordre)
		                  FROM reponses_possibles rp
		                  WHERE rp.question_id = q.id AND rp.est_correct), '{}'),
		        COALESCE(rc.reponses_choisies, '{}'),
		        rc.id IS NOT NULL
		 FROM session_questions sq
		 JOIN questions q ON q.id = sq.question_id
		 JOIN themes t ON t.id = q.theme_id
		 LEFT JOIN reponses_candidat rc ON rc.session_question_id = sq.id
		 WHERE sq.session_id = $1
		 ORDER BY sq.ordre_affichage`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("採点行の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var scoring []ScoringRow
	for rows.Next() {
		var row ScoringRow
		err := rows.Scan(
			&row.SessionQuestionID, &row.QuestionID, &row.ThemeID, &row.NomTheme,
			pq.Array(&row.CorrectIDs), pq.Array(&row.ChoixIDs), &row.Repondu,
		)
		if err != nil {
			return nil, fmt.Errorf("採点行の読み取りに失敗しました: %w", err)
		}
		scoring = append(scoring, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("採点行の走査に失敗しました: %w", err)
	}
	return scoring, nil
}

// ListExpiredIDs は締切を過ぎた未終了セッションのIDを返す。
func (r *PostgresSessionTestRepo) ListExpiredIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM session_tests
		 WHERE est_termine = FALSE AND now() > date_limite
		 ORDER BY date_limite
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("期限切れセッションの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("期限切れセッション行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("期限切れセッション一覧の走査に失敗しました: %w", err)
	}
	return ids, nil
}

var _ SessionTestRepository = (*PostgresSessionTestRepo)(nil)
