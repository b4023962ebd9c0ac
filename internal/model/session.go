// Package model はドメインモデルを定義する。
package model

import "time"

// SessionTest は候補者1人の受験試行を表す。
// 状態遷移は Created → InProgress → Completed の一方向で、
// スコア項目はEstTermine == trueになった時点で確定し以後変更されない。
type SessionTest struct {
	ID         string
	CandidatID string
	CreneauID  string
	DateDebut  time.Time
	DateLimite time.Time // DateDebut + 受験枠の所要時間。サーバ側で強制する締切
	DateFin    *time.Time
	EstTermine bool
	ScoreTotal int
	ScoreMax   int
	// Pourcentage は round(ScoreTotal / ScoreMax * 100)。ScoreMax == 0 の場合は0。
	Pourcentage int
	CreatedAt   time.Time
}

// SessionQuestion はセッションに出題された質問1問を表す。
// 同一セッション内で質問は重複しない。
type SessionQuestion struct {
	ID              string
	SessionID       string
	QuestionID      string
	OrdreAffichage  int
	TempsAlloueSec  int
}

// ReponseCandidat は1問に対する候補者の回答を表す。
// session_questionごとに高々1件で、再提出は既存行を上書きする。
type ReponseCandidat struct {
	ID                string
	SessionQuestionID string
	ReponsesChoisies  []string // 選択されたReponsePossibleのID集合
	ReponduLe         time.Time
}

// ResultatTheme はテーマごとのスコア内訳を表す。
// 全テーマのScoreObtenuの合計はセッションのScoreTotalに一致する。
type ResultatTheme struct {
	ThemeID      string
	NomTheme     string
	ScoreObtenu  int
	ScoreMax     int
	Pourcentage  int
}

// SessionAvecCandidat は管理者向け一覧用にセッションと候補者情報を結合したモデル。
type SessionAvecCandidat struct {
	SessionTest
	NomCandidat    string
	PrenomCandidat string
	Ecole          string
	Filiere        string
	Email          string
	CodeSession    string
}

// Pourcentage はスコアから百分率を計算する。
// scoreMax == 0 の場合はエラーではなく0を返す。
func Pourcentage(scoreTotal, scoreMax int) int {
	if scoreMax <= 0 {
		return 0
	}
	return int(float64(scoreTotal)/float64(scoreMax)*100 + 0.5)
}
