// Package model はドメインモデルを定義する。
package model

import "time"

// Theme は質問を分類しテーマ別スコアの単位となる科目カテゴリを表す。
type Theme struct {
	ID          string
	Nom         string
	Description string
	CreatedAt   time.Time
}

// TypeQuestion は質問の形式（単一選択・複数選択など）を表す。
type TypeQuestion struct {
	ID          string
	Nom         string
	Description string
}

// 既定の質問形式名
const (
	TypeChoixUnique   = "choix_unique"
	TypeChoixMultiple = "choix_multiple"
)

// Question は出題可能な質問を表す。
// 少なくとも1つのReponsePossibleがEstCorrect == trueであることを
// サービス層が作成・更新時に保証する。
type Question struct {
	ID                string
	ThemeID           string
	TypeQuestionID    string
	Libelle           string
	Explication       string
	ReponsesPossibles []ReponsePossible
	CreatedAt         time.Time
}

// CorrectIDs は正解選択肢のID集合を返す。
func (q *Question) CorrectIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, r := range q.ReponsesPossibles {
		if r.EstCorrect {
			ids[r.ID] = true
		}
	}
	return ids
}

// ReponsePossible は質問の選択肢を表す。
type ReponsePossible struct {
	ID         string
	QuestionID string
	Libelle    string
	EstCorrect bool
	Ordre      int
}
