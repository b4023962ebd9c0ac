// Package model はドメインモデルを定義する。
package model

import "time"

// Candidat は受験候補者を表す。
// CodeSessionは管理者による検証時にのみ発行され、
// EstValide == true と CodeSession != nil は常に同値である。
type Candidat struct {
	ID          string
	Nom         string
	Prenom      string
	Ecole       string
	Filiere     string // 任意項目
	Email       string
	Gsm         string
	EstValide   bool
	CodeSession *string
	CreneauID   string
	CreatedAt   time.Time
}

// CreneauHoraire は定員付きの受験枠を表す。
// PlacesRestantesは予約のたびに条件付きUPDATEで減算され、負にならない。
type CreneauHoraire struct {
	ID              string
	DateExam        time.Time // 日付部分のみ有効
	HeureDebut      string    // "HH:MM" 形式
	DureeMinutes    int
	PlacesTotales   int
	PlacesRestantes int
	CreatedAt       time.Time
}

// Debut は受験枠の開始日時を返す。
// HeureDebutの形式が不正な場合はDateExamの0時を返す。
func (c *CreneauHoraire) Debut() time.Time {
	t, err := time.Parse("15:04", c.HeureDebut)
	if err != nil {
		return c.DateExam
	}
	return time.Date(
		c.DateExam.Year(), c.DateExam.Month(), c.DateExam.Day(),
		t.Hour(), t.Minute(), 0, 0, c.DateExam.Location(),
	)
}

// Fin は受験枠の終了日時を返す。
// 終了時刻は開始時刻と所要時間から常に導出し、独立に保存しない。
func (c *CreneauHoraire) Fin() time.Time {
	return c.Debut().Add(time.Duration(c.DureeMinutes) * time.Minute)
}

// HeureFin は終了時刻を "HH:MM" 形式で返す。
func (c *CreneauHoraire) HeureFin() string {
	return c.Fin().Format("15:04")
}

// Administrateur はプラットフォーム管理者を表す。
type Administrateur struct {
	ID           string
	Username     string
	PasswordHash string // bcryptハッシュ
	Email        string
	Nom          string
	Prenom       string
	EstActif     bool
	CreatedAt    time.Time
}

// Parametre はテスト生成の調整値を表す（例: テーマごとの出題数）。
type Parametre struct {
	Nom    string
	Valeur string
}

// テスト生成パラメータの既定名
const (
	ParamNombreQuestionsParTheme = "NOMBRE_QUESTIONS_PAR_THEME"
	ParamTempsQuestionParDefaut  = "TEMPS_QUESTION_PAR_DEFAUT"
)
