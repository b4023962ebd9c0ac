// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// MessageとActionはフロントエンドがそのまま表示するためフランス語とする。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDonneesInvalides      = "DONNEES_INVALIDES"
	ErrCodeEmailDejaUtilise      = "EMAIL_DEJA_UTILISE"
	ErrCodeCandidatIntrouvable   = "CANDIDAT_INTROUVABLE"
	ErrCodeCandidatDejaValide    = "CANDIDAT_DEJA_VALIDE"
	ErrCodeCodeNonEmis           = "CODE_NON_EMIS"
	ErrCodeCodeSessionInvalide   = "CODE_SESSION_INVALIDE"
	ErrCodeCreneauIntrouvable    = "CRENEAU_INTROUVABLE"
	ErrCodeCreneauComplet        = "CRENEAU_COMPLET"
	ErrCodeCreneauUtilise        = "CRENEAU_UTILISE"
	ErrCodeCreneauHorsFenetre    = "CRENEAU_HORS_FENETRE"
	ErrCodeSessionIntrouvable    = "SESSION_INTROUVABLE"
	ErrCodeTestDejaTermine       = "TEST_DEJA_TERMINE"
	ErrCodeTempsEcoule           = "TEMPS_ECOULE"
	ErrCodeQuestionHorsSession   = "QUESTION_HORS_SESSION"
	ErrCodeQuestionIntrouvable   = "QUESTION_INTROUVABLE"
	ErrCodeQuestionUtilisee      = "QUESTION_UTILISEE"
	ErrCodeQuestionSansBonne     = "QUESTION_SANS_BONNE_REPONSE"
	ErrCodeAucuneQuestion        = "AUCUNE_QUESTION_DISPONIBLE"
	ErrCodeIdentifiantsInvalides = "IDENTIFIANTS_INVALIDES"
	ErrCodeThemeIntrouvable      = "THEME_INTROUVABLE"
	ErrCodeParametreIntrouvable  = "PARAMETRE_INTROUVABLE"
)

// NewValidationError は入力検証エラーを生成する。
// reasonには不正なフィールドの説明を渡す。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeDonneesInvalides,
		Message:  fmt.Sprintf("Les données saisies sont invalides : %s", reason),
		Category: "validation",
		Action:   "Vérifiez les champs du formulaire puis réessayez.",
	}
}

// NewEmailDejaUtiliseError はメールアドレス重複エラーを生成する。
func NewEmailDejaUtiliseError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailDejaUtilise,
		Message:  fmt.Sprintf("Un candidat avec l'adresse %s existe déjà.", email),
		Category: "conflict",
		Action:   "Utilisez une autre adresse e-mail ou contactez l'administration.",
	}
}

// NewCandidatIntrouvableError は候補者未検出エラーを生成する。
func NewCandidatIntrouvableError(candidatID string) *APIError {
	return &APIError{
		Code:     ErrCodeCandidatIntrouvable,
		Message:  fmt.Sprintf("Le candidat demandé est introuvable : %s", candidatID),
		Category: "validation",
		Action:   "Actualisez la liste des candidats puis réessayez.",
	}
}

// NewCandidatDejaValideError は検証済み候補者に対する不正操作エラーを生成する。
func NewCandidatDejaValideError() *APIError {
	return &APIError{
		Code:     ErrCodeCandidatDejaValide,
		Message:  "Ce candidat a déjà été validé et ne peut plus être rejeté.",
		Category: "conflict",
		Action:   "Un candidat validé doit conserver son inscription.",
	}
}

// NewCodeNonEmisError はコード未発行エラーを生成する。
func NewCodeNonEmisError() *APIError {
	return &APIError{
		Code:     ErrCodeCodeNonEmis,
		Message:  "Ce candidat n'a pas encore de code de session.",
		Category: "conflict",
		Action:   "Validez d'abord l'inscription du candidat.",
	}
}

// NewCodeSessionInvalideError は無効なセッションコードエラーを生成する。
func NewCodeSessionInvalideError() *APIError {
	return &APIError{
		Code:     ErrCodeCodeSessionInvalide,
		Message:  "Le code de session est invalide.",
		Category: "auth",
		Action:   "Vérifiez le code reçu par e-mail puis réessayez.",
	}
}

// NewCreneauIntrouvableError は受験枠未検出エラーを生成する。
func NewCreneauIntrouvableError(creneauID string) *APIError {
	return &APIError{
		Code:     ErrCodeCreneauIntrouvable,
		Message:  fmt.Sprintf("Le créneau horaire demandé est introuvable : %s", creneauID),
		Category: "validation",
		Action:   "Actualisez la liste des créneaux disponibles.",
	}
}

// NewCreneauCompletError は受験枠満席エラーを生成する。
func NewCreneauCompletError() *APIError {
	return &APIError{
		Code:     ErrCodeCreneauComplet,
		Message:  "Le créneau horaire choisi est complet.",
		Category: "conflict",
		Action:   "Choisissez un autre créneau disponible.",
	}
}

// NewCreneauUtiliseError は使用中の受験枠削除エラーを生成する。
func NewCreneauUtiliseError() *APIError {
	return &APIError{
		Code:     ErrCodeCreneauUtilise,
		Message:  "Ce créneau est référencé par des inscriptions ou des sessions de test.",
		Category: "conflict",
		Action:   "Supprimez d'abord les inscriptions associées.",
	}
}

// NewCreneauHorsFenetreError は受験枠の時間帯外エラーを生成する。
func NewCreneauHorsFenetreError() *APIError {
	return &APIError{
		Code:     ErrCodeCreneauHorsFenetre,
		Message:  "Le test ne peut pas être passé en dehors du créneau réservé.",
		Category: "conflict",
		Action:   "Présentez-vous à la date et à l'heure de votre créneau.",
	}
}

// NewSessionIntrouvableError はテストセッション未検出エラーを生成する。
func NewSessionIntrouvableError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionIntrouvable,
		Message:  fmt.Sprintf("La session de test demandée est introuvable : %s", sessionID),
		Category: "validation",
		Action:   "Vérifiez l'identifiant de la session.",
	}
}

// NewTestDejaTermineError はテスト終了済みエラーを生成する。
func NewTestDejaTermineError() *APIError {
	return &APIError{
		Code:     ErrCodeTestDejaTermine,
		Message:  "Le test a déjà été terminé pour ce créneau.",
		Category: "conflict",
		Action:   "Consultez vos résultats dans l'espace candidat.",
	}
}

// NewTempsEcouleError は制限時間超過エラーを生成する。
func NewTempsEcouleError() *APIError {
	return &APIError{
		Code:     ErrCodeTempsEcoule,
		Message:  "Le temps imparti pour le test est écoulé.",
		Category: "conflict",
		Action:   "Vos réponses enregistrées seront prises en compte.",
	}
}

// NewQuestionHorsSessionError はセッション外の質問への回答エラーを生成する。
func NewQuestionHorsSessionError(questionID string) *APIError {
	return &APIError{
		Code:     ErrCodeQuestionHorsSession,
		Message:  fmt.Sprintf("La question %s n'appartient pas à cette session de test.", questionID),
		Category: "validation",
		Action:   "Rechargez la liste des questions de la session.",
	}
}

// NewQuestionIntrouvableError は質問未検出エラーを生成する。
func NewQuestionIntrouvableError(questionID string) *APIError {
	return &APIError{
		Code:     ErrCodeQuestionIntrouvable,
		Message:  fmt.Sprintf("La question demandée est introuvable : %s", questionID),
		Category: "validation",
		Action:   "Actualisez la banque de questions.",
	}
}

// NewQuestionUtiliseeError は使用中の質問削除エラーを生成する。
func NewQuestionUtiliseeError() *APIError {
	return &APIError{
		Code:     ErrCodeQuestionUtilisee,
		Message:  "Cette question est référencée par des sessions de test existantes.",
		Category: "conflict",
		Action:   "Les questions déjà posées ne peuvent pas être supprimées.",
	}
}

// NewQuestionSansBonneReponseError は正解なし質問エラーを生成する。
func NewQuestionSansBonneReponseError() *APIError {
	return &APIError{
		Code:     ErrCodeQuestionSansBonne,
		Message:  "Une question doit comporter au moins une réponse correcte.",
		Category: "validation",
		Action:   "Marquez au moins une réponse comme correcte.",
	}
}

// NewAucuneQuestionError は出題可能な質問なしエラーを生成する。
func NewAucuneQuestionError() *APIError {
	return &APIError{
		Code:     ErrCodeAucuneQuestion,
		Message:  "Aucune question n'est disponible pour générer le test.",
		Category: "system",
		Action:   "Contactez l'administration de la plateforme.",
	}
}

// NewIdentifiantsInvalidesError は管理者認証失敗エラーを生成する。
func NewIdentifiantsInvalidesError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentifiantsInvalides,
		Message:  "Nom d'utilisateur ou mot de passe incorrect.",
		Category: "auth",
		Action:   "Vérifiez vos identifiants puis réessayez.",
	}
}

// NewThemeIntrouvableError はテーマ未検出エラーを生成する。
func NewThemeIntrouvableError(themeID string) *APIError {
	return &APIError{
		Code:     ErrCodeThemeIntrouvable,
		Message:  fmt.Sprintf("Le thème demandé est introuvable : %s", themeID),
		Category: "validation",
		Action:   "Vérifiez l'identifiant du thème.",
	}
}

// NewParametreIntrouvableError はパラメータ未検出エラーを生成する。
func NewParametreIntrouvableError(nom string) *APIError {
	return &APIError{
		Code:     ErrCodeParametreIntrouvable,
		Message:  fmt.Sprintf("Le paramètre demandé est introuvable : %s", nom),
		Category: "validation",
		Action:   "Vérifiez le nom du paramètre.",
	}
}
