package question

import (
	"context"
	"errors"
	"testing"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// --- モック ---

type mockQuestionRepo struct {
	createFn        func(ctx context.Context, q *model.Question) error
	updateFn        func(ctx context.Context, q *model.Question) (bool, error)
	deleteFn        func(ctx context.Context, id string) (bool, error)
	countSessionsFn func(ctx context.Context, id string) (int, error)
	findThemeFn     func(ctx context.Context, id string) (*model.Theme, error)
}

func (m *mockQuestionRepo) FindByID(ctx context.Context, id string) (*model.Question, error) {
	return nil, nil
}
func (m *mockQuestionRepo) ListAll(ctx context.Context) ([]*model.Question, error) { return nil, nil }
func (m *mockQuestionRepo) ListIDsByTheme(ctx context.Context, themeID string) ([]string, error) {
	return nil, nil
}
func (m *mockQuestionRepo) CreateWithReponses(ctx context.Context, q *model.Question) error {
	if m.createFn != nil {
		return m.createFn(ctx, q)
	}
	return nil
}
func (m *mockQuestionRepo) UpdateWithReponses(ctx context.Context, q *model.Question) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, q)
	}
	return true, nil
}
func (m *mockQuestionRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}
func (m *mockQuestionRepo) CountSessionRefs(ctx context.Context, id string) (int, error) {
	if m.countSessionsFn != nil {
		return m.countSessionsFn(ctx, id)
	}
	return 0, nil
}
func (m *mockQuestionRepo) ListThemes(ctx context.Context) ([]*model.Theme, error) {
	return nil, nil
}
func (m *mockQuestionRepo) FindThemeByID(ctx context.Context, id string) (*model.Theme, error) {
	if m.findThemeFn != nil {
		return m.findThemeFn(ctx, id)
	}
	return &model.Theme{ID: id, Nom: "Logique"}, nil
}
func (m *mockQuestionRepo) ListTypes(ctx context.Context) ([]*model.TypeQuestion, error) {
	return []*model.TypeQuestion{
		{ID: "type-unique", Nom: model.TypeChoixUnique},
		{ID: "type-multiple", Nom: model.TypeChoixMultiple},
	}, nil
}

type mockParamRepo struct {
	updateFn func(ctx context.Context, nom, valeur string) (bool, error)
}

func (m *mockParamRepo) GetInt(ctx context.Context, nom string, defaultVal int) (int, error) {
	return defaultVal, nil
}
func (m *mockParamRepo) ListAll(ctx context.Context) ([]*model.Parametre, error) { return nil, nil }
func (m *mockParamRepo) Update(ctx context.Context, nom, valeur string) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, nom, valeur)
	}
	return true, nil
}

func validQuestionRequest() QuestionRequest {
	return QuestionRequest{
		ThemeID:        "theme-1",
		TypeQuestionID: "type-unique",
		Libelle:        "Quelle est la complexité de la recherche dichotomique ?",
		Reponses: []ReponseRequest{
			{Libelle: "O(log n)", EstCorrect: true},
			{Libelle: "O(n)"},
			{Libelle: "O(n log n)"},
		},
	}
}

// --- テスト ---

// 作成時に選択肢へIDと順序が振られることを検証する。
func TestService_Creer_AssignsIDsAndOrder(t *testing.T) {
	var created *model.Question
	repo := &mockQuestionRepo{
		createFn: func(_ context.Context, q *model.Question) error {
			created = q
			return nil
		},
	}
	s := NewService(repo, &mockParamRepo{})

	question, err := s.Creer(context.Background(), validQuestionRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("question should be created")
	}
	if len(question.ReponsesPossibles) != 3 {
		t.Fatalf("len(reponses) = %d", len(question.ReponsesPossibles))
	}
	for i, rp := range question.ReponsesPossibles {
		if rp.ID == "" || rp.QuestionID != question.ID {
			t.Errorf("reponse %d should be bound to the question", i)
		}
		if rp.Ordre != i+1 {
			t.Errorf("reponse %d Ordre = %d", i, rp.Ordre)
		}
	}
}

// 正解の無い質問がQUESTION_SANS_BONNE_REPONSEで拒否されることを検証する。
func TestService_Creer_NoCorrectAnswer(t *testing.T) {
	s := NewService(&mockQuestionRepo{}, &mockParamRepo{})

	req := validQuestionRequest()
	for i := range req.Reponses {
		req.Reponses[i].EstCorrect = false
	}

	_, err := s.Creer(context.Background(), req)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeQuestionSansBonne {
		t.Fatalf("expected QUESTION_SANS_BONNE_REPONSE, got %v", err)
	}
}

// 単一選択で複数正解の質問が拒否されることを検証する。
func TestService_Creer_SingleChoiceMultipleCorrect(t *testing.T) {
	s := NewService(&mockQuestionRepo{}, &mockParamRepo{})

	req := validQuestionRequest()
	req.Reponses[1].EstCorrect = true

	_, err := s.Creer(context.Background(), req)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDonneesInvalides {
		t.Fatalf("expected DONNEES_INVALIDES, got %v", err)
	}
}

// 複数選択では複数正解が許可されることを検証する。
func TestService_Creer_MultipleChoiceMultipleCorrect(t *testing.T) {
	s := NewService(&mockQuestionRepo{}, &mockParamRepo{})

	req := validQuestionRequest()
	req.TypeQuestionID = "type-multiple"
	req.Reponses[1].EstCorrect = true

	if _, err := s.Creer(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// 存在しないテーマへの作成がTHEME_INTROUVABLEで拒否されることを検証する。
func TestService_Creer_UnknownTheme(t *testing.T) {
	repo := &mockQuestionRepo{
		findThemeFn: func(_ context.Context, _ string) (*model.Theme, error) {
			return nil, nil
		},
	}
	s := NewService(repo, &mockParamRepo{})

	_, err := s.Creer(context.Background(), validQuestionRequest())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeThemeIntrouvable {
		t.Fatalf("expected THEME_INTROUVABLE, got %v", err)
	}
}

// セッションから参照されている質問の削除がQUESTION_UTILISEEで拒否されることを検証する。
func TestService_Supprimer_ReferencedQuestion(t *testing.T) {
	repo := &mockQuestionRepo{
		countSessionsFn: func(_ context.Context, _ string) (int, error) {
			return 2, nil
		},
	}
	s := NewService(repo, &mockParamRepo{})

	err := s.Supprimer(context.Background(), "question-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeQuestionUtilisee {
		t.Fatalf("expected QUESTION_UTILISEE, got %v", err)
	}
}

// パラメータ更新が正の整数以外を拒否することを検証する。
func TestService_ModifierParametre_RejectsNonPositive(t *testing.T) {
	s := NewService(&mockQuestionRepo{}, &mockParamRepo{})

	for _, valeur := range []string{"abc", "0", "-3"} {
		err := s.ModifierParametre(context.Background(), model.ParamNombreQuestionsParTheme, valeur)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDonneesInvalides {
			t.Errorf("valeur %q: expected DONNEES_INVALIDES, got %v", valeur, err)
		}
	}
}

// 存在しないパラメータの更新がPARAMETRE_INTROUVABLEになることを検証する。
func TestService_ModifierParametre_Unknown(t *testing.T) {
	paramRepo := &mockParamRepo{
		updateFn: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
	}
	s := NewService(&mockQuestionRepo{}, paramRepo)

	err := s.ModifierParametre(context.Background(), "INCONNU", "5")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeParametreIntrouvable {
		t.Fatalf("expected PARAMETRE_INTROUVABLE, got %v", err)
	}
}
