package candidat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// --- モック ---

type mockCandidatRepo struct {
	createFn            func(ctx context.Context, c *model.Candidat) error
	findByIDFn          func(ctx context.Context, id string) (*model.Candidat, error)
	findByEmailFn       func(ctx context.Context, email string) (*model.Candidat, error)
	findByCodeFn        func(ctx context.Context, code string) (*model.Candidat, error)
	assignCodeFn        func(ctx context.Context, id, code string) (bool, error)
	deleteAndReleaseFn  func(ctx context.Context, candidatID, creneauID string) error
	listByEstValideFn   func(ctx context.Context, estValide bool) ([]*model.Candidat, error)
	searchFn            func(ctx context.Context, term string) ([]*model.Candidat, error)
	listAllFn           func(ctx context.Context) ([]*model.Candidat, error)
}

func (m *mockCandidatRepo) Create(ctx context.Context, c *model.Candidat) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}
func (m *mockCandidatRepo) FindByID(ctx context.Context, id string) (*model.Candidat, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockCandidatRepo) FindByEmail(ctx context.Context, email string) (*model.Candidat, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockCandidatRepo) FindByCodeSession(ctx context.Context, code string) (*model.Candidat, error) {
	if m.findByCodeFn != nil {
		return m.findByCodeFn(ctx, code)
	}
	return nil, nil
}
func (m *mockCandidatRepo) Search(ctx context.Context, term string) ([]*model.Candidat, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, term)
	}
	return nil, nil
}
func (m *mockCandidatRepo) ListAll(ctx context.Context) ([]*model.Candidat, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}
func (m *mockCandidatRepo) ListByEstValide(ctx context.Context, estValide bool) ([]*model.Candidat, error) {
	if m.listByEstValideFn != nil {
		return m.listByEstValideFn(ctx, estValide)
	}
	return nil, nil
}
func (m *mockCandidatRepo) AssignCodeSession(ctx context.Context, id, code string) (bool, error) {
	if m.assignCodeFn != nil {
		return m.assignCodeFn(ctx, id, code)
	}
	return true, nil
}
func (m *mockCandidatRepo) DeleteAndReleaseSlot(ctx context.Context, candidatID, creneauID string) error {
	if m.deleteAndReleaseFn != nil {
		return m.deleteAndReleaseFn(ctx, candidatID, creneauID)
	}
	return nil
}

type mockCreneauRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.CreneauHoraire, error)
	reserveFn  func(ctx context.Context, id string) (bool, error)
	releaseFn  func(ctx context.Context, id string) error
}

func (m *mockCreneauRepo) FindByID(ctx context.Context, id string) (*model.CreneauHoraire, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.CreneauHoraire{ID: id, PlacesRestantes: 5}, nil
}
func (m *mockCreneauRepo) ListAvailable(ctx context.Context, today time.Time) ([]*model.CreneauHoraire, error) {
	return nil, nil
}
func (m *mockCreneauRepo) ListAll(ctx context.Context) ([]*model.CreneauHoraire, error) {
	return nil, nil
}
func (m *mockCreneauRepo) Create(ctx context.Context, c *model.CreneauHoraire) error { return nil }
func (m *mockCreneauRepo) Update(ctx context.Context, c *model.CreneauHoraire) (bool, error) {
	return true, nil
}
func (m *mockCreneauRepo) Delete(ctx context.Context, id string) (bool, error) { return true, nil }
func (m *mockCreneauRepo) Reserve(ctx context.Context, id string) (bool, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, id)
	}
	return true, nil
}
func (m *mockCreneauRepo) Release(ctx context.Context, id string) error {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, id)
	}
	return nil
}
func (m *mockCreneauRepo) CountReferences(ctx context.Context, id string) (int, error) {
	return 0, nil
}

type mockNotifier struct {
	sent []string
	err  error
}

func (m *mockNotifier) SendCodeSession(_ context.Context, _ *model.Candidat, code string) error {
	m.sent = append(m.sent, code)
	return m.err
}

func validRequest() InscriptionRequest {
	return InscriptionRequest{
		Nom:       "El Amrani",
		Prenom:    "Yasmine",
		Ecole:     "ENSIAS",
		Filiere:   "Génie Logiciel",
		Email:     "Yasmine@Example.com",
		Gsm:       "0612345678",
		CreneauID: "creneau-1",
	}
}

// --- テスト ---

// GenerateCodeが8文字の英大文字・数字を返すことを検証する。
func TestGenerateCode_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("len(code) = %d, want 8", len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains invalid character %q", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly unique codes, got %d distinct of 50", len(seen))
	}
}

// 登録が残席を予約しメールを正規化することを検証する。
func TestService_Inscrire_Success(t *testing.T) {
	var created *model.Candidat
	reserved := false

	candidatRepo := &mockCandidatRepo{
		createFn: func(_ context.Context, c *model.Candidat) error {
			created = c
			return nil
		},
	}
	creneauRepo := &mockCreneauRepo{
		reserveFn: func(_ context.Context, id string) (bool, error) {
			reserved = true
			return true, nil
		},
	}

	s := NewService(candidatRepo, creneauRepo, nil)
	candidat, err := s.Inscrire(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reserved {
		t.Error("slot should be reserved")
	}
	if created == nil {
		t.Fatal("candidat should be created")
	}
	if candidat.Email != "yasmine@example.com" {
		t.Errorf("email = %q, want normalized lowercase", candidat.Email)
	}
	if candidat.EstValide || candidat.CodeSession != nil {
		t.Error("new candidat should be pending without a code")
	}
}

// 入力不正の登録がDONNEES_INVALIDESで拒否されることを検証する。
func TestService_Inscrire_InvalidInput(t *testing.T) {
	s := NewService(&mockCandidatRepo{}, &mockCreneauRepo{}, nil)

	req := validRequest()
	req.Email = "pas-un-email"

	_, err := s.Inscrire(context.Background(), req)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDonneesInvalides {
		t.Fatalf("expected DONNEES_INVALIDES, got %v", err)
	}
}

// メールアドレス重複の登録が拒否されることを検証する。
func TestService_Inscrire_DuplicateEmail(t *testing.T) {
	candidatRepo := &mockCandidatRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.Candidat, error) {
			return &model.Candidat{ID: "existing", Email: email}, nil
		},
	}
	s := NewService(candidatRepo, &mockCreneauRepo{}, nil)

	_, err := s.Inscrire(context.Background(), validRequest())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailDejaUtilise {
		t.Fatalf("expected EMAIL_DEJA_UTILISE, got %v", err)
	}
}

// 満席の受験枠への登録がCRENEAU_COMPLETで拒否されることを検証する。
func TestService_Inscrire_FullSlot(t *testing.T) {
	creneauRepo := &mockCreneauRepo{
		reserveFn: func(_ context.Context, _ string) (bool, error) {
			return false, nil
		},
	}
	s := NewService(&mockCandidatRepo{}, creneauRepo, nil)

	_, err := s.Inscrire(context.Background(), validRequest())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCreneauComplet {
		t.Fatalf("expected CRENEAU_COMPLET, got %v", err)
	}
}

// 候補者作成の失敗時に予約済み残席が返却されることを検証する。
func TestService_Inscrire_ReleasesSlotOnCreateFailure(t *testing.T) {
	released := false
	candidatRepo := &mockCandidatRepo{
		createFn: func(_ context.Context, _ *model.Candidat) error {
			return errors.New("insert failed")
		},
	}
	creneauRepo := &mockCreneauRepo{
		releaseFn: func(_ context.Context, _ string) error {
			released = true
			return nil
		},
	}
	s := NewService(candidatRepo, creneauRepo, nil)

	if _, err := s.Inscrire(context.Background(), validRequest()); err == nil {
		t.Fatal("expected error")
	}
	if !released {
		t.Error("reserved place should be released after create failure")
	}
}

// 検証がコードを発行し通知を送ることを検証する。
func TestService_Valider_IssuesCodeAndNotifies(t *testing.T) {
	var assignedCode string
	candidatRepo := &mockCandidatRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Candidat, error) {
			return &model.Candidat{ID: id, Email: "a@b.com"}, nil
		},
		assignCodeFn: func(_ context.Context, _, code string) (bool, error) {
			assignedCode = code
			return true, nil
		},
	}
	notifier := &mockNotifier{}
	s := NewService(candidatRepo, &mockCreneauRepo{}, notifier)

	candidat, err := s.Valider(context.Background(), "candidat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !candidat.EstValide || candidat.CodeSession == nil {
		t.Fatal("candidat should be validated with a code")
	}
	if *candidat.CodeSession != assignedCode {
		t.Errorf("returned code %q != assigned code %q", *candidat.CodeSession, assignedCode)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != assignedCode {
		t.Errorf("notifier should receive the issued code, got %v", notifier.sent)
	}
}

// 検証済み候補者の再検証が冪等に成功することを検証する。
func TestService_Valider_Idempotent(t *testing.T) {
	code := "AB12CD34"
	assignCalled := false
	candidatRepo := &mockCandidatRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Candidat, error) {
			return &model.Candidat{ID: id, EstValide: true, CodeSession: &code}, nil
		},
		assignCodeFn: func(_ context.Context, _, _ string) (bool, error) {
			assignCalled = true
			return true, nil
		},
	}
	notifier := &mockNotifier{}
	s := NewService(candidatRepo, &mockCreneauRepo{}, notifier)

	candidat, err := s.Valider(context.Background(), "candidat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *candidat.CodeSession != code {
		t.Errorf("existing code should be preserved, got %q", *candidat.CodeSession)
	}
	if assignCalled {
		t.Error("no new code should be assigned")
	}
	if len(notifier.sent) != 0 {
		t.Error("no notification should be sent on idempotent validation")
	}
}

// 通知失敗が検証の成功を妨げないことを検証する。
func TestService_Valider_NotificationFailureDoesNotRollback(t *testing.T) {
	candidatRepo := &mockCandidatRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Candidat, error) {
			return &model.Candidat{ID: id}, nil
		},
	}
	notifier := &mockNotifier{err: errors.New("smtp down")}
	s := NewService(candidatRepo, &mockCreneauRepo{}, notifier)

	candidat, err := s.Valider(context.Background(), "candidat-1")
	if err != nil {
		t.Fatalf("validation should succeed despite notification failure: %v", err)
	}
	if !candidat.EstValide {
		t.Error("candidat should be validated")
	}
}

// 保留中候補者の却下が残席を返すことを検証する。
func TestService_Rejeter_PendingCandidat(t *testing.T) {
	deleted := false
	candidatRepo := &mockCandidatRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Candidat, error) {
			return &model.Candidat{ID: id, CreneauID: "creneau-1"}, nil
		},
		deleteAndReleaseFn: func(_ context.Context, candidatID, creneauID string) error {
			deleted = true
			if creneauID != "creneau-1" {
				t.Errorf("creneauID = %q", creneauID)
			}
			return nil
		},
	}
	s := NewService(candidatRepo, &mockCreneauRepo{}, nil)

	if err := s.Rejeter(context.Background(), "candidat-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("candidat should be deleted with slot release")
	}
}

// 検証済み候補者の却下が拒否されることを検証する。
func TestService_Rejeter_ValidatedCandidat(t *testing.T) {
	code := "AB12CD34"
	candidatRepo := &mockCandidatRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Candidat, error) {
			return &model.Candidat{ID: id, EstValide: true, CodeSession: &code}, nil
		},
	}
	s := NewService(candidatRepo, &mockCreneauRepo{}, nil)

	err := s.Rejeter(context.Background(), "candidat-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCandidatDejaValide {
		t.Fatalf("expected CANDIDAT_DEJA_VALIDE, got %v", err)
	}
}

// コード未発行候補者への再送がCODE_NON_EMISで拒否されることを検証する。
func TestService_RenvoyerCode_PendingCandidat(t *testing.T) {
	candidatRepo := &mockCandidatRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Candidat, error) {
			return &model.Candidat{ID: id}, nil
		},
	}
	s := NewService(candidatRepo, &mockCreneauRepo{}, &mockNotifier{})

	err := s.RenvoyerCode(context.Background(), "candidat-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCodeNonEmis {
		t.Fatalf("expected CODE_NON_EMIS, got %v", err)
	}
}

// 有効なコードでのログインが候補者を返すことを検証する。
func TestService_Connexion_ValidCode(t *testing.T) {
	code := "AB12CD34"
	candidatRepo := &mockCandidatRepo{
		findByCodeFn: func(_ context.Context, c string) (*model.Candidat, error) {
			if c != code {
				return nil, nil
			}
			return &model.Candidat{ID: "candidat-1", EstValide: true, CodeSession: &code}, nil
		},
	}
	s := NewService(candidatRepo, &mockCreneauRepo{}, nil)

	candidat, err := s.Connexion(context.Background(), " ab12cd34 ")
	if err != nil {
		t.Fatalf("code should be trimmed and upper-cased: %v", err)
	}
	if candidat.ID != "candidat-1" {
		t.Errorf("candidat.ID = %q", candidat.ID)
	}
}

// 不正なコードでのログインがCODE_SESSION_INVALIDEで拒否されることを検証する。
func TestService_Connexion_InvalidCode(t *testing.T) {
	s := NewService(&mockCandidatRepo{}, &mockCreneauRepo{}, nil)

	_, err := s.Connexion(context.Background(), "ZZZZZZZZ")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCodeSessionInvalide {
		t.Fatalf("expected CODE_SESSION_INVALIDE, got %v", err)
	}
}
