package soin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/auth"
)

type mockRepo struct {
	dossiers map[int64]*DossierRef
	soins    map[uuid.UUID]*Soin
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		dossiers: make(map[int64]*DossierRef),
		soins:    make(map[uuid.UUID]*Soin),
	}
}

func (m *mockRepo) Create(_ context.Context, s *Soin) error {
	s.ID = uuid.New()
	m.soins[s.ID] = s
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.soins[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.soins, id)
	return nil
}

func (m *mockRepo) ListByDPI(_ context.Context, dpiID uuid.UUID) ([]*Soin, error) {
	var out []*Soin
	for _, s := range m.soins {
		if s.DPIID == dpiID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepo) GetDossierByNSS(_ context.Context, nss int64) (*DossierRef, error) {
	ref, ok := m.dossiers[nss]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ref, nil
}

func testService(repo *mockRepo) *Service {
	return NewService(repo, zerolog.Nop())
}

func seedDossier(repo *mockRepo, nss int64) *DossierRef {
	ref := &DossierRef{ID: uuid.New(), NSS: nss, PatientID: uuid.New()}
	repo.dossiers[nss] = ref
	return ref
}

func TestAjouter(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo)
	ref := seedDossier(repo, 123456789)
	infirmierID := uuid.New()

	record, err := svc.Ajouter(context.Background(), infirmierID, AjouterInput{
		NSS:   123456789,
		Date:  "2026-02-01",
		Soins: "pansement",
	})
	if err != nil {
		t.Fatalf("Ajouter: %v", err)
	}
	if record.DPIID != ref.ID {
		t.Error("soin not bound to the resolved folder")
	}
	if record.InfirmierID != infirmierID {
		t.Error("caller not recorded as the nurse")
	}
}

func TestAjouter_DateParDefaut(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo)
	seedDossier(repo, 123456789)

	record, err := svc.Ajouter(context.Background(), uuid.New(), AjouterInput{NSS: 123456789, Soins: "injection"})
	if err != nil {
		t.Fatalf("Ajouter: %v", err)
	}
	if time.Since(record.Date) > 24*time.Hour {
		t.Errorf("date = %v, want today", record.Date)
	}
}

func TestAjouter_DPIInconnu(t *testing.T) {
	svc := testService(newMockRepo())

	_, err := svc.Ajouter(context.Background(), uuid.New(), AjouterInput{NSS: 999999998, Soins: "pansement"})
	if !errors.Is(err, ErrDPIIntrouvable) {
		t.Fatalf("err = %v, want ErrDPIIntrouvable", err)
	}
}

func TestListParNSS_Ownership(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo)
	ref := seedDossier(repo, 123456789)

	if _, err := svc.Ajouter(context.Background(), uuid.New(), AjouterInput{NSS: 123456789, Soins: "pansement"}); err != nil {
		t.Fatalf("Ajouter: %v", err)
	}

	owner := context.WithValue(context.Background(), auth.RoleKey, auth.RolePatient)
	owner = context.WithValue(owner, auth.UserIDKey, ref.PatientID)
	if soins, err := svc.ListParNSS(owner, 123456789); err != nil || len(soins) != 1 {
		t.Errorf("owner read = %d soins, err %v", len(soins), err)
	}

	other := context.WithValue(context.Background(), auth.RoleKey, auth.RolePatient)
	other = context.WithValue(other, auth.UserIDKey, uuid.New())
	if _, err := svc.ListParNSS(other, 123456789); !errors.Is(err, ErrAccesRefuse) {
		t.Errorf("other patient err = %v, want ErrAccesRefuse", err)
	}

	infirmier := context.WithValue(context.Background(), auth.RoleKey, auth.RoleInfirmier)
	if _, err := svc.ListParNSS(infirmier, 123456789); err != nil {
		t.Errorf("infirmier read err = %v", err)
	}
}

func TestSupprimer(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo)
	seedDossier(repo, 123456789)

	record, err := svc.Ajouter(context.Background(), uuid.New(), AjouterInput{NSS: 123456789, Soins: "pansement"})
	if err != nil {
		t.Fatalf("Ajouter: %v", err)
	}

	if err := svc.Supprimer(context.Background(), record.ID); err != nil {
		t.Fatalf("Supprimer: %v", err)
	}
	if err := svc.Supprimer(context.Background(), record.ID); !errors.Is(err, ErrSoinIntrouvable) {
		t.Fatalf("second delete err = %v, want ErrSoinIntrouvable", err)
	}
}
