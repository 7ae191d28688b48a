package consultation

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
	dossiers      map[int64]*DossierRef
	consultations map[uuid.UUID]*Consultation
	ordonnances   []*Ordonnance
	lignes        map[uuid.UUID][]*LigneOrdonnance
	details       map[uuid.UUID][]*Detail
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		dossiers:      make(map[int64]*DossierRef),
		consultations: make(map[uuid.UUID]*Consultation),
		lignes:        make(map[uuid.UUID][]*LigneOrdonnance),
		details:       make(map[uuid.UUID][]*Detail),
	}
}

func (m *mockRepo) Create(_ context.Context, c *Consultation) error {
	c.ID = uuid.New()
	m.consultations[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	c, ok := m.consultations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockRepo) Update(_ context.Context, c *Consultation) error {
	if _, ok := m.consultations[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.consultations[c.ID] = c
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.consultations[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.consultations, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Consultation, int, error) {
	var all []*Consultation
	for _, c := range m.consultations {
		all = append(all, c)
	}
	return all, len(all), nil
}

func (m *mockRepo) CreateOrdonnance(_ context.Context, o *Ordonnance) error {
	o.ID = uuid.New()
	m.ordonnances = append(m.ordonnances, o)
	return nil
}

func (m *mockRepo) CreateLigne(_ context.Context, ordonnanceID uuid.UUID, l *LigneOrdonnance) error {
	l.ID = uuid.New()
	m.lignes[ordonnanceID] = append(m.lignes[ordonnanceID], l)
	return nil
}

func (m *mockRepo) GetDossierByNSS(_ context.Context, nss int64) (*DossierRef, error) {
	ref, ok := m.dossiers[nss]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ref, nil
}

func (m *mockRepo) ListDetailByDPI(_ context.Context, dpiID uuid.UUID) ([]*Detail, error) {
	return m.details[dpiID], nil
}

type mockCatalog struct {
	known map[uuid.UUID]bool
}

func (m *mockCatalog) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type mockBilans struct {
	analyses []string
	images   []string
}

func (m *mockBilans) CreerDemandeAnalyse(_ context.Context, _ uuid.UUID, typ string) error {
	m.analyses = append(m.analyses, typ)
	return nil
}

func (m *mockBilans) CreerDemandeImage(_ context.Context, _ uuid.UUID, typ string) error {
	m.images = append(m.images, typ)
	return nil
}

// passTx runs the transactional closure without a database. Rollback
// semantics are asserted separately by checking no partial state remains
// visible through the service API.
func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testService(repo *mockRepo, catalog *mockCatalog, bilans *mockBilans) *Service {
	if catalog == nil {
		catalog = &mockCatalog{known: make(map[uuid.UUID]bool)}
	}
	if bilans == nil {
		bilans = &mockBilans{}
	}
	return NewService(repo, catalog, bilans, passTx, zerolog.Nop())
}

func seedDossier(repo *mockRepo, nss int64) *DossierRef {
	ref := &DossierRef{ID: uuid.New(), NSS: nss, PatientID: uuid.New()}
	repo.dossiers[nss] = ref
	return ref
}

func TestCreer(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	ref := seedDossier(repo, 123456789)
	medecinID := uuid.New()

	c, err := svc.Creer(context.Background(), medecinID, CreerInput{NSS: 123456789, Date: "2026-01-15", Resume: "contrôle"})
	if err != nil {
		t.Fatalf("Creer: %v", err)
	}
	if c.DPIID != ref.ID {
		t.Error("consultation not bound to the resolved folder")
	}
	if c.MedecinID != medecinID {
		t.Error("caller not recorded as the owning physician")
	}
}

func TestCreer_NSSInconnu(t *testing.T) {
	svc := testService(newMockRepo(), nil, nil)

	_, err := svc.Creer(context.Background(), uuid.New(), CreerInput{NSS: 999999998, Date: "2026-01-15"})
	if !errors.Is(err, ErrDPIIntrouvable) {
		t.Fatalf("err = %v, want ErrDPIIntrouvable", err)
	}
}

func TestCreer_DateInvalide(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	seedDossier(repo, 123456789)

	_, err := svc.Creer(context.Background(), uuid.New(), CreerInput{NSS: 123456789, Date: "15/01/2026"})
	if !errors.Is(err, ErrDateInvalide) {
		t.Fatalf("err = %v, want ErrDateInvalide", err)
	}
}

func TestModifier(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	seedDossier(repo, 123456789)

	c, err := svc.Creer(context.Background(), uuid.New(), CreerInput{NSS: 123456789, Date: "2026-01-15", Resume: "avant"})
	if err != nil {
		t.Fatalf("Creer: %v", err)
	}

	resume := "après"
	updated, err := svc.Modifier(context.Background(), c.ID, ModifierInput{Resume: &resume})
	if err != nil {
		t.Fatalf("Modifier: %v", err)
	}
	if updated.Resume != "après" {
		t.Errorf("resume = %q", updated.Resume)
	}
}

func TestSupprimer_Introuvable(t *testing.T) {
	svc := testService(newMockRepo(), nil, nil)

	if err := svc.Supprimer(context.Background(), uuid.New()); !errors.Is(err, ErrConsultationIntrouvable) {
		t.Fatalf("err = %v, want ErrConsultationIntrouvable", err)
	}
}

func TestCreerAvecOrdonnance(t *testing.T) {
	repo := newMockRepo()
	medID := uuid.New()
	catalog := &mockCatalog{known: map[uuid.UUID]bool{medID: true}}
	svc := testService(repo, catalog, nil)
	seedDossier(repo, 123456789)

	in := AvecOrdonnanceInput{NSS: 123456789, Resume: "angine"}
	in.Ordonnance.Medicaments = []LigneInput{
		{MedicamentID: medID, Dose: "500mg", Duree: "7", Frequence: "3"},
	}

	c, err := svc.CreerAvecOrdonnance(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("CreerAvecOrdonnance: %v", err)
	}
	if len(repo.ordonnances) != 1 {
		t.Fatalf("ordonnances = %d, want 1", len(repo.ordonnances))
	}
	o := repo.ordonnances[0]
	if o.ConsultationID != c.ID {
		t.Error("ordonnance not attached to the consultation")
	}
	if o.Statut != StatutNonValide {
		t.Errorf("statut = %q, want non_valide by default", o.Statut)
	}
	if len(repo.lignes[o.ID]) != 1 {
		t.Errorf("lignes = %d, want 1", len(repo.lignes[o.ID]))
	}
}

func TestCreerAvecOrdonnance_MedicamentInconnu(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, &mockCatalog{known: map[uuid.UUID]bool{}}, nil)
	seedDossier(repo, 123456789)

	in := AvecOrdonnanceInput{NSS: 123456789}
	in.Ordonnance.Medicaments = []LigneInput{
		{MedicamentID: uuid.New(), Dose: "500mg", Duree: "7", Frequence: "3"},
	}

	_, err := svc.CreerAvecOrdonnance(context.Background(), uuid.New(), in)
	if !errors.Is(err, ErrMedicamentInconnu) {
		t.Fatalf("err = %v, want ErrMedicamentInconnu", err)
	}
}

func TestCreerAvecOrdonnance_StatutInvalide(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	seedDossier(repo, 123456789)

	in := AvecOrdonnanceInput{NSS: 123456789}
	in.Ordonnance.Statut = "périmée"
	in.Ordonnance.Medicaments = []LigneInput{{MedicamentID: uuid.New(), Dose: "1", Duree: "1", Frequence: "1"}}

	_, err := svc.CreerAvecOrdonnance(context.Background(), uuid.New(), in)
	if !errors.Is(err, ErrStatutInvalide) {
		t.Fatalf("err = %v, want ErrStatutInvalide", err)
	}
	if len(repo.consultations) != 0 {
		t.Error("consultation created despite invalid statut")
	}
}

func TestCreerAvecBilan(t *testing.T) {
	repo := newMockRepo()
	bilans := &mockBilans{}
	svc := testService(repo, nil, bilans)
	seedDossier(repo, 123456789)

	in := AvecBilanInput{
		NSS:                 123456789,
		Resume:              "bilan annuel",
		AnalysesBiologiques: []BilanDemande{{Type: "Glycémie"}, {Type: "Fer"}},
		ImagesRadiologiques: []BilanDemande{{Type: "Thorax"}},
	}

	if _, err := svc.CreerAvecBilan(context.Background(), uuid.New(), in); err != nil {
		t.Fatalf("CreerAvecBilan: %v", err)
	}
	if len(bilans.analyses) != 2 || len(bilans.images) != 1 {
		t.Errorf("requests = %d analyses / %d images, want 2/1", len(bilans.analyses), len(bilans.images))
	}
}

func TestListParNSS_PatientProprietaire(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	ref := seedDossier(repo, 123456789)
	repo.details[ref.ID] = []*Detail{{Consultation: Consultation{ID: uuid.New(), Date: time.Now()}}}

	ctx := context.WithValue(context.Background(), auth.RoleKey, auth.RolePatient)
	ctx = context.WithValue(ctx, auth.UserIDKey, ref.PatientID)

	details, err := svc.ListParNSS(ctx, 123456789)
	if err != nil {
		t.Fatalf("ListParNSS: %v", err)
	}
	if len(details) != 1 {
		t.Errorf("details = %d, want 1", len(details))
	}
}

func TestListParNSS_PatientAutreDossier(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	ref := seedDossier(repo, 123456789)
	repo.details[ref.ID] = []*Detail{{Consultation: Consultation{ID: uuid.New()}}}

	ctx := context.WithValue(context.Background(), auth.RoleKey, auth.RolePatient)
	ctx = context.WithValue(ctx, auth.UserIDKey, uuid.New())

	if _, err := svc.ListParNSS(ctx, 123456789); !errors.Is(err, ErrAccesRefuse) {
		t.Fatalf("err = %v, want ErrAccesRefuse", err)
	}
}

func TestListParNSS_MedecinToutDossier(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	ref := seedDossier(repo, 123456789)
	repo.details[ref.ID] = []*Detail{{Consultation: Consultation{ID: uuid.New()}}}

	ctx := context.WithValue(context.Background(), auth.RoleKey, auth.RoleMedecin)
	ctx = context.WithValue(ctx, auth.UserIDKey, uuid.New())

	if _, err := svc.ListParNSS(ctx, 123456789); err != nil {
		t.Fatalf("ListParNSS as medecin: %v", err)
	}
}

func TestListParNSS_AucuneConsultation(t *testing.T) {
	repo := newMockRepo()
	svc := testService(repo, nil, nil)
	seedDossier(repo, 123456789)

	ctx := context.WithValue(context.Background(), auth.RoleKey, auth.RoleMedecin)
	if _, err := svc.ListParNSS(ctx, 123456789); !errors.Is(err, ErrAucuneConsultation) {
		t.Fatalf("err = %v, want ErrAucuneConsultation", err)
	}
}
