package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/auth"
	"github.com/dpi/dpi/internal/platform/db"
)

var (
	ErrConsultationIntrouvable = errors.New("consultation non trouvée")
	ErrDPIIntrouvable          = errors.New("DPI non trouvé avec ce NSS")
	ErrAucuneConsultation      = errors.New("aucune consultation trouvée pour ce patient")
	ErrAccesRefuse             = errors.New("accès refusé")
	ErrDateInvalide            = errors.New("date invalide, format attendu AAAA-MM-JJ")
	ErrMedicamentInconnu       = errors.New("médicament inconnu")
	ErrStatutInvalide          = errors.New("statut d'ordonnance invalide")
)

// Catalog is the medicament existence check the prescription composite needs.
type Catalog interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// BilanRequests creates pending lab/imaging requests for a consultation.
type BilanRequests interface {
	CreerDemandeAnalyse(ctx context.Context, consultationID uuid.UUID, typ string) error
	CreerDemandeImage(ctx context.Context, consultationID uuid.UUID, typ string) error
}

type CreerInput struct {
	NSS    int64  `json:"nss" validate:"required"`
	Date   string `json:"date" validate:"required"`
	Resume string `json:"resume"`
}

type ModifierInput struct {
	Date   *string `json:"date"`
	Resume *string `json:"resume"`
}

type LigneInput struct {
	MedicamentID uuid.UUID `json:"medicament_id" validate:"required"`
	Dose         string    `json:"dose" validate:"required"`
	Duree        string    `json:"duree" validate:"required"`
	Frequence    string    `json:"frequence" validate:"required"`
}

type AvecOrdonnanceInput struct {
	NSS    int64  `json:"nss" validate:"required"`
	Resume string `json:"resume"`
	Ordonnance struct {
		Statut      string       `json:"statut"`
		Medicaments []LigneInput `json:"medicaments" validate:"required,min=1,dive"`
	} `json:"ordonnance" validate:"required"`
}

type BilanDemande struct {
	Type string `json:"type" validate:"required"`
}

type AvecBilanInput struct {
	NSS                 int64          `json:"nss" validate:"required"`
	Resume              string         `json:"resume"`
	AnalysesBiologiques []BilanDemande `json:"analyses_biologiques" validate:"dive"`
	ImagesRadiologiques []BilanDemande `json:"images_radiologiques" validate:"dive"`
}

type Service struct {
	repo    Repository
	catalog Catalog
	bilans  BilanRequests
	runTx   db.TxRunner
	log     zerolog.Logger
}

func NewService(repo Repository, catalog Catalog, bilans BilanRequests, runTx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		bilans:  bilans,
		runTx:   runTx,
		log:     log.With().Str("component", "consultation").Logger(),
	}
}

const dateLayout = "2006-01-02"

// Creer records a plain consultation. The caller from the token becomes the
// owning physician.
func (s *Service) Creer(ctx context.Context, medecinID uuid.UUID, in CreerInput) (*Consultation, error) {
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, ErrDateInvalide
	}
	ref, err := s.resolveNSS(ctx, in.NSS)
	if err != nil {
		return nil, err
	}

	c := &Consultation{DPIID: ref.ID, MedecinID: medecinID, Date: date, Resume: in.Resume}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("consultation_id", c.ID.String()).Int64("nss", in.NSS).Msg("consultation créée")
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationIntrouvable
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Modifier(ctx context.Context, id uuid.UUID, in ModifierInput) (*Consultation, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Date != nil {
		date, err := time.Parse(dateLayout, *in.Date)
		if err != nil {
			return nil, ErrDateInvalide
		}
		c.Date = date
	}
	if in.Resume != nil {
		c.Resume = *in.Resume
	}
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationIntrouvable
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) Supprimer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConsultationIntrouvable
		}
		return err
	}
	return nil
}

// CreerAvecOrdonnance creates the consultation, its ordonnance and one line
// per prescribed medicament in a single transaction. An unknown medicament ID
// aborts everything.
func (s *Service) CreerAvecOrdonnance(ctx context.Context, medecinID uuid.UUID, in AvecOrdonnanceInput) (*Consultation, error) {
	statut := in.Ordonnance.Statut
	if statut == "" {
		statut = StatutNonValide
	}
	if statut != StatutValide && statut != StatutNonValide {
		return nil, fmt.Errorf("%w: %q", ErrStatutInvalide, statut)
	}

	var created *Consultation
	err := s.runTx(ctx, func(ctx context.Context) error {
		ref, err := s.resolveNSS(ctx, in.NSS)
		if err != nil {
			return err
		}

		c := &Consultation{DPIID: ref.ID, MedecinID: medecinID, Date: today(), Resume: in.Resume}
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}

		o := &Ordonnance{ConsultationID: c.ID, Statut: statut}
		if err := s.repo.CreateOrdonnance(ctx, o); err != nil {
			return err
		}

		for _, ligne := range in.Ordonnance.Medicaments {
			ok, err := s.catalog.Exists(ctx, ligne.MedicamentID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: médicament avec ID %s non trouvé", ErrMedicamentInconnu, ligne.MedicamentID)
			}
			l := &LigneOrdonnance{
				MedicamentID: ligne.MedicamentID,
				Dose:         ligne.Dose,
				Duree:        ligne.Duree,
				Frequence:    ligne.Frequence,
			}
			if err := s.repo.CreateLigne(ctx, o.ID, l); err != nil {
				return err
			}
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("consultation_id", created.ID.String()).Msg("consultation avec ordonnance créée")
	return created, nil
}

// CreerAvecBilan creates the consultation plus its pending lab/imaging
// requests in one transaction.
func (s *Service) CreerAvecBilan(ctx context.Context, medecinID uuid.UUID, in AvecBilanInput) (*Consultation, error) {
	var created *Consultation
	err := s.runTx(ctx, func(ctx context.Context) error {
		ref, err := s.resolveNSS(ctx, in.NSS)
		if err != nil {
			return err
		}

		c := &Consultation{DPIID: ref.ID, MedecinID: medecinID, Date: today(), Resume: in.Resume}
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}

		for _, demande := range in.AnalysesBiologiques {
			if err := s.bilans.CreerDemandeAnalyse(ctx, c.ID, demande.Type); err != nil {
				return err
			}
		}
		for _, demande := range in.ImagesRadiologiques {
			if err := s.bilans.CreerDemandeImage(ctx, c.ID, demande.Type); err != nil {
				return err
			}
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("consultation_id", created.ID.String()).
		Int("analyses", len(in.AnalysesBiologiques)).
		Int("images", len(in.ImagesRadiologiques)).
		Msg("consultation avec bilan créée")
	return created, nil
}

// ListParNSS returns the nested consultations of a folder. Patients may only
// read their own folder; clinical roles read any.
func (s *Service) ListParNSS(ctx context.Context, nss int64) ([]*Detail, error) {
	ref, err := s.resolveNSS(ctx, nss)
	if err != nil {
		return nil, err
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient && auth.UserIDFromContext(ctx) != ref.PatientID {
		return nil, ErrAccesRefuse
	}

	details, err := s.repo.ListDetailByDPI(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrAucuneConsultation
	}
	return details, nil
}

func (s *Service) resolveNSS(ctx context.Context, nss int64) (*DossierRef, error) {
	ref, err := s.repo.GetDossierByNSS(ctx, nss)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDPIIntrouvable
		}
		return nil, err
	}
	return ref, nil
}

func today() time.Time {
	return time.Now().Truncate(24 * time.Hour)
}
