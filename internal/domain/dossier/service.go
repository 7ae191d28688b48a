package dossier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/domain/compte"
	"github.com/dpi/dpi/internal/domain/consultation"
	"github.com/dpi/dpi/internal/domain/soin"
	"github.com/dpi/dpi/internal/platform/auth"
	"github.com/dpi/dpi/internal/platform/db"
)

var (
	ErrNSSExiste          = errors.New("le numéro de sécurité sociale existe déjà")
	ErrDPIIntrouvable     = errors.New("DPI non trouvé avec ce NSS")
	ErrDPIPatientAbsent   = errors.New("DPI non trouvé pour cet utilisateur")
	ErrMedecinIntrouvable = errors.New("le médecin n'existe pas ou n'est pas valide")
	ErrAccesRefuse        = errors.New("accès refusé")
	ErrSexeInvalide       = errors.New("sexe invalide, valeurs acceptées: M, F, O")
	ErrDateInvalide       = errors.New("date invalide, format attendu AAAA-MM-JJ")
	ErrQRInvalide         = errors.New("QR code invalide")
)

// UserDirectory is the slice of the identity store the folder workflow
// needs: creating the owning patient account and resolving the treating
// physician by name.
type UserDirectory interface {
	CreerPatient(ctx context.Context, nom, email, motDePasse string) (*compte.Utilisateur, error)
	TrouverMedecinParNom(ctx context.Context, nom string) (*compte.Utilisateur, error)
}

// ConsultationSource loads the consultations nested in a folder detail.
type ConsultationSource interface {
	ListDetailByDPI(ctx context.Context, dpiID uuid.UUID) ([]*consultation.Detail, error)
}

// SoinSource loads the care records nested in a folder detail.
type SoinSource interface {
	ListByDPI(ctx context.Context, dpiID uuid.UUID) ([]*soin.Soin, error)
}

type CreerInput struct {
	NSS             int64   `json:"nss" validate:"required"`
	Nom             string  `json:"nom" validate:"required"`
	DateNaissance   string  `json:"date_naissance" validate:"required"`
	Telephone       string  `json:"telephone" validate:"required"`
	Adresse         string  `json:"adresse" validate:"required"`
	Mutuelle        string  `json:"mutuelle" validate:"required"`
	PersonneContact *string `json:"personne_contact"`
	Sexe            string  `json:"sexe" validate:"required"`
	MedecinTraitant string  `json:"medecin_traitant"`
	PatientNom      string  `json:"patient_nom" validate:"required"`
	PatientEmail    string  `json:"patient_email" validate:"required,email"`
	PatientPassword string  `json:"patient_password" validate:"required,min=8"`
}

type ModifierInput struct {
	Nom             *string `json:"nom"`
	DateNaissance   *string `json:"date_naissance"`
	Telephone       *string `json:"telephone"`
	Adresse         *string `json:"adresse"`
	Mutuelle        *string `json:"mutuelle"`
	PersonneContact *string `json:"personne_contact"`
	Sexe            *string `json:"sexe"`
	MedecinTraitant *string `json:"medecin_traitant"`
}

type Service struct {
	repo          Repository
	users         UserDirectory
	consultations ConsultationSource
	soins         SoinSource
	runTx         db.TxRunner
	log           zerolog.Logger
}

func NewService(repo Repository, users UserDirectory, consultations ConsultationSource, soins SoinSource, runTx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		consultations: consultations,
		soins:         soins,
		runTx:         runTx,
		log:           log.With().Str("component", "dossier").Logger(),
	}
}

const dateLayout = "2006-01-02"

// Creer opens a patient folder. Everything happens in one transaction: NSS
// pre-check, treating-physician resolution, patient account creation, DPI
// row. Any failure leaves no orphaned patient account behind. The unique
// constraint on nss remains the authoritative guard if two creations race
// past the pre-check.
func (s *Service) Creer(ctx context.Context, in CreerInput) (*DPI, error) {
	if !ValidSexes[in.Sexe] {
		return nil, ErrSexeInvalide
	}
	naissance, err := time.Parse(dateLayout, in.DateNaissance)
	if err != nil {
		return nil, ErrDateInvalide
	}

	var created *DPI
	err = s.runTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsNSS(ctx, in.NSS)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %d", ErrNSSExiste, in.NSS)
		}

		var medecinID *uuid.UUID
		if in.MedecinTraitant != "" {
			medecin, err := s.users.TrouverMedecinParNom(ctx, in.MedecinTraitant)
			if err != nil {
				if errors.Is(err, compte.ErrMedecinIntrouvable) {
					return fmt.Errorf("%w: %s", ErrMedecinIntrouvable, in.MedecinTraitant)
				}
				return err
			}
			medecinID = &medecin.ID
		}

		patient, err := s.users.CreerPatient(ctx, in.PatientNom, in.PatientEmail, in.PatientPassword)
		if err != nil {
			return err
		}

		d := &DPI{
			NSS:               in.NSS,
			Nom:               in.Nom,
			DateNaissance:     naissance,
			Telephone:         in.Telephone,
			Adresse:           in.Adresse,
			Mutuelle:          in.Mutuelle,
			PersonneContact:   in.PersonneContact,
			Sexe:              in.Sexe,
			PatientID:         patient.ID,
			MedecinTraitantID: medecinID,
		}
		if err := s.repo.Create(ctx, d); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %d", ErrNSSExiste, in.NSS)
			}
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("nss", created.NSS).Str("dpi_id", created.ID.String()).Msg("DPI créé")
	return created, nil
}

// Consulter returns the nested folder detail. Patients may only read their
// own folder.
func (s *Service) Consulter(ctx context.Context, nss int64) (*Detail, error) {
	d, err := s.getByNSS(ctx, nss)
	if err != nil {
		return nil, err
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient && auth.UserIDFromContext(ctx) != d.PatientID {
		return nil, ErrAccesRefuse
	}
	return s.detail(ctx, d)
}

// ConsulterPatient returns the caller's own folder, resolved from the token
// subject.
func (s *Service) ConsulterPatient(ctx context.Context) (*Detail, error) {
	d, err := s.repo.GetByPatientID(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDPIPatientAbsent
		}
		return nil, err
	}
	return s.detail(ctx, d)
}

// Rechercher resolves a folder by NSS and returns the patient's name.
func (s *Service) Rechercher(ctx context.Context, nss int64) (*DPI, error) {
	return s.getByNSS(ctx, nss)
}

// ConsulterQR resolves a folder from a scanned QR payload. The payload is
// the NSS in decimal, optionally behind an "nss:" prefix.
func (s *Service) ConsulterQR(ctx context.Context, qr string) (*DPI, error) {
	nss, err := decodeQR(qr)
	if err != nil {
		return nil, err
	}
	return s.getByNSS(ctx, nss)
}

// Modifier applies a partial update. The NSS is the lookup key and is never
// updatable.
func (s *Service) Modifier(ctx context.Context, nss int64, in ModifierInput) (*DPI, error) {
	var updated *DPI
	err := s.runTx(ctx, func(ctx context.Context) error {
		d, err := s.getByNSS(ctx, nss)
		if err != nil {
			return err
		}

		if in.Nom != nil {
			d.Nom = *in.Nom
		}
		if in.DateNaissance != nil {
			naissance, err := time.Parse(dateLayout, *in.DateNaissance)
			if err != nil {
				return ErrDateInvalide
			}
			d.DateNaissance = naissance
		}
		if in.Telephone != nil {
			d.Telephone = *in.Telephone
		}
		if in.Adresse != nil {
			d.Adresse = *in.Adresse
		}
		if in.Mutuelle != nil {
			d.Mutuelle = *in.Mutuelle
		}
		if in.PersonneContact != nil {
			d.PersonneContact = in.PersonneContact
		}
		if in.Sexe != nil {
			if !ValidSexes[*in.Sexe] {
				return ErrSexeInvalide
			}
			d.Sexe = *in.Sexe
		}
		if in.MedecinTraitant != nil {
			if *in.MedecinTraitant == "" {
				d.MedecinTraitantID = nil
			} else {
				medecin, err := s.users.TrouverMedecinParNom(ctx, *in.MedecinTraitant)
				if err != nil {
					if errors.Is(err, compte.ErrMedecinIntrouvable) {
						return fmt.Errorf("%w: %s", ErrMedecinIntrouvable, *in.MedecinTraitant)
					}
					return err
				}
				d.MedecinTraitantID = &medecin.ID
			}
		}

		if err := s.repo.Update(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Supprimer removes a folder; every clinical aggregate cascades with it.
func (s *Service) Supprimer(ctx context.Context, nss int64) error {
	if err := s.repo.DeleteByNSS(ctx, nss); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDPIIntrouvable
		}
		return err
	}
	s.log.Info().Int64("nss", nss).Msg("DPI supprimé")
	return nil
}

func (s *Service) getByNSS(ctx context.Context, nss int64) (*DPI, error) {
	d, err := s.repo.GetByNSS(ctx, nss)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDPIIntrouvable
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) detail(ctx context.Context, d *DPI) (*Detail, error) {
	consultations, err := s.consultations.ListDetailByDPI(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if consultations == nil {
		consultations = []*consultation.Detail{}
	}
	soins, err := s.soins.ListByDPI(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if soins == nil {
		soins = []*soin.Soin{}
	}
	return &Detail{DPI: *d, Consultations: consultations, Soins: soins}, nil
}

func decodeQR(qr string) (int64, error) {
	payload := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(qr), "nss:"))
	nss, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || nss <= 0 {
		return 0, ErrQRInvalide
	}
	return nss, nil
}
