package soin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/auth"
)

var (
	ErrDPIIntrouvable  = errors.New("DPI spécifié introuvable")
	ErrSoinIntrouvable = errors.New("soin introuvable")
	ErrAccesRefuse     = errors.New("accès refusé")
	ErrDateInvalide    = errors.New("date invalide, format attendu AAAA-MM-JJ")
)

type AjouterInput struct {
	NSS          int64   `json:"nss" validate:"required"`
	Date         string  `json:"date"`
	Soins        string  `json:"soins" validate:"required"`
	Observations *string `json:"observations"`
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "soin").Logger()}
}

// Ajouter records a care event. The caller from the token is recorded as the
// nurse; the date defaults to today when omitted.
func (s *Service) Ajouter(ctx context.Context, infirmierID uuid.UUID, in AjouterInput) (*Soin, error) {
	ref, err := s.resolveNSS(ctx, in.NSS)
	if err != nil {
		return nil, err
	}

	date := time.Now().Truncate(24 * time.Hour)
	if in.Date != "" {
		date, err = time.Parse("2006-01-02", in.Date)
		if err != nil {
			return nil, ErrDateInvalide
		}
	}

	record := &Soin{
		DPIID:        ref.ID,
		InfirmierID:  infirmierID,
		Date:         date,
		Soins:        in.Soins,
		Observations: in.Observations,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.log.Info().Str("soin_id", record.ID.String()).Int64("nss", in.NSS).Msg("soin enregistré")
	return record, nil
}

// ListParNSS returns the folder's care records. Patients read only their own
// folder.
func (s *Service) ListParNSS(ctx context.Context, nss int64) ([]*Soin, error) {
	ref, err := s.resolveNSS(ctx, nss)
	if err != nil {
		return nil, err
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient && auth.UserIDFromContext(ctx) != ref.PatientID {
		return nil, ErrAccesRefuse
	}

	soins, err := s.repo.ListByDPI(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if soins == nil {
		soins = []*Soin{}
	}
	return soins, nil
}

func (s *Service) Supprimer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSoinIntrouvable
		}
		return err
	}
	return nil
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
