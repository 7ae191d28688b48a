package medicament

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/db"
)

var (
	ErrMedicamentExiste      = errors.New("un médicament avec ce nom ou ce code existe déjà")
	ErrMedicamentIntrouvable = errors.New("médicament non trouvé")
)

type CreerInput struct {
	Nom   string `json:"nom" validate:"required"`
	Code  string `json:"code" validate:"required"`
	Forme string `json:"forme" validate:"required"`
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "medicament").Logger()}
}

func (s *Service) Creer(ctx context.Context, in CreerInput) (*Medicament, error) {
	m := &Medicament{Nom: in.Nom, Code: in.Code, Forme: in.Forme}
	if err := s.repo.Create(ctx, m); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrMedicamentExiste
		}
		return nil, err
	}
	s.log.Info().Str("medicament_id", m.ID.String()).Str("code", m.Code).Msg("médicament ajouté au catalogue")
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medicament, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicamentIntrouvable
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Medicament, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Exists reports whether a catalog entry is present. Prescription creation
// uses it to fail fast with a domain message before the FK would.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
