package compte

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/auth"
	"github.com/dpi/dpi/internal/platform/db"
)

var (
	ErrEmailExiste            = errors.New("un utilisateur avec cet email existe déjà")
	ErrIdentifiantsInvalides  = errors.New("email ou mot de passe incorrect")
	ErrUtilisateurIntrouvable = errors.New("utilisateur non trouvé")
	ErrMedecinIntrouvable     = errors.New("médecin non trouvé")
	ErrSpecialiteInvalide     = errors.New("spécialité invalide")
)

// SignupInput is the signup request body.
type SignupInput struct {
	Nom        string `json:"nom" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	MotDePasse string `json:"mot_de_passe" validate:"required,min=8"`
	Role       string `json:"role" validate:"required"`
	Specialite string `json:"specialite"`
}

type Service struct {
	repo   Repository
	issuer *auth.TokenIssuer
	log    zerolog.Logger
}

func NewService(repo Repository, issuer *auth.TokenIssuer, log zerolog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, log: log.With().Str("component", "compte").Logger()}
}

// Signup registers a new user. The role must belong to the closed set and a
// médecin must declare a valid specialty. The email unique index is the
// authoritative duplicate guard.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Utilisateur, error) {
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	var specialite *string
	if role == auth.RoleMedecin {
		if !ValidSpecialites[in.Specialite] {
			return nil, ErrSpecialiteInvalide
		}
		specialite = &in.Specialite
	}

	hash, err := auth.HashPassword(in.MotDePasse)
	if err != nil {
		return nil, err
	}

	u := &Utilisateur{
		Nom:        in.Nom,
		Email:      in.Email,
		MotDePasse: hash,
		Role:       role,
		Specialite: specialite,
		Actif:      true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExiste
		}
		return nil, err
	}

	s.log.Info().Str("role", role.String()).Str("user_id", u.ID.String()).Msg("utilisateur créé")
	return u, nil
}

// Login verifies credentials and issues a token pair. The error is the same
// whether the email is unknown or the password wrong.
func (s *Service) Login(ctx context.Context, email, motDePasse string) (*auth.TokenPair, *Utilisateur, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrIdentifiantsInvalides
		}
		return nil, nil, err
	}
	if !u.Actif || !auth.CheckPasswordHash(motDePasse, u.MotDePasse) {
		return nil, nil, ErrIdentifiantsInvalides
	}

	pair, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *Service) Refresh(refreshToken string) (*auth.TokenPair, error) {
	return s.issuer.Refresh(refreshToken)
}

func (s *Service) GetUtilisateur(ctx context.Context, id uuid.UUID) (*Utilisateur, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUtilisateurIntrouvable
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ListMedecins(ctx context.Context, limit, offset int) ([]*Utilisateur, int, error) {
	return s.repo.ListMedecins(ctx, limit, offset)
}

// TrouverMedecinParNom resolves a physician by exact name. The dossier
// service uses it to bind the médecin traitant at DPI creation.
func (s *Service) TrouverMedecinParNom(ctx context.Context, nom string) (*Utilisateur, error) {
	u, err := s.repo.FindMedecinByNom(ctx, nom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedecinIntrouvable
		}
		return nil, err
	}
	return u, nil
}

// CreerPatient creates a patient account on behalf of the staff member
// filing a DPI. Called inside the DPI creation transaction so the account
// never outlives a failed folder.
func (s *Service) CreerPatient(ctx context.Context, nom, email, motDePasse string) (*Utilisateur, error) {
	hash, err := auth.HashPassword(motDePasse)
	if err != nil {
		return nil, err
	}
	u := &Utilisateur{
		Nom:        nom,
		Email:      email,
		MotDePasse: hash,
		Role:       auth.RolePatient,
		Actif:      true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExiste
		}
		return nil, err
	}
	return u, nil
}
