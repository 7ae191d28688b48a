package compte

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *Utilisateur) error
	GetByID(ctx context.Context, id uuid.UUID) (*Utilisateur, error)
	GetByEmail(ctx context.Context, email string) (*Utilisateur, error)
	FindMedecinByNom(ctx context.Context, nom string) (*Utilisateur, error)
	ListMedecins(ctx context.Context, limit, offset int) ([]*Utilisateur, int, error)
}
