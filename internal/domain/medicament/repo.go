package medicament

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medicament) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicament, error)
	List(ctx context.Context, limit, offset int) ([]*Medicament, int, error)
}
