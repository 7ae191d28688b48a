package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Consultation, int, error)

	CreateOrdonnance(ctx context.Context, o *Ordonnance) error
	CreateLigne(ctx context.Context, ordonnanceID uuid.UUID, l *LigneOrdonnance) error

	// GetDossierByNSS resolves a folder reference for ownership checks and
	// composite creation. Returns pgx.ErrNoRows when the NSS is unknown.
	GetDossierByNSS(ctx context.Context, nss int64) (*DossierRef, error)

	// ListDetailByDPI eagerly loads every consultation of a folder with its
	// ordonnance, prescription lines and bilan requests.
	ListDetailByDPI(ctx context.Context, dpiID uuid.UUID) ([]*Detail, error)
}
