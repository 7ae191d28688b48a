package soin

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Soin) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDPI(ctx context.Context, dpiID uuid.UUID) ([]*Soin, error)
	GetDossierByNSS(ctx context.Context, nss int64) (*DossierRef, error)
}
