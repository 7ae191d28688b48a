package dossier

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *DPI) error
	GetByNSS(ctx context.Context, nss int64) (*DPI, error)
	GetByPatientID(ctx context.Context, patientID uuid.UUID) (*DPI, error)
	ExistsNSS(ctx context.Context, nss int64) (bool, error)
	Update(ctx context.Context, d *DPI) error
	DeleteByNSS(ctx context.Context, nss int64) error
}
