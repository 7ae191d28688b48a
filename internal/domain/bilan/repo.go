package bilan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DossierRef resolves an NSS for the query endpoints.
type DossierRef struct {
	ID        uuid.UUID
	NSS       int64
	PatientID uuid.UUID
}

type Repository interface {
	CreateAnalyse(ctx context.Context, consultationID uuid.UUID, typ string) (*AnalyseBiologique, error)
	CreateImage(ctx context.Context, consultationID uuid.UUID, typ string) (*ImageRadiologique, error)

	GetAnalyse(ctx context.Context, id uuid.UUID) (*AnalyseBiologique, error)
	GetImage(ctx context.Context, id uuid.UUID) (*ImageRadiologique, error)

	// ListAnalysesByDPI returns the folder's analyses, optionally restricted
	// to consultations strictly after the given date.
	ListAnalysesByDPI(ctx context.Context, dpiID uuid.UUID, after *time.Time) ([]*AnalyseBiologique, error)
	ListImagesByDPI(ctx context.Context, dpiID uuid.UUID, after *time.Time) ([]*ImageRadiologique, error)

	// CompleteAnalyse transitions pas_terminé -> terminé when the expected
	// version still matches. Reports whether a row was updated.
	CompleteAnalyse(ctx context.Context, id uuid.UUID, version int, laborantinID uuid.UUID) (bool, error)
	InsertResultats(ctx context.Context, analyseID uuid.UUID, resultats []ResultatAnalyse) error

	CompleteImage(ctx context.Context, id uuid.UUID, version int, radiologueID uuid.UUID, url, compteRendu string) (bool, error)

	GetDossierByNSS(ctx context.Context, nss int64) (*DossierRef, error)
}
