package soin

import (
	"time"

	"github.com/google/uuid"
)

// Soin is a dated nursing care record on a patient folder.
type Soin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DPIID        uuid.UUID `db:"dpi_id" json:"dpi_id"`
	InfirmierID  uuid.UUID `db:"infirmier_id" json:"infirmier_id"`
	Date         time.Time `db:"date" json:"date"`
	Soins        string    `db:"soins" json:"soins"`
	Observations *string   `db:"observations" json:"observations,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DossierRef resolves an NSS for ownership checks.
type DossierRef struct {
	ID        uuid.UUID
	NSS       int64
	PatientID uuid.UUID
}
