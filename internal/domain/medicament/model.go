package medicament

import (
	"time"

	"github.com/google/uuid"
)

// Medicament is a catalog entry. Prescriptions reference catalog entries by
// ID; dose, duration and frequency live on the prescription line, not here.
type Medicament struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Nom       string    `db:"nom" json:"nom"`
	Code      string    `db:"code" json:"code"`
	Forme     string    `db:"forme" json:"forme"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
