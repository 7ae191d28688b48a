package bilan

import (
	"time"

	"github.com/google/uuid"
)

// Request fulfillment states. A request is created pending by a physician's
// bilan and completed exactly once by the assigned professional.
const (
	StatutTermine    = "terminé"
	StatutPasTermine = "pas_terminé"
)

// AnalyseBiologique is a lab request attached to a consultation. Results are
// an ordered list of parameter/value pairs filled by a laborantin.
type AnalyseBiologique struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	ConsultationID uuid.UUID         `db:"consultation_id" json:"consultation_id"`
	Type           string            `db:"type" json:"type"`
	Statut         string            `db:"statut" json:"statut"`
	LaborantinID   *uuid.UUID        `db:"laborantin_id" json:"laborantin_id,omitempty"`
	Version        int               `db:"version" json:"version"`
	Resultats      []ResultatAnalyse `json:"resultats"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// ResultatAnalyse is one measured parameter. Position preserves the order
// the laborantin entered the results in.
type ResultatAnalyse struct {
	ID        uuid.UUID `db:"id" json:"-"`
	Position  int       `db:"position" json:"-"`
	Parametre string    `db:"parametre" json:"parametre"`
	Valeur    string    `db:"valeur" json:"valeur"`
}

// ImageRadiologique is an imaging request attached to a consultation,
// completed by a radiologue with a URL and a written report.
type ImageRadiologique struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConsultationID uuid.UUID  `db:"consultation_id" json:"consultation_id"`
	Type           string     `db:"type" json:"type"`
	Statut         string     `db:"statut" json:"statut"`
	RadiologueID   *uuid.UUID `db:"radiologue_id" json:"radiologue_id,omitempty"`
	URL            *string    `db:"url" json:"url,omitempty"`
	CompteRendu    *string    `db:"compte_rendu" json:"compte_rendu,omitempty"`
	Version        int        `db:"version" json:"version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
