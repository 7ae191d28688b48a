package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Ordonnance validation states.
const (
	StatutValide    = "valide"
	StatutNonValide = "non_valide"
)

// Consultation is a clinical visit recorded by a physician on a patient
// folder. At most one ordonnance hangs off a consultation; lab and imaging
// requests are created alongside it by the composite bilan operation.
type Consultation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DPIID     uuid.UUID `db:"dpi_id" json:"dpi_id"`
	MedecinID uuid.UUID `db:"medecin_id" json:"medecin_id"`
	Date      time.Time `db:"date" json:"date"`
	Resume    string    `db:"resume" json:"resume"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Ordonnance groups the prescription lines of one consultation.
type Ordonnance struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	ConsultationID uuid.UUID         `db:"consultation_id" json:"consultation_id"`
	Statut         string            `db:"statut" json:"statut"`
	Medicaments    []LigneOrdonnance `json:"medicaments,omitempty"`
}

// LigneOrdonnance is one prescribed medicament with its posology.
type LigneOrdonnance struct {
	ID           uuid.UUID `db:"id" json:"id"`
	MedicamentID uuid.UUID `db:"medicament_id" json:"medicament_id"`
	Nom          string    `db:"nom" json:"nom"`
	Dose         string    `db:"dose" json:"dose"`
	Duree        string    `db:"duree" json:"duree"`
	Frequence    string    `db:"frequence" json:"frequence"`
}

// BilanResume is the shallow analysis/image view nested under a
// consultation detail.
type BilanResume struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Type   string    `db:"type" json:"type"`
	Statut string    `db:"statut" json:"statut"`
}

// Detail is the nested consultation view: the visit plus its ordonnance,
// prescription lines and pending or completed bilan requests.
type Detail struct {
	Consultation
	Medecin             string        `json:"medecin"`
	Ordonnance          *Ordonnance   `json:"ordonnance,omitempty"`
	AnalysesBiologiques []BilanResume `json:"analyses_biologiques"`
	ImagesRadiologiques []BilanResume `json:"images_radiologiques"`
}

// DossierRef is the minimal folder projection used to resolve an NSS and
// enforce patient ownership without importing the dossier package.
type DossierRef struct {
	ID        uuid.UUID
	NSS       int64
	PatientID uuid.UUID
}
