package dossier

import (
	"time"

	"github.com/google/uuid"

	"github.com/dpi/dpi/internal/domain/consultation"
	"github.com/dpi/dpi/internal/domain/soin"
)

// Sexe values accepted on a folder.
var ValidSexes = map[string]bool{"M": true, "F": true, "O": true}

// DPI is the patient's master folder. The NSS is its natural key and is
// immutable after creation; all clinical aggregates cascade from it.
type DPI struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	NSS               int64      `db:"nss" json:"nss"`
	Nom               string     `db:"nom" json:"nom"`
	DateNaissance     time.Time  `db:"date_naissance" json:"date_naissance"`
	Telephone         string     `db:"telephone" json:"telephone"`
	Adresse           string     `db:"adresse" json:"adresse"`
	Mutuelle          string     `db:"mutuelle" json:"mutuelle"`
	PersonneContact   *string    `db:"personne_contact" json:"personne_contact,omitempty"`
	Sexe              string     `db:"sexe" json:"sexe"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	MedecinTraitantID *uuid.UUID `db:"medecin_traitant_id" json:"medecin_traitant_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Detail is the fully nested folder view: the folder plus its consultations
// (with ordonnances and bilans) and care records.
type Detail struct {
	DPI
	Consultations []*consultation.Detail `json:"consultations"`
	Soins         []*soin.Soin           `json:"soins"`
}
