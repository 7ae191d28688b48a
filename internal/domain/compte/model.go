package compte

import (
	"time"

	"github.com/google/uuid"

	"github.com/dpi/dpi/internal/platform/auth"
)

// Utilisateur maps to the utilisateur table. Every caller of the API is one
// of these, from patients to administrative staff.
type Utilisateur struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Nom        string    `db:"nom" json:"nom"`
	Email      string    `db:"email" json:"email"`
	MotDePasse string    `db:"mot_de_passe" json:"-"`
	Role       auth.Role `db:"role" json:"role"`
	Specialite *string   `db:"specialite" json:"specialite,omitempty"`
	Actif      bool      `db:"actif" json:"actif"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Specialties a médecin can declare. "other" is what patient accounts get.
var ValidSpecialites = map[string]bool{
	"pediatre":      true,
	"cardiologue":   true,
	"ophtalmologue": true,
	"neurologue":    true,
	"other":         true,
}
