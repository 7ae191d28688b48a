package dossier

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpi/dpi/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const dpiCols = `id, nss, nom, date_naissance, telephone, adresse, mutuelle, personne_contact, sexe, patient_id, medecin_traitant_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, d *DPI) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dpi (id, nss, nom, date_naissance, telephone, adresse, mutuelle, personne_contact, sexe, patient_id, medecin_traitant_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.NSS, d.Nom, d.DateNaissance, d.Telephone, d.Adresse, d.Mutuelle,
		d.PersonneContact, d.Sexe, d.PatientID, d.MedecinTraitantID,
	)
	return err
}

func (r *repoPG) GetByNSS(ctx context.Context, nss int64) (*DPI, error) {
	return scanDPI(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dpiCols+` FROM dpi WHERE nss = $1`, nss))
}

func (r *repoPG) GetByPatientID(ctx context.Context, patientID uuid.UUID) (*DPI, error) {
	return scanDPI(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dpiCols+` FROM dpi WHERE patient_id = $1`, patientID))
}

func (r *repoPG) ExistsNSS(ctx context.Context, nss int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dpi WHERE nss = $1)`, nss).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, d *DPI) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE dpi
		SET nom = $2, date_naissance = $3, telephone = $4, adresse = $5, mutuelle = $6,
		    personne_contact = $7, sexe = $8, medecin_traitant_id = $9, updated_at = now()
		WHERE nss = $1`,
		d.NSS, d.Nom, d.DateNaissance, d.Telephone, d.Adresse, d.Mutuelle,
		d.PersonneContact, d.Sexe, d.MedecinTraitantID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) DeleteByNSS(ctx context.Context, nss int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM dpi WHERE nss = $1`, nss)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDPI(row pgx.Row) (*DPI, error) {
	var d DPI
	err := row.Scan(&d.ID, &d.NSS, &d.Nom, &d.DateNaissance, &d.Telephone, &d.Adresse,
		&d.Mutuelle, &d.PersonneContact, &d.Sexe, &d.PatientID, &d.MedecinTraitantID,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
