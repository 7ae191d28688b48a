package soin

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

func (r *repoPG) Create(ctx context.Context, s *Soin) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO soin (id, dpi_id, infirmier_id, date, soins, observations)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.DPIID, s.InfirmierID, s.Date, s.Soins, s.Observations,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM soin WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ListByDPI(ctx context.Context, dpiID uuid.UUID) ([]*Soin, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, dpi_id, infirmier_id, date, soins, observations, created_at
		FROM soin WHERE dpi_id = $1 ORDER BY date DESC`, dpiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var soins []*Soin
	for rows.Next() {
		var s Soin
		if err := rows.Scan(&s.ID, &s.DPIID, &s.InfirmierID, &s.Date, &s.Soins, &s.Observations, &s.CreatedAt); err != nil {
			return nil, err
		}
		soins = append(soins, &s)
	}
	return soins, rows.Err()
}

func (r *repoPG) GetDossierByNSS(ctx context.Context, nss int64) (*DossierRef, error) {
	var ref DossierRef
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, nss, patient_id FROM dpi WHERE nss = $1`, nss).
		Scan(&ref.ID, &ref.NSS, &ref.PatientID)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
