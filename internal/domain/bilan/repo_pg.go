package bilan

import (
	"context"
	"time"

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

func (r *repoPG) CreateAnalyse(ctx context.Context, consultationID uuid.UUID, typ string) (*AnalyseBiologique, error) {
	a := &AnalyseBiologique{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		Type:           typ,
		Statut:         StatutPasTermine,
		Version:        1,
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO analyse_biologique (id, consultation_id, type)
		VALUES ($1,$2,$3)`,
		a.ID, a.ConsultationID, a.Type,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) CreateImage(ctx context.Context, consultationID uuid.UUID, typ string) (*ImageRadiologique, error) {
	img := &ImageRadiologique{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		Type:           typ,
		Statut:         StatutPasTermine,
		Version:        1,
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO image_radiologique (id, consultation_id, type)
		VALUES ($1,$2,$3)`,
		img.ID, img.ConsultationID, img.Type,
	)
	if err != nil {
		return nil, err
	}
	return img, nil
}

const analyseCols = `id, consultation_id, type, statut, laborantin_id, version, created_at, updated_at`

func (r *repoPG) GetAnalyse(ctx context.Context, id uuid.UUID) (*AnalyseBiologique, error) {
	var a AnalyseBiologique
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+analyseCols+` FROM analyse_biologique WHERE id = $1`, id).
		Scan(&a.ID, &a.ConsultationID, &a.Type, &a.Statut, &a.LaborantinID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.loadResultats(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) loadResultats(ctx context.Context, a *AnalyseBiologique) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, position, parametre, valeur
		FROM resultat_analyse WHERE analyse_id = $1 ORDER BY position`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	a.Resultats = []ResultatAnalyse{}
	for rows.Next() {
		var res ResultatAnalyse
		if err := rows.Scan(&res.ID, &res.Position, &res.Parametre, &res.Valeur); err != nil {
			return err
		}
		a.Resultats = append(a.Resultats, res)
	}
	return rows.Err()
}

const imageCols = `id, consultation_id, type, statut, radiologue_id, url, compte_rendu, version, created_at, updated_at`

func (r *repoPG) GetImage(ctx context.Context, id uuid.UUID) (*ImageRadiologique, error) {
	var img ImageRadiologique
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+imageCols+` FROM image_radiologique WHERE id = $1`, id).
		Scan(&img.ID, &img.ConsultationID, &img.Type, &img.Statut, &img.RadiologueID,
			&img.URL, &img.CompteRendu, &img.Version, &img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *repoPG) ListAnalysesByDPI(ctx context.Context, dpiID uuid.UUID, after *time.Time) ([]*AnalyseBiologique, error) {
	query := `
		SELECT a.id, a.consultation_id, a.type, a.statut, a.laborantin_id, a.version, a.created_at, a.updated_at
		FROM analyse_biologique a
		JOIN consultation c ON c.id = a.consultation_id
		WHERE c.dpi_id = $1`
	args := []interface{}{dpiID}
	if after != nil {
		query += ` AND c.date > $2`
		args = append(args, *after)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*AnalyseBiologique
	for rows.Next() {
		var a AnalyseBiologique
		if err := rows.Scan(&a.ID, &a.ConsultationID, &a.Type, &a.Statut, &a.LaborantinID, &a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		analyses = append(analyses, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, a := range analyses {
		if err := r.loadResultats(ctx, a); err != nil {
			return nil, err
		}
	}
	return analyses, nil
}

func (r *repoPG) ListImagesByDPI(ctx context.Context, dpiID uuid.UUID, after *time.Time) ([]*ImageRadiologique, error) {
	query := `
		SELECT i.id, i.consultation_id, i.type, i.statut, i.radiologue_id, i.url, i.compte_rendu, i.version, i.created_at, i.updated_at
		FROM image_radiologique i
		JOIN consultation c ON c.id = i.consultation_id
		WHERE c.dpi_id = $1`
	args := []interface{}{dpiID}
	if after != nil {
		query += ` AND c.date > $2`
		args = append(args, *after)
	}
	query += ` ORDER BY i.created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*ImageRadiologique
	for rows.Next() {
		var img ImageRadiologique
		if err := rows.Scan(&img.ID, &img.ConsultationID, &img.Type, &img.Statut, &img.RadiologueID,
			&img.URL, &img.CompteRendu, &img.Version, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (r *repoPG) CompleteAnalyse(ctx context.Context, id uuid.UUID, version int, laborantinID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE analyse_biologique
		SET statut = 'terminé', laborantin_id = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND statut = 'pas_terminé'`,
		id, version, laborantinID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) InsertResultats(ctx context.Context, analyseID uuid.UUID, resultats []ResultatAnalyse) error {
	for i, res := range resultats {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO resultat_analyse (id, analyse_id, position, parametre, valeur)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.New(), analyseID, i, res.Parametre, res.Valeur,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) CompleteImage(ctx context.Context, id uuid.UUID, version int, radiologueID uuid.UUID, url, compteRendu string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE image_radiologique
		SET statut = 'terminé', radiologue_id = $3, url = $4, compte_rendu = $5, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND statut = 'pas_terminé'`,
		id, version, radiologueID, url, compteRendu,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
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
