package consultation

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

const consultationCols = `id, dpi_id, medecin_id, date, resume, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (id, dpi_id, medecin_id, date, resume)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.DPIID, c.MedecinID, c.Date, c.Resume,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var c Consultation
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultation WHERE id = $1`, id).
		Scan(&c.ID, &c.DPIID, &c.MedecinID, &c.Date, &c.Resume, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET date = $2, resume = $3, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Date, c.Resume,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultation WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consultationCols+` FROM consultation ORDER BY date DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var consultations []*Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(&c.ID, &c.DPIID, &c.MedecinID, &c.Date, &c.Resume, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		consultations = append(consultations, &c)
	}
	return consultations, total, nil
}

func (r *repoPG) CreateOrdonnance(ctx context.Context, o *Ordonnance) error {
	o.ID = uuid.New()
	if o.Statut == "" {
		o.Statut = StatutNonValide
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ordonnance (id, consultation_id, statut)
		VALUES ($1,$2,$3)`,
		o.ID, o.ConsultationID, o.Statut,
	)
	return err
}

func (r *repoPG) CreateLigne(ctx context.Context, ordonnanceID uuid.UUID, l *LigneOrdonnance) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ordonnance_medicament (id, ordonnance_id, medicament_id, dose, duree, frequence)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		l.ID, ordonnanceID, l.MedicamentID, l.Dose, l.Duree, l.Frequence,
	)
	return err
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

func (r *repoPG) ListDetailByDPI(ctx context.Context, dpiID uuid.UUID) ([]*Detail, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.id, c.dpi_id, c.medecin_id, c.date, c.resume, c.created_at, c.updated_at, u.nom
		FROM consultation c
		JOIN utilisateur u ON u.id = c.medecin_id
		WHERE c.dpi_id = $1
		ORDER BY c.date DESC`, dpiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*Detail
	byID := make(map[uuid.UUID]*Detail)
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.DPIID, &d.MedecinID, &d.Date, &d.Resume, &d.CreatedAt, &d.UpdatedAt, &d.Medecin); err != nil {
			return nil, err
		}
		d.AnalysesBiologiques = []BilanResume{}
		d.ImagesRadiologiques = []BilanResume{}
		details = append(details, &d)
		byID[d.ID] = &d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	if err := r.loadOrdonnances(ctx, dpiID, byID); err != nil {
		return nil, err
	}
	if err := r.loadBilans(ctx, dpiID, byID); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repoPG) loadOrdonnances(ctx context.Context, dpiID uuid.UUID, byID map[uuid.UUID]*Detail) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT o.id, o.consultation_id, o.statut,
		       om.id, om.medicament_id, m.nom, om.dose, om.duree, om.frequence
		FROM ordonnance o
		JOIN consultation c ON c.id = o.consultation_id
		LEFT JOIN ordonnance_medicament om ON om.ordonnance_id = o.id
		LEFT JOIN medicament m ON m.id = om.medicament_id
		WHERE c.dpi_id = $1`, dpiID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o Ordonnance
		var ligneID, medicamentID *uuid.UUID
		var nom, dose, duree, frequence *string
		if err := rows.Scan(&o.ID, &o.ConsultationID, &o.Statut,
			&ligneID, &medicamentID, &nom, &dose, &duree, &frequence); err != nil {
			return err
		}
		d, ok := byID[o.ConsultationID]
		if !ok {
			continue
		}
		if d.Ordonnance == nil {
			ord := o
			ord.Medicaments = []LigneOrdonnance{}
			d.Ordonnance = &ord
		}
		if ligneID != nil {
			d.Ordonnance.Medicaments = append(d.Ordonnance.Medicaments, LigneOrdonnance{
				ID:           *ligneID,
				MedicamentID: *medicamentID,
				Nom:          *nom,
				Dose:         *dose,
				Duree:        *duree,
				Frequence:    *frequence,
			})
		}
	}
	return rows.Err()
}

func (r *repoPG) loadBilans(ctx context.Context, dpiID uuid.UUID, byID map[uuid.UUID]*Detail) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.consultation_id, a.id, a.type, a.statut, 'analyse'
		FROM analyse_biologique a JOIN consultation c ON c.id = a.consultation_id
		WHERE c.dpi_id = $1
		UNION ALL
		SELECT i.consultation_id, i.id, i.type, i.statut, 'image'
		FROM image_radiologique i JOIN consultation c ON c.id = i.consultation_id
		WHERE c.dpi_id = $1`, dpiID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var consultationID uuid.UUID
		var b BilanResume
		var kind string
		if err := rows.Scan(&consultationID, &b.ID, &b.Type, &b.Statut, &kind); err != nil {
			return err
		}
		d, ok := byID[consultationID]
		if !ok {
			continue
		}
		if kind == "analyse" {
			d.AnalysesBiologiques = append(d.AnalysesBiologiques, b)
		} else {
			d.ImagesRadiologiques = append(d.ImagesRadiologiques, b)
		}
	}
	return rows.Err()
}
