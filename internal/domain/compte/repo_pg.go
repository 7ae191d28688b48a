package compte

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpi/dpi/internal/platform/auth"
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

const userCols = `id, nom, email, mot_de_passe, role, specialite, actif, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, u *Utilisateur) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO utilisateur (id, nom, email, mot_de_passe, role, specialite, actif)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Nom, u.Email, u.MotDePasse, u.Role.String(), u.Specialite, u.Actif,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Utilisateur, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM utilisateur WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Utilisateur, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM utilisateur WHERE email = $1`, email))
}

func (r *repoPG) FindMedecinByNom(ctx context.Context, nom string) (*Utilisateur, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM utilisateur WHERE role = 'medecin' AND nom = $1 LIMIT 1`, nom))
}

func (r *repoPG) ListMedecins(ctx context.Context, limit, offset int) ([]*Utilisateur, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM utilisateur WHERE role = 'medecin'`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM utilisateur WHERE role = 'medecin' ORDER BY nom LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*Utilisateur
	for rows.Next() {
		var u Utilisateur
		var role string
		if err := rows.Scan(&u.ID, &u.Nom, &u.Email, &u.MotDePasse, &role, &u.Specialite, &u.Actif, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		u.Role = auth.Role(role)
		users = append(users, &u)
	}
	return users, total, nil
}

func scanUser(row pgx.Row) (*Utilisateur, error) {
	var u Utilisateur
	var role string
	err := row.Scan(&u.ID, &u.Nom, &u.Email, &u.MotDePasse, &role, &u.Specialite, &u.Actif, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}
