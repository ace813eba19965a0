package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatehouse/internal/platform/db"
	"github.com/gatehouse/gatehouse/internal/shared"
)

// Repository defines persistence operations for the credential store.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindRoleByName(ctx context.Context, name RoleName) (*Role, error)
	CreateAccount(ctx context.Context, email, passwordHash string, roleID int64) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an account with its roles and their privileges
// hydrated. Email lookup is case-sensitive.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	account := &Account{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM accounts WHERE email = $1`,
		email,
	).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find account: %w", err)
	}

	roles, err := r.rolesForAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles
	return account, nil
}

func (r *PGRepository) rolesForAccount(ctx context.Context, accountID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name
		   FROM roles r
		   JOIN link_account_role ar ON ar.role_id = r.id
		  WHERE ar.account_id = $1
		  ORDER BY r.id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("auth: list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	roleIndex := make(map[int64]int)
	var roleIDs []int64
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("auth: scan role: %w", err)
		}
		roleIndex[role.ID] = len(roles)
		roleIDs = append(roleIDs, role.ID)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth: list roles: %w", err)
	}
	if len(roles) == 0 {
		return roles, nil
	}

	privRows, err := r.pool.Query(ctx,
		`SELECT rp.role_id, p.id, p.name
		   FROM privileges p
		   JOIN link_role_privilege rp ON rp.privilege_id = p.id
		  WHERE rp.role_id = ANY($1)
		  ORDER BY p.id`,
		roleIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("auth: list privileges: %w", err)
	}
	defer privRows.Close()

	for privRows.Next() {
		var roleID int64
		var priv Privilege
		if err := privRows.Scan(&roleID, &priv.ID, &priv.Name); err != nil {
			return nil, fmt.Errorf("auth: scan privilege: %w", err)
		}
		if idx, ok := roleIndex[roleID]; ok {
			roles[idx].Privileges = append(roles[idx].Privileges, priv)
		}
	}
	if err := privRows.Err(); err != nil {
		return nil, fmt.Errorf("auth: list privileges: %w", err)
	}
	return roles, nil
}

// FindRoleByName fetches a seeded role by its enumerated name.
func (r *PGRepository) FindRoleByName(ctx context.Context, name RoleName) (*Role, error) {
	role := &Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM roles WHERE name = $1`,
		string(name),
	).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRoleNotFound
		}
		return nil, fmt.Errorf("auth: find role: %w", err)
	}
	return role, nil
}

// CreateAccount inserts the account and its role assignment in one
// transaction. A duplicate email surfaces as shared.ErrDuplicate.
func (r *PGRepository) CreateAccount(ctx context.Context, email, passwordHash string, roleID int64) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO accounts (email, password_hash) VALUES ($1, $2) RETURNING id`,
			email, passwordHash,
		).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return shared.ErrDuplicate
			}
			return fmt.Errorf("auth: insert account: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO link_account_role (account_id, role_id) VALUES ($1, $2)`,
			id, roleID,
		); err != nil {
			return fmt.Errorf("auth: assign role: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
