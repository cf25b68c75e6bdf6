package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/dbx"
	"github.com/dmpavlov/userkeeper/internal/server/models"
)

// PostgresRepository stores accounts in PostgreSQL. A unique index on
// lower(email) backs the uniqueness guarantee of Save; replacing the
// phone list happens in the same transaction as the account upsert.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO accounts (id, name, email, password_hash, active, token, created_at, updated_at, last_login)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			     name = EXCLUDED.name,
			     email = EXCLUDED.email,
			     password_hash = EXCLUDED.password_hash,
			     active = EXCLUDED.active,
			     token = EXCLUDED.token,
			     updated_at = EXCLUDED.updated_at,
			     last_login = EXCLUDED.last_login
			 `

		if _, err := tx.ExecContext(ctx, query,
			account.ID, account.Name, account.Email, account.PasswordHash,
			account.Active, account.Token, account.CreatedAt, account.UpdatedAt, account.LastLogin,
		); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM phones WHERE account_id = $1`, account.ID); err != nil {
			return err
		}

		for i := range account.Phones {
			phone := &account.Phones[i]
			err := tx.QueryRowContext(ctx,
				`INSERT INTO phones (account_id, number, city_code, country_code)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id
				 `,
				account.ID, phone.Number, phone.CityCode, phone.CountryCode,
			).Scan(&phone.ID)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, active, token, created_at, updated_at, last_login
		 FROM accounts
		 WHERE id = $1
		 `

	account, err := r.scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadPhones(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, active, token, created_at, updated_at, last_login
		 FROM accounts
		 WHERE lower(email) = lower($1)
		 `

	account, err := r.scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, err
	}

	if err := r.loadPhones(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	// phones go with the account via ON DELETE CASCADE
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) FindPage(ctx context.Context, page, size int) ([]*models.Account, error) {
	// page*size past MaxInt would wrap into a negative OFFSET
	if page < 0 || size <= 0 || page > math.MaxInt/size {
		return []*models.Account{}, nil
	}

	query :=
		`SELECT id, name, email, password_hash, active, token, created_at, updated_at, last_login
		 FROM accounts
		 ORDER BY created_at, id
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Account{}
	for rows.Next() {
		account := &models.Account{}
		if err := rows.Scan(
			&account.ID, &account.Name, &account.Email, &account.PasswordHash,
			&account.Active, &account.Token, &account.CreatedAt, &account.UpdatedAt, &account.LastLogin,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, account := range result {
		if err := r.loadPhones(ctx, account); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&account.Active, &account.Token, &account.CreatedAt, &account.UpdatedAt, &account.LastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) loadPhones(ctx context.Context, account *models.Account) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, number, city_code, country_code
		 FROM phones
		 WHERE account_id = $1
		 ORDER BY id
		 `, account.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	account.Phones = []models.Phone{}
	for rows.Next() {
		var phone models.Phone
		if err := rows.Scan(&phone.ID, &phone.Number, &phone.CityCode, &phone.CountryCode); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		account.Phones = append(account.Phones, phone)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
