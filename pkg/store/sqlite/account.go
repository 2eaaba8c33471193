package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
)

// AccountRepository implements store.AccountRepository on SQLite.
type AccountRepository struct {
	db *sqlx.DB
}

var _ store.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates an account repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type accountRow struct {
	ID               int64         `db:"id"`
	Platform         string        `db:"platform"`
	Username         string        `db:"username"`
	EncryptedCookies string        `db:"encrypted_cookies"`
	Status           string        `db:"status"`
	LastUsed         sql.NullInt64 `db:"last_used"`
	CreatedAt        int64         `db:"created_at"`
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *store.Account) (int64, error) {
	query := `
		INSERT INTO accounts (platform, username, encrypted_cookies, status)
		VALUES (:platform, :username, :encrypted_cookies, :status)
	`

	status := account.Status
	if status == "" {
		status = store.AccountConnected
	}

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"platform":          account.Platform.String(),
		"username":          account.Username,
		"encrypted_cookies": account.EncryptedCookies,
		"status":            string(status),
	})
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// GetByID fetches one account.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*store.Account, error) {
	var row accountRow

	query := `SELECT * FROM accounts WHERE id = ?`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", store.ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return accountRowToDomain(&row), nil
}

// List returns all accounts, newest first.
func (r *AccountRepository) List(ctx context.Context) ([]*store.Account, error) {
	var rows []accountRow

	query := `SELECT * FROM accounts ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]*store.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, accountRowToDomain(&rows[i]))
	}
	return accounts, nil
}

// UpdateStatus sets an account's status.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id int64, status store.AccountStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	return requireRow(result, id)
}

// UpdateLastUsed stamps an account with the current time.
func (r *AccountRepository) UpdateLastUsed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET last_used = ? WHERE id = ?`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update account last used: %w", err)
	}
	return requireRow(result, id)
}

// Delete removes an account and, via cascade, its history.
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", store.ErrAccountNotFound, id)
	}
	return nil
}

func accountRowToDomain(row *accountRow) *store.Account {
	account := &store.Account{
		ID:               row.ID,
		Platform:         platform.Platform(row.Platform),
		Username:         row.Username,
		EncryptedCookies: row.EncryptedCookies,
		Status:           store.AccountStatus(row.Status),
		CreatedAt:        time.Unix(row.CreatedAt, 0),
	}
	if row.LastUsed.Valid {
		t := time.Unix(row.LastUsed.Int64, 0)
		account.LastUsed = &t
	}
	return account
}
