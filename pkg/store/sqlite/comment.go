package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
)

// CommentRepository implements store.CommentRepository on SQLite.
type CommentRepository struct {
	db *sqlx.DB
}

var _ store.CommentRepository = (*CommentRepository)(nil)

// NewCommentRepository creates a comment history repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

type commentRow struct {
	ID        int64  `db:"id"`
	AccountID int64  `db:"account_id"`
	Platform  string `db:"platform"`
	Username  string `db:"username"`
	VideoURL  string `db:"video_url"`
	Comment   string `db:"comment"`
	Status    string `db:"status"`
	PostedAt  int64  `db:"posted_at"`
}

// Create appends one history record.
func (r *CommentRepository) Create(ctx context.Context, record *store.CommentRecord) (int64, error) {
	query := `
		INSERT INTO comments (account_id, platform, username, video_url, comment, status, posted_at)
		VALUES (:account_id, :platform, :username, :video_url, :comment, :status, :posted_at)
	`

	postedAt := record.PostedAt
	if postedAt.IsZero() {
		postedAt = time.Now()
	}

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"account_id": record.AccountID,
		"platform":   record.Platform.String(),
		"username":   record.Username,
		"video_url":  record.VideoURL,
		"comment":    record.Comment,
		"status":     string(record.Status),
		"posted_at":  postedAt.Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert comment record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// Recent returns the newest records first, capped at limit.
func (r *CommentRepository) Recent(ctx context.Context, limit int) ([]*store.CommentRecord, error) {
	var rows []commentRow

	query := `SELECT * FROM comments ORDER BY posted_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list comment records: %w", err)
	}

	records := make([]*store.CommentRecord, 0, len(rows))
	for i := range rows {
		records = append(records, commentRowToDomain(&rows[i]))
	}
	return records, nil
}

func commentRowToDomain(row *commentRow) *store.CommentRecord {
	return &store.CommentRecord{
		ID:        row.ID,
		AccountID: row.AccountID,
		Platform:  platform.Platform(row.Platform),
		Username:  row.Username,
		VideoURL:  row.VideoURL,
		Comment:   row.Comment,
		Status:    store.CommentStatus(row.Status),
		PostedAt:  time.Unix(row.PostedAt, 0),
	}
}
