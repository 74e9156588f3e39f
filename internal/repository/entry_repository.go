package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"starlog/backend/internal/model"
	"starlog/backend/internal/snowflake"
)

//go:generate mockgen -source=entry_repository.go -destination=mock/mock_entry_repository.go -package=mock

// ErrDuplicateDate is returned by Create when the unique index on date
// rejects the insert. The service-level duplicate check catches the
// sequential case first; this covers the concurrent one.
var ErrDuplicateDate = errors.New("entry date already exists")

type EntryRepository interface {
	Create(ctx context.Context, entry model.Entry) (model.Entry, error)
	GetByID(ctx context.Context, id int64) (model.Entry, error)
	FindByDate(ctx context.Context, date string) (*model.Entry, error)
	List(ctx context.Context) ([]model.Entry, error)
	Count(ctx context.Context) (int, error)
}

type entryRepository struct {
	db dbtx
}

func NewEntryRepository(db dbtx) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry model.Entry) (model.Entry, error) {
	entry.ID = snowflake.NextID()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO entries (id, title, body, date, created_at, include_astronomy, astronomy_image_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Title,
		entry.Body,
		entry.Date,
		formatTime(entry.CreatedAt),
		boolToInt(entry.IncludeAstronomy),
		nullableString(entry.AstronomyImageURL),
		formatTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Entry{}, ErrDuplicateDate
		}
		return model.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	entry.UpdatedAt = now
	return entry, nil
}

func (r *entryRepository) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, title, body, date, created_at, include_astronomy, astronomy_image_url, updated_at
		 FROM entries WHERE id = ?`,
		id,
	)
	return scanEntry(row)
}

func (r *entryRepository) FindByDate(ctx context.Context, date string) (*model.Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, title, body, date, created_at, include_astronomy, astronomy_image_url, updated_at
		 FROM entries WHERE date = ?`,
		date,
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find entry by date: %w", err)
	}
	return &entry, nil
}

func (r *entryRepository) List(ctx context.Context) ([]model.Entry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, title, body, date, created_at, include_astronomy, astronomy_image_url, updated_at
		 FROM entries ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

func (r *entryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

func scanEntry(scanner interface {
	Scan(dest ...interface{}) error
}) (model.Entry, error) {
	var e model.Entry
	var imageURL sql.NullString
	var includeInt int
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&e.ID,
		&e.Title,
		&e.Body,
		&e.Date,
		&createdAt,
		&includeInt,
		&imageURL,
		&updatedAt,
	); err != nil {
		return model.Entry{}, err
	}

	e.IncludeAstronomy = includeInt == 1
	if imageURL.Valid {
		e.AstronomyImageURL = &imageURL.String
	}
	var err error
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parse entry created_at: %w", err)
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parse entry updated_at: %w", err)
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
