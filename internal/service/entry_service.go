package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"starlog/backend/internal/logger"
	"starlog/backend/internal/model"
	"starlog/backend/internal/repository"
	"starlog/backend/internal/service/apod"
)

const entryDateLayout = "2006-01-02"

// Plausible UTC offsets in minutes-behind-UTC terms: UTC+14 is -840,
// UTC-12 is +720.
const (
	minTimezoneOffset = -840
	maxTimezoneOffset = 720
)

// Submission is the raw, untrusted form input for a new entry.
type Submission struct {
	Title                 string
	Body                  string
	EntryDate             string
	IncludeAstronomy      bool
	TimezoneOffsetMinutes int
}

// SubmissionStatus classifies the outcome of a submission. Rejections
// are expected, user-correctable outcomes and travel as data; only
// system failures use the error return.
type SubmissionStatus string

const (
	StatusCreated       SubmissionStatus = "created"
	StatusFutureDate    SubmissionStatus = "futureDate"
	StatusDuplicateDate SubmissionStatus = "duplicateDate"
	StatusInvalidDate   SubmissionStatus = "invalidDate"
)

// SubmissionResult carries the outcome back to the handler. Entry is
// populated only when Status is StatusCreated.
type SubmissionResult struct {
	Status    SubmissionStatus
	EntryDate string
	Entry     model.Entry
}

type EntryService interface {
	Submit(ctx context.Context, sub Submission) (SubmissionResult, error)
	List(ctx context.Context) ([]model.Entry, error)
	GetByID(ctx context.Context, id int64) (model.Entry, error)
}

type entryService struct {
	entries        repository.EntryRepository
	pictures       apod.Provider
	titleSanitizer *bluemonday.Policy
	bodySanitizer  *bluemonday.Policy
	now            func() time.Time
}

// Option configures an EntryService.
type Option func(*entryService)

// WithClock overrides the wall clock, for tests exercising the
// future-date boundary.
func WithClock(now func() time.Time) Option {
	return func(s *entryService) {
		s.now = now
	}
}

func NewEntryService(entries repository.EntryRepository, pictures apod.Provider, opts ...Option) EntryService {
	s := &entryService{
		entries:        entries,
		pictures:       pictures,
		titleSanitizer: bluemonday.StrictPolicy(),
		bodySanitizer:  bluemonday.UGCPolicy(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit normalizes and validates a submission and, if accepted,
// persists exactly one new entry.
//
// The date rules work in the submitter's frame: both the chosen day
// and "now" are shifted by the reported offset (local = UTC - offset)
// before comparison, so a user five hours behind UTC at 02:00 UTC is
// still on yesterday's page.
func (s *entryService) Submit(ctx context.Context, sub Submission) (SubmissionResult, error) {
	if sub.TimezoneOffsetMinutes < minTimezoneOffset || sub.TimezoneOffsetMinutes > maxTimezoneOffset {
		return SubmissionResult{Status: StatusInvalidDate, EntryDate: sub.EntryDate}, nil
	}

	dateUTC, err := time.Parse(entryDateLayout, strings.TrimSpace(sub.EntryDate))
	if err != nil {
		// Unparseable or impossible calendar date (e.g. 2024-02-30)
		return SubmissionResult{Status: StatusInvalidDate, EntryDate: sub.EntryDate}, nil
	}
	entryDate := dateUTC.Format(entryDateLayout)

	offset := time.Duration(sub.TimezoneOffsetMinutes) * time.Minute

	// Start of the chosen day in the submitter's frame, expressed in UTC
	userSelected := dateUTC.Add(-offset)

	// Current instant shifted into the submitter's frame, truncated to
	// the start of that local day
	shiftedNow := s.now().UTC().Add(-offset)
	userToday := time.Date(shiftedNow.Year(), shiftedNow.Month(), shiftedNow.Day(), 0, 0, 0, 0, time.UTC)

	if userSelected.After(userToday) {
		return SubmissionResult{Status: StatusFutureDate, EntryDate: entryDate}, nil
	}

	existing, err := s.entries.FindByDate(ctx, entryDate)
	if err != nil {
		return SubmissionResult{}, err
	}
	if existing != nil {
		return SubmissionResult{Status: StatusDuplicateDate, EntryDate: entryDate}, nil
	}

	var imageURL *string
	if sub.IncludeAstronomy {
		picture, err := s.pictures.Lookup(ctx, entryDate)
		if err != nil {
			// Enrichment is best effort: the entry is still created
			logger.Warn("apod lookup failed",
				"module", "entry",
				"action", "submit",
				"resource", "apod",
				"result", "failed",
				"date", entryDate,
				"error", err,
			)
		} else {
			imageURL = &picture.URL
		}
	}

	entry := model.Entry{
		Title:             s.titleSanitizer.Sanitize(sub.Title),
		Body:              s.bodySanitizer.Sanitize(sub.Body),
		Date:              entryDate,
		CreatedAt:         userSelected,
		IncludeAstronomy:  sub.IncludeAstronomy,
		AstronomyImageURL: imageURL,
	}

	created, err := s.entries.Create(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateDate) {
			// Lost a race with a concurrent submission for the same day
			return SubmissionResult{Status: StatusDuplicateDate, EntryDate: entryDate}, nil
		}
		return SubmissionResult{}, err
	}

	logger.Info("entry created",
		"module", "entry",
		"action", "submit",
		"resource", "entry",
		"result", "ok",
		"id", created.ID,
		"date", entryDate,
	)

	return SubmissionResult{Status: StatusCreated, EntryDate: entryDate, Entry: created}, nil
}

func (s *entryService) List(ctx context.Context) ([]model.Entry, error) {
	return s.entries.List(ctx)
}

func (s *entryService) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Entry{}, ErrNotFound
		}
		return model.Entry{}, err
	}
	return entry, nil
}
