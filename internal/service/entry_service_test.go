package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"starlog/backend/internal/model"
	"starlog/backend/internal/repository"
	"starlog/backend/internal/repository/mock"
	"starlog/backend/internal/service"
	"starlog/backend/internal/service/apod"
)

// fixedNow matches the worked example from the date rules: a submitter
// at offset +300 (five hours behind UTC) whose local today is 2024-06-14.
var fixedNow = time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

type pictureProviderStub struct {
	lookupFn func(ctx context.Context, date string) (apod.Picture, error)
}

func (s *pictureProviderStub) Lookup(ctx context.Context, date string) (apod.Picture, error) {
	if s.lookupFn == nil {
		panic("unexpected apod lookup")
	}
	return s.lookupFn(ctx, date)
}

func newService(t *testing.T, provider apod.Provider) (*mock.MockEntryRepository, service.EntryService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockEntries := mock.NewMockEntryRepository(ctrl)
	svc := service.NewEntryService(mockEntries, provider, service.WithClock(fixedClock))
	return mockEntries, svc
}

func TestEntryService_Submit_Created(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().
		FindByDate(ctx, "2024-06-14").
		Return(nil, nil)

	var saved model.Entry
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			saved = entry
			entry.ID = 42
			return entry, nil
		})

	result, err := svc.Submit(ctx, service.Submission{
		Title:                 "A fine day",
		Body:                  "Went outside.",
		EntryDate:             "2024-06-14",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusCreated, result.Status)
	require.Equal(t, "2024-06-14", result.EntryDate)
	require.Equal(t, int64(42), result.Entry.ID)

	require.Equal(t, "A fine day", saved.Title)
	require.Equal(t, "Went outside.", saved.Body)
	require.Equal(t, "2024-06-14", saved.Date)
	require.False(t, saved.IncludeAstronomy)
	require.Nil(t, saved.AstronomyImageURL)
	// Start of 2024-06-14 shifted by +300 minutes
	require.Equal(t, time.Date(2024, 6, 13, 19, 0, 0, 0, time.UTC), saved.CreatedAt)
}

func TestEntryService_Submit_FutureDateRejected(t *testing.T) {
	// Current UTC time is 02:00 on 2024-06-15, but the submitter is
	// five hours behind, so 2024-06-15 is still tomorrow for them.
	_, svc := newService(t, &pictureProviderStub{})

	result, err := svc.Submit(context.Background(), service.Submission{
		Title:                 "Too soon",
		EntryDate:             "2024-06-15",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusFutureDate, result.Status)
	require.Equal(t, "2024-06-15", result.EntryDate)
}

func TestEntryService_Submit_TodayAllowed(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, nil)
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			entry.ID = 1
			return entry, nil
		})

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-06-14",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusCreated, result.Status)
}

func TestEntryService_Submit_PastDateAllowed(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().FindByDate(ctx, "2023-01-01").Return(nil, nil)
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			entry.ID = 1
			return entry, nil
		})

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2023-01-01",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusCreated, result.Status)
}

func TestEntryService_Submit_DuplicateDate(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	existing := model.Entry{ID: 7, Date: "2024-03-01"}
	mockEntries.EXPECT().
		FindByDate(ctx, "2024-03-01").
		Return(&existing, nil)

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-03-01",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusDuplicateDate, result.Status)
	require.Equal(t, "2024-03-01", result.EntryDate)
}

func TestEntryService_Submit_DuplicateRace(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	// FindByDate sees nothing, but a concurrent submission wins the
	// insert; the unique index reports it as a duplicate outcome.
	mockEntries.EXPECT().FindByDate(ctx, "2024-03-01").Return(nil, nil)
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		Return(model.Entry{}, repository.ErrDuplicateDate)

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-03-01",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusDuplicateDate, result.Status)
}

func TestEntryService_Submit_InvalidDate(t *testing.T) {
	_, svc := newService(t, &pictureProviderStub{})

	for _, date := range []string{"", "garbage", "2024-02-30", "2024-13-01", "14-06-2024"} {
		result, err := svc.Submit(context.Background(), service.Submission{
			EntryDate:             date,
			TimezoneOffsetMinutes: 0,
		})
		require.NoError(t, err, "date %q", date)
		require.Equal(t, service.StatusInvalidDate, result.Status, "date %q", date)
	}
}

func TestEntryService_Submit_ImplausibleOffset(t *testing.T) {
	_, svc := newService(t, &pictureProviderStub{})

	for _, offset := range []int{-841, 721, 100000} {
		result, err := svc.Submit(context.Background(), service.Submission{
			EntryDate:             "2024-06-14",
			TimezoneOffsetMinutes: offset,
		})
		require.NoError(t, err, "offset %d", offset)
		require.Equal(t, service.StatusInvalidDate, result.Status, "offset %d", offset)
	}
}

func TestEntryService_Submit_AstronomySuccess(t *testing.T) {
	provider := &pictureProviderStub{
		lookupFn: func(_ context.Context, date string) (apod.Picture, error) {
			return apod.Picture{URL: "https://apod.nasa.gov/apod/image/" + date + ".jpg"}, nil
		},
	}
	mockEntries, svc := newService(t, provider)
	ctx := context.Background()

	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, nil)

	var saved model.Entry
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			saved = entry
			return entry, nil
		})

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-06-14",
		IncludeAstronomy:      true,
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusCreated, result.Status)
	require.True(t, saved.IncludeAstronomy)
	require.NotNil(t, saved.AstronomyImageURL)
	require.Equal(t, "https://apod.nasa.gov/apod/image/2024-06-14.jpg", *saved.AstronomyImageURL)
}

func TestEntryService_Submit_AstronomyFailureSwallowed(t *testing.T) {
	provider := &pictureProviderStub{
		lookupFn: func(context.Context, string) (apod.Picture, error) {
			return apod.Picture{}, errors.New("apod unavailable")
		},
	}
	mockEntries, svc := newService(t, provider)
	ctx := context.Background()

	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, nil)

	var saved model.Entry
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			saved = entry
			return entry, nil
		})

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-06-14",
		IncludeAstronomy:      true,
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusCreated, result.Status)
	require.True(t, saved.IncludeAstronomy)
	require.Nil(t, saved.AstronomyImageURL)
}

func TestEntryService_Submit_NoAstronomyNoLookup(t *testing.T) {
	// The stub panics on any lookup, so reaching Created proves the
	// provider was never called.
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, nil)
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			return entry, nil
		})

	result, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-06-14",
		IncludeAstronomy:      false,
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusCreated, result.Status)
}

func TestEntryService_Submit_SanitizesUserText(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, nil)

	var saved model.Entry
	mockEntries.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry model.Entry) (model.Entry, error) {
			saved = entry
			return entry, nil
		})

	_, err := svc.Submit(ctx, service.Submission{
		Title:                 `<b>Bold</b> title<script>alert(1)</script>`,
		Body:                  `<p>Fine.</p><script>alert(1)</script>`,
		EntryDate:             "2024-06-14",
		TimezoneOffsetMinutes: 300,
	})
	require.NoError(t, err)
	require.NotContains(t, saved.Title, "<")
	require.Contains(t, saved.Title, "title")
	require.Contains(t, saved.Body, "<p>Fine.</p>")
	require.NotContains(t, saved.Body, "script")
}

func TestEntryService_Submit_FindByDateError(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	dbErr := errors.New("db error")
	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, dbErr)

	_, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-06-14",
		TimezoneOffsetMinutes: 300,
	})
	require.ErrorIs(t, err, dbErr)
}

func TestEntryService_Submit_CreateError(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	dbErr := errors.New("insert failed")
	mockEntries.EXPECT().FindByDate(ctx, "2024-06-14").Return(nil, nil)
	mockEntries.EXPECT().Create(ctx, gomock.Any()).Return(model.Entry{}, dbErr)

	_, err := svc.Submit(ctx, service.Submission{
		EntryDate:             "2024-06-14",
		TimezoneOffsetMinutes: 300,
	})
	require.ErrorIs(t, err, dbErr)
}

func TestEntryService_GetByID_Success(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().
		GetByID(ctx, int64(123)).
		Return(model.Entry{ID: 123, Title: "Hello"}, nil)

	entry, err := svc.GetByID(ctx, 123)
	require.NoError(t, err)
	require.Equal(t, int64(123), entry.ID)
}

func TestEntryService_GetByID_NotFound(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	mockEntries.EXPECT().
		GetByID(ctx, int64(999)).
		Return(model.Entry{}, sql.ErrNoRows)

	_, err := svc.GetByID(ctx, 999)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestEntryService_List(t *testing.T) {
	mockEntries, svc := newService(t, &pictureProviderStub{})
	ctx := context.Background()

	expected := []model.Entry{
		{ID: 2, Date: "2024-06-14"},
		{ID: 1, Date: "2024-06-13"},
	}
	mockEntries.EXPECT().List(ctx).Return(expected, nil)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, expected, entries)
}
