package recordfeedback

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu        sync.Mutex
	records   []*models.Feedback
	insertErr error
	countErr  error
}

func (s *memoryStore) Insert(_ context.Context, f *models.Feedback) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, f)
	return nil
}

func (s *memoryStore) CountByRate(context.Context) (map[int]int64, error) {
	if s.countErr != nil {
		return nil, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[int]int64)
	for _, r := range s.records {
		counts[r.Rate]++
	}
	return counts, nil
}

func newMiniredisCounters(t *testing.T) (*Counters, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCounters(client, "feedback:ratings"), mr
}

func TestHandler_Record_Success(t *testing.T) {
	store := &memoryStore{}
	counters, mr := newMiniredisCounters(t)
	handler := NewHandler(LoadConfig(), store, counters, logger.NewTestLogger(t))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return fixed }

	record, err := handler.Record(context.Background(), map[string]interface{}{
		"rate":     float64(4),
		"feedback": "ótimo",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, 4, record.Rate)
	require.NotNil(t, record.Feedback)
	assert.Equal(t, "ótimo", *record.Feedback)
	assert.Equal(t, models.FeedbackSchemaRate, record.SchemaVersion)
	assert.Equal(t, fixed, record.CreatedAt)

	require.Len(t, store.records, 1)
	assert.Same(t, record, store.records[0])

	assert.Equal(t, "1", mr.HGet("feedback:ratings", "4"))
}

func TestHandler_Record_WritesToPostgres(t *testing.T) {
	store, mock := newMockStore(t)
	handler := NewHandler(LoadConfig(), store, nil, logger.NewTestLogger(t))

	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(sqlmock.AnyArg(), 4, "ótimo", models.FeedbackSchemaRate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record, err := handler.Record(context.Background(), map[string]interface{}{
		"rate":     float64(4),
		"feedback": "ótimo",
	})

	require.NoError(t, err)
	assert.Equal(t, 4, record.Rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Record_ValidationError(t *testing.T) {
	store := &memoryStore{}
	handler := NewHandler(LoadConfig(), store, nil, logger.NewTestLogger(t))

	_, err := handler.Record(context.Background(), map[string]interface{}{"feedback": "sem nota"})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
	assert.Empty(t, store.records)
}

func TestHandler_Record_StoreErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"connection", fmt.Errorf("%w: refused", ErrConnection), apperrors.ErrCodeDatabaseConnectionFailed},
		{"insert", errors.New("duplicate key"), apperrors.ErrCodeDatabaseInsertFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(LoadConfig(), &memoryStore{insertErr: tt.err}, nil, logger.NewTestLogger(t))

			_, err := handler.Record(context.Background(), map[string]interface{}{"rate": float64(2)})

			assert.True(t, apperrors.Is(err, tt.code))
		})
	}
}

func TestHandler_Record_CounterFailureIsIgnored(t *testing.T) {
	store := &memoryStore{}
	counters, mr := newMiniredisCounters(t)
	mr.Close()
	handler := NewHandler(LoadConfig(), store, counters, logger.NewTestLogger(t))

	record, err := handler.Record(context.Background(), map[string]interface{}{"like": true})

	require.NoError(t, err)
	assert.Equal(t, 5, record.Rate)
	assert.Equal(t, models.FeedbackSchemaLike, record.SchemaVersion)
	assert.Len(t, store.records, 1)
}

func TestHandler_Summary(t *testing.T) {
	store := &memoryStore{}
	counters, _ := newMiniredisCounters(t)
	handler := NewHandler(LoadConfig(), store, counters, logger.NewTestLogger(t))

	for _, rate := range []float64{5, 5, 3} {
		_, err := handler.Record(context.Background(), map[string]interface{}{"rate": rate})
		require.NoError(t, err)
	}

	summary, err := handler.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[int]int64{5: 2, 3: 1}, summary.Counts)
	assert.Equal(t, int64(3), summary.Total)
}

func TestHandler_Summary_FallsBackToStore(t *testing.T) {
	store := &memoryStore{records: []*models.Feedback{{Rate: 2}, {Rate: 2}}}
	counters, mr := newMiniredisCounters(t)
	mr.Close()
	handler := NewHandler(LoadConfig(), store, counters, logger.NewTestLogger(t))

	summary, err := handler.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[int]int64{2: 2}, summary.Counts)
	assert.Equal(t, int64(2), summary.Total)
}

func TestHandler_Summary_StoreUnavailable(t *testing.T) {
	store := &memoryStore{countErr: fmt.Errorf("%w: refused", ErrConnection)}
	handler := NewHandler(LoadConfig(), store, nil, logger.NewTestLogger(t))

	_, err := handler.Summary(context.Background())

	assert.True(t, apperrors.Is(err, apperrors.ErrCodeDatabaseConnectionFailed))
}
