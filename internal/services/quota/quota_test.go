package quota

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// memRepo хранит квоты в памяти и меняет их под мьютексом, как это делает UPDATE в базе.
type memRepo struct {
	mu     sync.Mutex
	quotas map[string]int
}

func (r *memRepo) AdjustQuota(_ context.Context, ownerEmail string, delta int) (models.QuotaResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotas[ownerEmail]
	if !ok {
		return models.QuotaResult{}, nil
	}
	q += delta
	r.quotas[ownerEmail] = q
	return models.QuotaResult{Matched: true, RemainingQuota: q}, nil
}

type RepoMock struct{ mock.Mock }

func (m *RepoMock) AdjustQuota(ctx context.Context, ownerEmail string, delta int) (models.QuotaResult, error) {
	args := m.Called(ctx, ownerEmail, delta)
	return args.Get(0).(models.QuotaResult), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newCache() *CacheMock {
	c := &CacheMock{}
	c.On("Invalidate", mock.Anything, mock.Anything).Return(nil)
	return c
}

func TestLedger_DecrementThenIncrementRestores(t *testing.T) {
	repo := &memRepo{quotas: map[string]int{"o@shop.com": 4}}
	l := NewLedger(repo, newCache(), nil, newNoopLogger())
	ctx := context.Background()

	res, err := l.Decrement(ctx, "o@shop.com")
	require.NoError(t, err)
	assert.Equal(t, 3, res.RemainingQuota)

	res, err = l.Increment(ctx, "o@shop.com")
	require.NoError(t, err)
	assert.Equal(t, models.QuotaResult{Matched: true, RemainingQuota: 4}, res)
}

func TestLedger_DecrementBelowZeroIsPermitted(t *testing.T) {
	repo := &memRepo{quotas: map[string]int{"o@shop.com": 0}}
	l := NewLedger(repo, newCache(), nil, newNoopLogger())

	res, err := l.Decrement(context.Background(), "o@shop.com")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, -1, res.RemainingQuota)
}

func TestLedger_ConcurrentDecrements(t *testing.T) {
	repo := &memRepo{quotas: map[string]int{"o@shop.com": 5}}
	l := NewLedger(repo, newCache(), nil, newNoopLogger())

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := l.Decrement(context.Background(), "o@shop.com")
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 3, repo.quotas["o@shop.com"])
}

func TestLedger_Add(t *testing.T) {
	tests := []struct {
		name       string
		owner      string
		delta      int
		setupMocks func(r *RepoMock, c *CacheMock)
		want       models.QuotaResult
		wantKind   error
	}{
		{
			name:  "replenish invalidates cache",
			owner: "o@shop.com",
			delta: 200,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("AdjustQuota", mock.Anything, "o@shop.com", 200).
					Return(models.QuotaResult{Matched: true, RemainingQuota: 203}, nil).Once()
				c.On("Invalidate", mock.Anything, "store:o@shop.com").Return(nil).Once()
			},
			want: models.QuotaResult{Matched: true, RemainingQuota: 203},
		},
		{
			name:  "missing store is not an error",
			owner: "ghost@shop.com",
			delta: -1,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("AdjustQuota", mock.Anything, "ghost@shop.com", -1).Return(models.QuotaResult{}, nil).Once()
			},
			want: models.QuotaResult{},
		},
		{
			name:  "cache failure does not fail the change",
			owner: "o@shop.com",
			delta: 1,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("AdjustQuota", mock.Anything, "o@shop.com", 1).
					Return(models.QuotaResult{Matched: true, RemainingQuota: 1}, nil).Once()
				c.On("Invalidate", mock.Anything, "store:o@shop.com").Return(errors.New("redis down")).Once()
			},
			want: models.QuotaResult{Matched: true, RemainingQuota: 1},
		},
		{
			name:  "storage failure",
			owner: "o@shop.com",
			delta: 1,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("AdjustQuota", mock.Anything, "o@shop.com", 1).Return(models.QuotaResult{}, errors.New("db down")).Once()
			},
			wantKind: apperr.ErrUpstream,
		},
		{
			name:       "empty owner",
			owner:      "",
			delta:      1,
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantKind:   apperr.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, c := &RepoMock{}, &CacheMock{}
			tt.setupMocks(repo, c)

			got, err := NewLedger(repo, c, nil, newNoopLogger()).Add(context.Background(), tt.owner, tt.delta)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}
