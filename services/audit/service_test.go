package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-orchestrator/models"
	"go.uber.org/zap"
)

// MockRequestLogRepository is a mock implementation of RequestLogRepository
type MockRequestLogRepository struct {
	mock.Mock
	mu       sync.Mutex
	inserted []*models.RequestLog
}

func (m *MockRequestLogRepository) Insert(ctx context.Context, log *models.RequestLog) error {
	args := m.Called(ctx, log)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.inserted = append(m.inserted, log)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockRequestLogRepository) GetByRequestID(ctx context.Context, requestID string) (*models.RequestLog, error) {
	args := m.Called(ctx, requestID)
	if log := args.Get(0); log != nil {
		return log.(*models.RequestLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRequestLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	args := m.Called(ctx, limit)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.RequestLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRequestLogRepository) CountByOutcome(ctx context.Context, since time.Time) (map[models.RequestOutcome]int, error) {
	args := m.Called(ctx, since)
	if counts := args.Get(0); counts != nil {
		return counts.(map[models.RequestOutcome]int), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRequestLogRepository) Inserted() []*models.RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.RequestLog, len(m.inserted))
	copy(out, m.inserted)
	return out
}

func newLog(requestID string) *models.RequestLog {
	return models.NewRequestLog(requestID, "general", "balanced").
		AddAttempt("openai", "gpt-3.5-turbo", models.AttemptOutcomeSuccess, nil, time.Millisecond).
		WithSuccess("openai", "gpt-3.5-turbo", 100, false)
}

func TestAuditService_StartStop(t *testing.T) {
	service := NewAuditService(new(MockRequestLogRepository), zap.NewNop(), Config{BufferSize: 10, WorkerCount: 2})

	require.NoError(t, service.Start())
	assert.Error(t, service.Start(), "double start")

	require.NoError(t, service.Stop(time.Second))
	assert.ErrorIs(t, service.Stop(time.Second), ErrNotStarted)
	assert.Error(t, service.Start(), "restart after stop")
}

func TestAuditService_RecordRequest(t *testing.T) {
	repo := new(MockRequestLogRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	service := NewAuditService(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, service.Start())

	log := newLog("req-1")
	require.NoError(t, service.RecordRequest(context.Background(), log))
	require.NoError(t, service.Stop(time.Second))

	inserted := repo.Inserted()
	require.Len(t, inserted, 1)
	assert.Same(t, log, inserted[0])
	assert.Equal(t, int64(1), service.GetStats().Written)
}

func TestAuditService_RecordRequestNotStarted(t *testing.T) {
	service := NewAuditService(new(MockRequestLogRepository), zap.NewNop(), DefaultConfig())

	err := service.RecordRequest(context.Background(), newLog("req"))

	assert.ErrorIs(t, err, ErrNotStarted)
	assert.NoError(t, service.RecordRequest(context.Background(), nil))
}

func TestAuditService_RecordAfterStop(t *testing.T) {
	service := NewAuditService(new(MockRequestLogRepository), zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, service.Start())
	require.NoError(t, service.Stop(time.Second))

	assert.NotPanics(t, func() {
		err := service.RecordRequest(context.Background(), newLog("late"))
		assert.ErrorIs(t, err, ErrNotStarted)
	})
}

func TestAuditService_ConcurrentRecording(t *testing.T) {
	repo := new(MockRequestLogRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	service := NewAuditService(repo, zap.NewNop(), Config{BufferSize: 1000, WorkerCount: 4})
	require.NoError(t, service.Start())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = service.RecordRequest(context.Background(), newLog("concurrent"))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, repo.Inserted(), 200)
}

func TestAuditService_WriteFailureIsCounted(t *testing.T) {
	repo := new(MockRequestLogRepository)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	service := NewAuditService(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, service.Start())

	require.NoError(t, service.RecordRequest(context.Background(), newLog("a")))
	require.NoError(t, service.RecordRequest(context.Background(), newLog("b")))
	require.NoError(t, service.Stop(time.Second))

	stats := service.GetStats()
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, int64(0), stats.Written)
}

func TestAuditService_BufferFull(t *testing.T) {
	repo := new(MockRequestLogRepository)
	release := make(chan struct{})
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})

	service := NewAuditService(repo, zap.NewNop(), Config{BufferSize: 2, WorkerCount: 1})
	require.NoError(t, service.Start())

	var dropped int
	for i := 0; i < 10; i++ {
		if errors.Is(service.RecordRequest(context.Background(), newLog("burst")), ErrBufferFull) {
			dropped++
		}
	}

	// one record is held by the worker, two sit in the buffer
	assert.GreaterOrEqual(t, dropped, 7)
	assert.Equal(t, int64(dropped), service.GetStats().Dropped)

	close(release)
	require.NoError(t, service.Stop(time.Second))
}

func TestAuditService_StopTimeout(t *testing.T) {
	repo := new(MockRequestLogRepository)
	release := make(chan struct{})
	defer close(release)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})

	service := NewAuditService(repo, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, service.Start())
	require.NoError(t, service.RecordRequest(context.Background(), newLog("slow")))

	err := service.Stop(50 * time.Millisecond)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestAuditService_GetStats(t *testing.T) {
	service := NewAuditService(new(MockRequestLogRepository), zap.NewNop(), Config{BufferSize: 100, WorkerCount: 5})

	stats := service.GetStats()
	assert.False(t, stats.Started)
	assert.Equal(t, 5, stats.WorkerCount)
	assert.Equal(t, 100, stats.BufferSize)
	assert.Equal(t, 0, stats.PendingRecords)

	require.NoError(t, service.Start())
	assert.True(t, service.GetStats().Started)
	require.NoError(t, service.Stop(time.Second))
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 10000, config.BufferSize)
	assert.Equal(t, 5, config.WorkerCount)
	assert.Equal(t, 5*time.Second, config.WriteTimeout)

	service := NewAuditService(new(MockRequestLogRepository), zap.NewNop(), Config{})
	assert.Equal(t, 10000, service.GetStats().BufferSize)
}
