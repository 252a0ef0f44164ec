package cooldown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-orchestrator/services/usage"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(threshold int) (*Manager, *usage.Tracker, *fakeClock) {
	clock := newFakeClock()
	tracker := usage.NewTracker(usage.WithClock(clock.Now))
	manager := NewManager(tracker, Config{Threshold: threshold, Duration: 300 * time.Second}, zap.NewNop(), WithClock(clock.Now))
	return manager, tracker, clock
}

func TestManager_TriggerAndExpire(t *testing.T) {
	manager, _, clock := newTestManager(5000)

	manager.Clear("test-model")
	assert.False(t, manager.IsOnCooldown("test-model"))

	manager.Trigger("test-model", 5*time.Second)
	assert.True(t, manager.IsOnCooldown("test-model"))
	assert.Equal(t, 5, manager.RemainingSeconds("test-model"))

	clock.Advance(4 * time.Second)
	assert.True(t, manager.IsOnCooldown("test-model"))

	clock.Advance(time.Second)
	assert.False(t, manager.IsOnCooldown("test-model"), "cooldown ends once now reaches expiry")
	assert.Equal(t, 0, manager.RemainingSeconds("test-model"))
	assert.Empty(t, manager.All())
}

func TestManager_TriggerOverwritesExpiry(t *testing.T) {
	manager, _, clock := newTestManager(5000)

	manager.Trigger("m", 600*time.Second)
	clock.Advance(10 * time.Second)
	manager.Trigger("m", 60*time.Second)

	assert.Equal(t, 60*time.Second, manager.Remaining("m"), "new trigger replaces, never extends")
	assert.Equal(t, 2, manager.Statistics()["m"])
}

func TestManager_TriggerDefaultDuration(t *testing.T) {
	manager, _, _ := newTestManager(5000)

	manager.Trigger("m", 0)

	assert.Equal(t, 300*time.Second, manager.Remaining("m"))
}

func TestManager_CheckAndTrigger(t *testing.T) {
	tests := []struct {
		name          string
		recorded      []int
		wantTriggered bool
	}{
		{name: "no usage", recorded: nil, wantTriggered: false},
		{name: "below threshold", recorded: []int{400, 599}, wantTriggered: false},
		{name: "exactly threshold", recorded: []int{400, 600}, wantTriggered: true},
		{name: "above threshold", recorded: []int{2000}, wantTriggered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, tracker, _ := newTestManager(1000)
			for _, tokens := range tt.recorded {
				tracker.Record("gpt-4", tokens, "openai")
			}

			triggered := manager.CheckAndTrigger("gpt-4", time.Hour)

			assert.Equal(t, tt.wantTriggered, triggered)
			assert.Equal(t, tt.wantTriggered, manager.IsOnCooldown("gpt-4"))
			if tt.wantTriggered {
				assert.Equal(t, 300, manager.RemainingSeconds("gpt-4"))
				assert.Equal(t, 1, manager.Statistics()["gpt-4"])
			} else {
				assert.Empty(t, manager.Statistics())
			}
		})
	}
}

func TestManager_CheckAndTriggerIgnoresUsageOutsideWindow(t *testing.T) {
	manager, tracker, clock := newTestManager(1000)

	tracker.Record("m", 900, "")
	clock.Advance(2 * time.Hour)
	tracker.Record("m", 200, "")

	assert.False(t, manager.CheckAndTrigger("m", time.Hour))
}

func TestManager_All(t *testing.T) {
	manager, _, clock := newTestManager(5000)

	manager.Trigger("a", 10*time.Second)
	manager.Trigger("b", 100*time.Second)
	clock.Advance(20 * time.Second)

	all := manager.All()

	require.Len(t, all, 1)
	assert.Equal(t, 80, all["b"])
}

func TestManager_ClearAll(t *testing.T) {
	manager, _, _ := newTestManager(5000)
	manager.Trigger("a", time.Minute)
	manager.Trigger("b", time.Minute)

	manager.ClearAll()

	assert.Empty(t, manager.All())
	assert.False(t, manager.IsOnCooldown("a"))
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, manager.Statistics())
}

func TestNewManager_Defaults(t *testing.T) {
	manager := NewManager(nil, Config{}, nil)

	assert.Equal(t, DefaultThreshold, manager.Threshold())
	assert.False(t, manager.CheckAndTrigger("m", time.Hour))
}

func TestManager_Concurrent(t *testing.T) {
	manager, tracker, _ := newTestManager(100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tracker.Record("m", 1, "")
				manager.CheckAndTrigger("m", time.Hour)
				_ = manager.IsOnCooldown("m")
				_ = manager.All()
			}
		}()
	}
	wg.Wait()

	assert.True(t, manager.IsOnCooldown("m"))
	assert.GreaterOrEqual(t, manager.Statistics()["m"], 1)
}
