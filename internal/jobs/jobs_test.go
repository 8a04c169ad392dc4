package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) RefreshJob(ctx context.Context) error {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh must run with a deadline")
	}
	return f.err
}

func TestCurrencyRefreshJob_Run(t *testing.T) {
	ok := &fakeRefresher{}
	assert.True(t, NewCurrencyRefreshJob(ok, zap.NewNop(), 0).Run())
	assert.Equal(t, int32(1), ok.calls.Load())

	failing := &fakeRefresher{err: errors.New("feed down")}
	assert.False(t, NewCurrencyRefreshJob(failing, zap.NewNop(), time.Second).Run())
}

func TestScheduler_AddRemove(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "@every 1h", func() {}))
	require.NoError(t, s.AddJob("a", "0 0 6 * * *", func() {}))
	assert.Error(t, s.AddJob("a", "@hourly", func() {}), "duplicate names are refused")
	assert.Error(t, s.AddJob("bad", "not a spec", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
}

func TestRegisterCurrencyRefreshJob_RunsAtStartup(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	r := &fakeRefresher{}

	require.NoError(t, RegisterCurrencyRefreshJob(s, r, zap.NewNop(), "@every 24h", time.Second, true))
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{CurrencyRefreshJobName}, s.GetJobNames())

	assert.Error(t, RegisterCurrencyRefreshJob(s, r, zap.NewNop(), "@every 24h", time.Second, false))
}
