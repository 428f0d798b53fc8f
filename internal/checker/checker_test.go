package checker_test

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/battwarn/internal/battery"
	"codeberg.org/mutker/battwarn/internal/checker"
	"codeberg.org/mutker/battwarn/internal/errors"
	"codeberg.org/mutker/battwarn/internal/metrics"
	"codeberg.org/mutker/battwarn/internal/notify"
	"codeberg.org/mutker/battwarn/internal/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSender) Send(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, message)
	return f.err
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.messages...)
}

// fakeReader serves levels keyed by path; paths in errs fail instead.
type fakeReader struct {
	levels map[string]float64
	errs   map[string]error
	reads  []string
}

func (f *fakeReader) ReadLevel(path string) (float64, error) {
	f.reads = append(f.reads, path)
	if err, ok := f.errs[path]; ok {
		return 0, err
	}
	return f.levels[path], nil
}

type fakeRecorder struct {
	readings []metrics.Reading
}

func (f *fakeRecorder) Record(_ context.Context, r *metrics.Reading) error {
	f.readings = append(f.readings, *r)
	return nil
}

func (*fakeRecorder) Close() error { return nil }

func newChecker(t *testing.T, opts checker.Options) *checker.Checker {
	t.Helper()

	c, err := checker.New(opts)
	require.NoError(t, err)
	return c
}

func TestNewRequiresSender(t *testing.T) {
	_, err := checker.New(checker.Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, checker.ErrMissingSender))
}

func TestCheckAllBelowThreshold(t *testing.T) {
	sender := &fakeSender{}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0/"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.1}),
		Reader:     &fakeReader{levels: map[string]float64{"/ps/BAT0/": 0.05}},
		Sender:     sender,
	})

	require.NoError(t, c.CheckAll(context.Background()))

	require.Len(t, sender.sent(), 1)
	assert.Equal(t, notify.Message("BAT0", 0.05), sender.sent()[0])
}

func TestCheckAllAboveThreshold(t *testing.T) {
	sender := &fakeSender{}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0/"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.1}),
		Reader:     &fakeReader{levels: map[string]float64{"/ps/BAT0/": 0.5}},
		Sender:     sender,
	})

	require.NoError(t, c.CheckAll(context.Background()))
	assert.Empty(t, sender.sent())
}

func TestCheckAllComparisonIsStrict(t *testing.T) {
	sender := &fakeSender{}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0", "/ps/BAT9"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.25}),
		Reader: &fakeReader{levels: map[string]float64{
			"/ps/BAT0": 0.25,
			"/ps/BAT9": 0, // unconfigured, never warns
		}},
		Sender: sender,
	})

	require.NoError(t, c.CheckAll(context.Background()))
	assert.Empty(t, sender.sent())
}

func TestCheckAllNotifiesInOrder(t *testing.T) {
	sender := &fakeSender{}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT1", "/ps/BAT0"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.5, "BAT1": 0.5}),
		Reader:     &fakeReader{levels: map[string]float64{"/ps/BAT0": 0.1, "/ps/BAT1": 0.2}},
		Sender:     sender,
	})

	require.NoError(t, c.CheckAll(context.Background()))
	assert.Equal(t, []string{
		notify.Message("BAT1", 0.2),
		notify.Message("BAT0", 0.1),
	}, sender.sent())
}

func TestCheckAllSwallowsNotifyFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New().New(notify.ErrNotifyFailed)}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0", "/ps/BAT1"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.5, "BAT1": 0.5}),
		Reader:     &fakeReader{levels: map[string]float64{"/ps/BAT0": 0.1, "/ps/BAT1": 0.1}},
		Sender:     sender,
	})

	require.NoError(t, c.CheckAll(context.Background()))
	assert.Len(t, sender.sent(), 2)
}

func TestCheckAllIsolatesReadFailures(t *testing.T) {
	sender := &fakeSender{}
	reader := &fakeReader{
		levels: map[string]float64{"/ps/BAT1": 0.05},
		errs: map[string]error{
			"/ps/BAT0": errors.New().New(battery.ErrResourceUnavailable),
		},
	}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0", "/ps/BAT1"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.3, "BAT1": 0.1}),
		Reader:     reader,
		Sender:     sender,
	})

	err := c.CheckAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, checker.ErrReadBattery))
	assert.True(t, errors.HasCode(err, battery.ErrResourceUnavailable))
	assert.Contains(t, err.Error(), "BAT0")

	// BAT1 was still checked
	assert.Equal(t, []string{"/ps/BAT0", "/ps/BAT1"}, reader.reads)
	assert.Equal(t, []string{notify.Message("BAT1", 0.05)}, sender.sent())
}

func TestCheckAllFailFast(t *testing.T) {
	sender := &fakeSender{}
	reader := &fakeReader{
		levels: map[string]float64{"/ps/BAT1": 0.05},
		errs:   map[string]error{"/ps/BAT0": stderrors.New("gone")},
	}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0", "/ps/BAT1"},
		Thresholds: threshold.New(map[string]float64{"BAT1": 0.1}),
		Reader:     reader,
		Sender:     sender,
		FailFast:   true,
	})

	err := c.CheckAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"/ps/BAT0"}, reader.reads)
	assert.Empty(t, sender.sent())
}

func TestCheckAllRecordsReadings(t *testing.T) {
	recorder := &fakeRecorder{}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0", "/ps/BAT1"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.3}),
		Reader:     &fakeReader{levels: map[string]float64{"/ps/BAT0": 0.2, "/ps/BAT1": 0.9}},
		Sender:     &fakeSender{},
		Recorder:   recorder,
	})

	require.NoError(t, c.CheckAll(context.Background()))
	require.Len(t, recorder.readings, 2)

	assert.Equal(t, "BAT0", recorder.readings[0].Battery)
	assert.Equal(t, 0.2, recorder.readings[0].Level)
	assert.Equal(t, 0.3, recorder.readings[0].Threshold)
	assert.True(t, recorder.readings[0].Warned)

	assert.Equal(t, "BAT1", recorder.readings[1].Battery)
	assert.False(t, recorder.readings[1].Warned)
}

func writeBattery(t *testing.T, root, name, now, full string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "energy_now"), []byte(now+"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "energy_full"), []byte(full+"\n"), 0o600))

	return dir + string(filepath.Separator)
}

func TestRunOnceEndToEnd(t *testing.T) {
	root := t.TempDir()
	sender := &fakeSender{}
	c := newChecker(t, checker.Options{
		Batteries: []string{
			writeBattery(t, root, "A", "250", "1000"),
			writeBattery(t, root, "B", "900", "1000"),
		},
		Thresholds: threshold.New(map[string]float64{"A": 0.3, "B": 0.1}),
		Sender:     sender,
	})

	require.NoError(t, c.Run(context.Background(), false, time.Hour))

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Battery A ")
	assert.Contains(t, sent[0], "25.00%")
	assert.NotContains(t, sent[0], "Battery B ")
}

func TestRunOnceReturnsCycleError(t *testing.T) {
	root := t.TempDir()
	c := newChecker(t, checker.Options{
		Batteries:  []string{writeBattery(t, root, "BAT0", "10", "0")},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.3}),
		Sender:     &fakeSender{},
	})

	err := c.Run(context.Background(), false, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrPollCycle))
	assert.True(t, errors.HasCode(err, battery.ErrZeroFullEnergy))
}

// timedReader records when each cycle starts and cancels after n cycles.
type timedReader struct {
	mu     sync.Mutex
	starts []time.Time
	n      int
	cancel context.CancelFunc
	err    error
}

func (r *timedReader) ReadLevel(string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.starts = append(r.starts, time.Now())
	if len(r.starts) == r.n {
		r.cancel()
	}
	return 0.5, r.err
}

func TestRunDaemonWaitsBetweenCycles(t *testing.T) {
	const interval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &timedReader{n: 3, cancel: cancel}
	c := newChecker(t, checker.Options{
		Batteries:  []string{"/ps/BAT0"},
		Thresholds: threshold.New(map[string]float64{"BAT0": 0.1}),
		Reader:     reader,
		Sender:     &fakeSender{},
	})

	begin := time.Now()
	require.NoError(t, c.Run(ctx, true, interval))

	require.Len(t, reader.starts, 3)
	// The first cycle runs before any wait
	assert.Less(t, reader.starts[0].Sub(begin), interval)
	for i := 1; i < len(reader.starts); i++ {
		assert.GreaterOrEqual(t, reader.starts[i].Sub(reader.starts[i-1]), interval)
	}
}

func TestRunDaemonSurvivesFailedCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &timedReader{n: 2, cancel: cancel, err: stderrors.New("unplugged")}
	c := newChecker(t, checker.Options{
		Batteries: []string{"/ps/BAT0"},
		Reader:    reader,
		Sender:    &fakeSender{},
	})

	require.NoError(t, c.Run(ctx, true, time.Millisecond))
	assert.Len(t, reader.starts, 2)
}

func TestRunDaemonFailFastStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &timedReader{n: 5, cancel: cancel, err: stderrors.New("unplugged")}
	c := newChecker(t, checker.Options{
		Batteries: []string{"/ps/BAT0"},
		Reader:    reader,
		Sender:    &fakeSender{},
		FailFast:  true,
	})

	err := c.Run(ctx, true, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMainLoop))
	assert.Len(t, reader.starts, 1)
}

func TestRunDaemonRejectsInterval(t *testing.T) {
	c := newChecker(t, checker.Options{Sender: &fakeSender{}})

	err := c.Run(context.Background(), true, 0)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}
