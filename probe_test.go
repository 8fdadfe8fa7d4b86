package pinbench

import (
	"bytes"
	"context"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/hhkbp2/pinbench/affinity"
	"github.com/hhkbp2/testify/require"
)

type fakePinner struct {
	lock   sync.Mutex
	pinned []int
	err    error
}

func (self *fakePinner) pin(cpus []int) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.err != nil {
		return self.err
	}
	self.pinned = append(self.pinned, cpus...)
	return nil
}

func newTestProbe(t *testing.T, pinner *fakePinner) (*Probe, *DefaultMeasurements) {
	topo, err := LoadTopology(cpuinfoProperties(t))
	require.Nil(t, err)
	p := NewProperties()
	p.Add(PropertyProbeIterations, "3")
	p.Add(PropertyProbeWork, "10")
	m, err := NewDefaultMeasurements(p)
	require.Nil(t, err)
	probe, err := NewProbe(topo, m, p)
	require.Nil(t, err)
	probe.pin = pinner.pin
	return probe, m
}

func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		SetLogOutput(os.Stderr)
	})
	return &buf
}

func TestProbeRun(t *testing.T) {
	pinner := &fakePinner{}
	probe, m := newTestProbe(t, pinner)

	threads, err := probe.Run(context.Background(), 6)
	require.Nil(t, err)
	require.Equal(t, []int{0, 1, 2, 4, 5, 6}, threads)
	sort.Ints(pinner.pinned)
	require.Equal(t, threads, pinner.pinned)

	out := exportTo(t, m, "TextMeasurementExporter")
	require.Contains(t, out, "[PROBE-6], Operations, 18\n")
	require.Contains(t, out, "[PROBE-6], Return=OK, 6\n")
}

func TestProbeRunOutOfRange(t *testing.T) {
	probe, _ := newTestProbe(t, &fakePinner{})
	_, err := probe.Run(context.Background(), 17)
	require.NotNil(t, err)
	_, err = probe.Run(context.Background(), 0)
	require.NotNil(t, err)
}

func TestProbeRunPinFailure(t *testing.T) {
	captureLog(t)
	probe, m := newTestProbe(t, &fakePinner{err: affinity.ErrUnsupported})
	_, err := probe.Run(context.Background(), 2)
	require.Nil(t, err)

	probe.pin = (&fakePinner{err: affinity.ErrEmptySet}).pin
	_, err = probe.Run(context.Background(), 3)
	require.Nil(t, err)

	out := exportTo(t, m, "TextMeasurementExporter")
	require.Contains(t, out, "[PROBE-2], Return=UNSUPPORTED, 2\n")
	require.Contains(t, out, "[PROBE-3], Return=ERROR, 3\n")
	require.False(t, bytes.Contains([]byte(out), []byte("Return=OK")))
}

func TestProbeRunCancelled(t *testing.T) {
	probe, m := newTestProbe(t, &fakePinner{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := probe.Run(ctx, 2)
	require.Equal(t, context.Canceled, err)
	require.Equal(t, context.Canceled, probe.Sweep(ctx, []int{2, 4}, nil))

	out := exportTo(t, m, "TextMeasurementExporter")
	require.Contains(t, out, "[PROBE-2], Return=ERROR")
}

func TestProbeSweep(t *testing.T) {
	log := captureLog(t)
	probe, m := newTestProbe(t, &fakePinner{})
	done := make([]int, 0)
	err := probe.Sweep(context.Background(), []int{2, 40, 4}, func(n int) {
		done = append(done, n)
	})
	require.Nil(t, err)
	require.Equal(t, []int{2, 4}, done)
	require.Contains(t, log.String(), "probe with 40 threads failed")

	out := exportTo(t, m, "TextMeasurementExporter")
	require.Contains(t, out, "[PROBE-2], Return=OK, 2\n")
	require.Contains(t, out, "[PROBE-40], Return=ERROR, 1\n")
	require.Contains(t, out, "[PROBE-4], Return=OK, 4\n")
}

func TestSweepCounts(t *testing.T) {
	counts, err := SweepCounts(16, 2, 0)
	require.Nil(t, err)
	require.Equal(t, []int{2, 4, 6, 8, 10, 12, 14, 16}, counts)

	counts, err = SweepCounts(16, 3, 10)
	require.Nil(t, err)
	require.Equal(t, []int{3, 6, 9}, counts)

	counts, err = SweepCounts(16, 4, 100)
	require.Nil(t, err)
	require.Equal(t, []int{4, 8, 12, 16}, counts)

	_, err = SweepCounts(16, 0, 0)
	require.NotNil(t, err)
	_, err = SweepCounts(1, 2, 0)
	require.NotNil(t, err)
}

func TestNewProbeErrors(t *testing.T) {
	topo, err := LoadTopology(cpuinfoProperties(t))
	require.Nil(t, err)
	m := newTestMeasurements(t, "hdrhistogram")
	cases := []Properties{
		{PropertyProbeIterations: "0"},
		{PropertyProbeIterations: "many"},
		{PropertyProbeWork: "0"},
		{PropertyProbeWorkDistribution: "zipfian"},
		{PropertyProbeSeed: "x"},
	}
	for _, p := range cases {
		_, err := NewProbe(topo, m, p)
		require.NotNil(t, err, "props: %v", p)
	}
}

func TestSpin(t *testing.T) {
	require.Equal(t, spin(100), spin(100))
	require.NotEqual(t, spin(100), spin(101))
}

func TestNewProbeSeed(t *testing.T) {
	topo, err := LoadTopology(cpuinfoProperties(t))
	require.Nil(t, err)
	m := newTestMeasurements(t, "hdrhistogram")
	probe, err := NewProbe(topo, m, NewProperties())
	require.Nil(t, err)
	require.Equal(t, int64(42), probe.seed)
	probe, err = NewProbe(topo, m, Properties{PropertyProbeSeed: "7", PropertyProbeWorkDistribution: "uniform"})
	require.Nil(t, err)
	require.Equal(t, int64(7), probe.seed)
}
