package pinbench

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hhkbp2/pinbench/affinity"
	g "github.com/hhkbp2/pinbench/generator"
	"github.com/hhkbp2/pinbench/topology"
)

// ProbeName is the measurement name used for a probe over n threads.
func ProbeName(n int) string {
	return fmt.Sprintf("PROBE-%d", n)
}

// Probe measures fixed arithmetic work on a selected set of logical
// threads. One goroutine runs per selected thread, locked to its own OS
// thread which is pinned to that logical thread.
type Probe struct {
	topo         *topology.Topology
	measurements Measurements
	iterations   int64
	work         int64
	distribution string
	seed         int64
	// pin binds the calling OS thread, affinity.Pin outside of tests
	pin  func(cpus []int) error
	sink uint64
}

func NewProbe(topo *topology.Topology, measurements Measurements, props Properties) (*Probe, error) {
	iterations, err := strconv.ParseInt(props.GetDefault(PropertyProbeIterations, PropertyProbeIterationsDefault), 0, 64)
	if err != nil {
		return nil, err
	}
	if iterations < 1 {
		return nil, g.NewErrorf("%s must be positive, got %d", PropertyProbeIterations, iterations)
	}
	work, err := strconv.ParseInt(props.GetDefault(PropertyProbeWork, PropertyProbeWorkDefault), 0, 64)
	if err != nil {
		return nil, err
	}
	distribution := props.GetDefault(PropertyProbeWorkDistribution, PropertyProbeWorkDistributionDefault)
	// validate the distribution and bounds once up front
	if _, err = g.NewIntegerGenerator(distribution, 1, work); err != nil {
		return nil, err
	}
	seed, err := strconv.ParseInt(props.GetDefault(PropertyProbeSeed, PropertyProbeSeedDefault), 0, 64)
	if err != nil {
		return nil, err
	}
	return &Probe{
		topo:         topo,
		measurements: measurements,
		iterations:   iterations,
		work:         work,
		distribution: distribution,
		seed:         seed,
		pin:          affinity.Pin,
	}, nil
}

// Run probes n threads chosen by the topology selector and returns the
// threads used.
func (self *Probe) Run(ctx context.Context, n int) ([]int, error) {
	threads, err := self.topo.SelectThreads(n)
	if err != nil {
		return nil, err
	}
	name := ProbeName(n)
	Infof("probing %d threads on cpus %s", n, topology.FormatCPUList(threads))

	var wg sync.WaitGroup
	for _, cpu := range threads {
		wg.Add(1)
		go func(cpu int) {
			defer wg.Done()
			// Never unlocked: the pinned thread exits with the goroutine
			// instead of going back to the scheduler with a narrowed mask.
			runtime.LockOSThread()
			self.runOne(ctx, name, cpu)
		}(cpu)
	}
	wg.Wait()
	return threads, ctx.Err()
}

func (self *Probe) runOne(ctx context.Context, name string, cpu int) {
	if err := self.pin([]int{cpu}); err != nil {
		Warnf("%s: fail to pin to cpu %d, error: %s", name, cpu, err)
		if err == affinity.ErrUnsupported {
			self.measurements.ReportStatus(name, StatusUnsupported)
		} else {
			self.measurements.ReportStatus(name, StatusError)
		}
		return
	}
	// bounds were checked by NewProbe. Each thread has its own source so
	// its work sizes repeat across runs with the same seed.
	gen, _ := g.NewSeededIntegerGenerator(self.distribution, 1, self.work, self.seed+int64(cpu))
	var acc uint64
	for i := int64(0); i < self.iterations; i++ {
		if ctx.Err() != nil {
			self.measurements.ReportStatus(name, StatusError)
			return
		}
		steps := gen.NextInt()
		start := time.Now()
		acc += spin(steps)
		self.measurements.Measure(name, NanosecondToMicrosecond(time.Since(start).Nanoseconds()))
	}
	atomic.AddUint64(&self.sink, acc)
	self.measurements.ReportStatus(name, StatusOK)
}

// spin runs a xorshift loop so the work can't be folded away.
func spin(steps int64) uint64 {
	x := uint64(steps) | 1
	for i := int64(0); i < steps; i++ {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
	}
	return x
}

// SweepCounts lists the thread counts step, 2*step, ... up to max, the
// way the benchmarks scale parallelism. max <= 0 or above total means total.
func SweepCounts(total, step, max int) ([]int, error) {
	if step < 1 {
		return nil, g.NewErrorf("%s must be positive, got %d", PropertyThreadStep, step)
	}
	if max <= 0 || max > total {
		max = total
	}
	counts := make([]int, 0, max/step)
	for n := step; n <= max; n += step {
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, g.NewErrorf("empty sweep: step %d exceeds %d threads", step, max)
	}
	return counts, nil
}

// Sweep runs the probe for each count in counts. A failed count is logged
// and the sweep goes on; cancellation stops it.
func (self *Probe) Sweep(ctx context.Context, counts []int, status func(n int)) error {
	for _, n := range counts {
		if _, err := self.Run(ctx, n); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			Errorf("probe with %d threads failed, error: %s", n, err)
			self.measurements.ReportStatus(ProbeName(n), StatusError)
			continue
		}
		if status != nil {
			status(n)
		}
	}
	return nil
}
