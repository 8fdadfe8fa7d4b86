package topology

import (
	"errors"
	"sort"
	"testing"

	"github.com/hhkbp2/testify/require"
)

// twoSocketRecords lists 2 nodes x 4 cores x 2 threads the way Linux
// numbers them: all first siblings before any second sibling.
func twoSocketRecords() []Record {
	records := make([]Record, 0, 16)
	for p := 0; p < 16; p++ {
		records = append(records, Record{
			Node:   (p % 8) / 4,
			Core:   p % 4,
			Thread: p,
		})
	}
	return records
}

func TestNew(t *testing.T) {
	topo, err := New(twoSocketRecords())
	require.Nil(t, err)
	require.Equal(t, 2, topo.NumNodes())
	require.Equal(t, 4, topo.CoresPerNode())
	require.Equal(t, 8, topo.TotalCoreCount())
	require.Equal(t, 16, topo.TotalThreadCount())
	require.Equal(t, []int{0, 8}, topo.Nodes()[0].Cores[0].Threads)
	require.Equal(t, []int{7, 15}, topo.Nodes()[1].Cores[3].Threads)

	node, core, ok := topo.Locate(13)
	require.True(t, ok)
	require.Equal(t, 1, node)
	require.Equal(t, 1, core)
	_, _, ok = topo.Locate(99)
	require.False(t, ok)
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil)
	require.Equal(t, ErrEmptyTopology, err)

	_, err = New([]Record{{0, 0, 1}, {0, 1, 1}})
	require.NotNil(t, err)
	require.True(t, errors.Is(err, ErrDuplicateThread))
}

func TestNewKeepsDiscoveryOrder(t *testing.T) {
	topo := MustNew([]Record{
		{Node: 1, Core: 5, Thread: 3},
		{Node: 0, Core: 2, Thread: 1},
		{Node: 1, Core: 0, Thread: 0},
		{Node: 0, Core: 9, Thread: 2},
	})
	require.Equal(t, 1, topo.Nodes()[0].ID)
	require.Equal(t, 5, topo.Nodes()[0].Cores[0].ID)
	require.Equal(t, 0, topo.Nodes()[0].Cores[1].ID)
	require.Equal(t, 0, topo.Nodes()[1].ID)
	sel, err := topo.SelectThreads(2)
	require.Nil(t, err)
	require.Equal(t, []int{0, 3}, sel)
}

func TestSelectThreadsExamples(t *testing.T) {
	topo := MustNew(twoSocketRecords())
	cases := []struct {
		n        int
		expected []int
	}{
		{1, []int{0}},
		{4, []int{0, 1, 2, 3}},
		{5, []int{0, 1, 2, 4, 5}},
		{6, []int{0, 1, 2, 4, 5, 6}},
		{8, []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{10, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12}},
		{13, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 13}},
		{16, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
	}
	for _, c := range cases {
		sel, err := topo.SelectThreads(c.n)
		require.Nil(t, err)
		require.Equal(t, c.expected, sel, "n=%d", c.n)
	}
}

func TestSelectThreadsOutOfRange(t *testing.T) {
	topo := MustNew(twoSocketRecords())
	for _, n := range []int{0, -1, 17} {
		sel, err := topo.SelectThreads(n)
		require.Nil(t, sel)
		require.True(t, errors.Is(err, ErrOutOfRange))
		var oor *OutOfRangeError
		require.True(t, errors.As(err, &oor))
		require.Equal(t, n, oor.Requested)
		require.Equal(t, 16, oor.Available)
	}
}

func checkSelection(t *testing.T, topo *Topology, n int) {
	sel, err := topo.SelectThreads(n)
	require.Nil(t, err)
	require.Equal(t, n, len(sel))
	require.True(t, sort.IntsAreSorted(sel))

	type coreKey struct{ node, core int }
	perCore := make(map[coreKey]int)
	seen := make(map[int]bool)
	for _, thread := range sel {
		require.False(t, seen[thread], "thread %d picked twice", thread)
		seen[thread] = true
		node, core, ok := topo.Locate(thread)
		require.True(t, ok)
		perCore[coreKey{node, core}]++
	}
	if n <= topo.TotalCoreCount() {
		for k, count := range perCore {
			require.Equal(t, 1, count, "core %v used %d times for n=%d", k, count, n)
		}
	} else {
		require.Equal(t, topo.TotalCoreCount(), len(perCore), "n=%d", n)
	}

	again, err := topo.SelectThreads(n)
	require.Nil(t, err)
	require.Equal(t, sel, again)
}

func TestSelectThreadsProperties(t *testing.T) {
	topo := MustNew(twoSocketRecords())
	for n := 1; n <= topo.TotalThreadCount(); n++ {
		checkSelection(t, topo, n)
	}

	// 4 sockets x 6 cores x 2 threads
	records := make([]Record, 0, 48)
	for p := 0; p < 48; p++ {
		records = append(records, Record{Node: (p % 24) / 6, Core: p % 6, Thread: p})
	}
	topo = MustNew(records)
	for n := 1; n <= topo.TotalThreadCount(); n++ {
		checkSelection(t, topo, n)
	}
}

func TestSelectThreadsSingleNode(t *testing.T) {
	topo := MustNew([]Record{
		{0, 0, 0}, {0, 1, 1}, {0, 2, 2},
		{0, 0, 3}, {0, 1, 4}, {0, 2, 5},
	})
	sel, err := topo.SelectThreads(3)
	require.Nil(t, err)
	require.Equal(t, []int{0, 1, 2}, sel)
	sel, err = topo.SelectThreads(4)
	require.Nil(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, sel)
	for n := 1; n <= 6; n++ {
		checkSelection(t, topo, n)
	}
}

func TestSelectThreadsIrregular(t *testing.T) {
	// node 0: two cores with two threads each, node 1: one single-thread core
	topo := MustNew([]Record{
		{0, 0, 0}, {0, 0, 1}, {0, 1, 2}, {0, 1, 3},
		{1, 0, 4},
	})
	cases := []struct {
		n        int
		expected []int
	}{
		{2, []int{0, 2}},
		{3, []int{0, 2, 4}},
		{4, []int{0, 1, 2, 4}},
		{5, []int{0, 1, 2, 3, 4}},
	}
	for _, c := range cases {
		sel, err := topo.SelectThreads(c.n)
		require.Nil(t, err)
		require.Equal(t, c.expected, sel, "n=%d", c.n)
		checkSelection(t, topo, c.n)
	}
}

func TestSelectThreadsWiderLaterNode(t *testing.T) {
	// node 0: one core with two threads, node 1: three single-thread cores
	topo := MustNew([]Record{
		{0, 0, 0}, {0, 0, 1},
		{1, 0, 2}, {1, 1, 3}, {1, 2, 4},
	})
	require.Equal(t, 1, topo.CoresPerNode())
	require.Equal(t, 4, topo.TotalCoreCount())
	cases := []struct {
		n        int
		expected []int
	}{
		{1, []int{0}},
		{2, []int{0, 2}},
		{3, []int{0, 2, 3}},
		{4, []int{0, 2, 3, 4}},
		{5, []int{0, 1, 2, 3, 4}},
	}
	for _, c := range cases {
		sel, err := topo.SelectThreads(c.n)
		require.Nil(t, err)
		require.Equal(t, c.expected, sel, "n=%d", c.n)
		checkSelection(t, topo, c.n)
	}
}

func TestTopologyString(t *testing.T) {
	topo := MustNew(twoSocketRecords())
	s := topo.String()
	require.Contains(t, s, "2 NUMA nodes, 8 physical cores, 16 logical threads")
	require.Contains(t, s, "core 0: threads 0,8")
}
