package topology

import (
	"bytes"
	"fmt"
	"sort"
)

// Record is one logical thread as reported by the platform:
// the NUMA node (socket) it lives on, its physical core and its own id.
type Record struct {
	Node   int
	Core   int
	Thread int
}

// Core is a physical core and the logical threads it carries,
// in the order they were discovered.
type Core struct {
	ID      int
	Threads []int
}

// Node is a NUMA node and its physical cores, in discovery order.
type Node struct {
	ID    int
	Cores []*Core
}

// Topology maps NUMA nodes to physical cores to logical threads.
// It's immutable after construction and safe for concurrent use.
type Topology struct {
	nodes    []*Node
	location map[int]Record
	threads  int
}

// New groups raw records into a topology. The first discovered node and
// the first discovered core of each node come first.
func New(records []Record) (*Topology, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTopology
	}
	nodeIndex := make(map[int]*Node)
	coreIndex := make(map[int]map[int]*Core)
	location := make(map[int]Record, len(records))
	nodes := make([]*Node, 0)
	for _, r := range records {
		if _, ok := location[r.Thread]; ok {
			return nil, &DuplicateThreadError{Thread: r.Thread}
		}
		location[r.Thread] = r
		node, ok := nodeIndex[r.Node]
		if !ok {
			node = &Node{ID: r.Node}
			nodeIndex[r.Node] = node
			coreIndex[r.Node] = make(map[int]*Core)
			nodes = append(nodes, node)
		}
		core, ok := coreIndex[r.Node][r.Core]
		if !ok {
			core = &Core{ID: r.Core}
			coreIndex[r.Node][r.Core] = core
			node.Cores = append(node.Cores, core)
		}
		core.Threads = append(core.Threads, r.Thread)
	}
	return &Topology{
		nodes:    nodes,
		location: location,
		threads:  len(records),
	}, nil
}

// MustNew is like New but panics on error. Meant for tests and fixed tables.
func MustNew(records []Record) *Topology {
	t, err := New(records)
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %s", err))
	}
	return t
}

func (self *Topology) Nodes() []*Node {
	return self.nodes
}

func (self *Topology) NumNodes() int {
	return len(self.nodes)
}

// CoresPerNode is the number of physical cores in the first node.
func (self *Topology) CoresPerNode() int {
	return len(self.nodes[0].Cores)
}

func (self *Topology) TotalCoreCount() int {
	count := 0
	for _, node := range self.nodes {
		count += len(node.Cores)
	}
	return count
}

// TotalThreadCount returns the number of logical threads over all cores
// of all nodes.
func (self *Topology) TotalThreadCount() int {
	return self.threads
}

// Locate reports which node and physical core a logical thread belongs to.
func (self *Topology) Locate(thread int) (node int, core int, ok bool) {
	r, ok := self.location[thread]
	if !ok {
		return 0, 0, false
	}
	return r.Node, r.Core, true
}

// SelectThreads picks n logical threads to bind a benchmark to. Physical
// cores of the first node are used first, then cores of every node with
// the count split evenly over the nodes, and hyperthread siblings only
// once every physical core already contributes a thread.
// The result is sorted ascending.
func (self *Topology) SelectThreads(n int) ([]int, error) {
	if n < 1 || n > self.threads {
		return nil, &OutOfRangeError{Requested: n, Available: self.threads}
	}

	coresPerNode := self.CoresPerNode()
	picked := make([]int, 0, n)
	if n <= coresPerNode {
		// fits on the first node without SMT
		for _, core := range self.nodes[0].Cores[:n] {
			picked = append(picked, core.Threads[0])
		}
		sort.Ints(picked)
		return picked, nil
	}

	quotas := self.nodeQuotas(n)
	switch {
	case n <= self.TotalCoreCount():
		// one thread per core, split over the nodes
		for i, node := range self.nodes {
			for j := 0; j < quotas[i] && j < len(node.Cores); j++ {
				picked = append(picked, node.Cores[j].Threads[0])
			}
		}
	case self.evenNodes():
		for i, node := range self.nodes {
			for j := 0; j < quotas[i]; j++ {
				slot := j / coresPerNode
				c := j % coresPerNode
				if slot >= len(node.Cores[c].Threads) {
					continue
				}
				picked = append(picked, node.Cores[c].Threads[slot])
			}
		}
	default:
		// a node wider than the first one would leave cores unused by
		// the cyclic walk, so every core gives its first thread up front
		for _, node := range self.nodes {
			for _, core := range node.Cores {
				picked = append(picked, core.Threads[0])
			}
		}
	}
	if len(picked) < n {
		picked = self.fill(picked, n)
	}
	sort.Ints(picked)
	return picked, nil
}

// evenNodes reports whether every node has as many cores as the first one.
func (self *Topology) evenNodes() bool {
	for _, node := range self.nodes {
		if len(node.Cores) != len(self.nodes[0].Cores) {
			return false
		}
	}
	return true
}

// nodeQuotas splits n over the nodes, the remainder going to the first ones.
func (self *Topology) nodeQuotas(n int) []int {
	numNodes := len(self.nodes)
	base := n / numNodes
	remainder := n % numNodes
	quotas := make([]int, numNodes)
	for i := range quotas {
		quotas[i] = base
		if i < remainder {
			quotas[i]++
		}
	}
	return quotas
}

// fill tops up a selection on irregular topologies, where nodes differ in
// core count or cores in thread count. Threads are
// taken slot level by slot level across all cores, so no core is used
// twice while another core is still unused.
func (self *Topology) fill(picked []int, n int) []int {
	used := make(map[int]bool, len(picked))
	for _, t := range picked {
		used[t] = true
	}
	for slot := 0; len(picked) < n; slot++ {
		found := false
		for _, node := range self.nodes {
			for _, core := range node.Cores {
				if slot >= len(core.Threads) {
					continue
				}
				found = true
				t := core.Threads[slot]
				if used[t] {
					continue
				}
				used[t] = true
				picked = append(picked, t)
				if len(picked) == n {
					return picked
				}
			}
		}
		if !found {
			break
		}
	}
	return picked
}

func (self *Topology) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d NUMA nodes, %d physical cores, %d logical threads\n",
		len(self.nodes), self.TotalCoreCount(), self.threads)
	for _, node := range self.nodes {
		fmt.Fprintf(&buf, "  node %d:\n", node.ID)
		for _, core := range node.Cores {
			fmt.Fprintf(&buf, "    core %d: threads %s\n", core.ID, FormatCPUList(core.Threads))
		}
	}
	return buf.String()
}
