package pinbench

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hhkbp2/go-strftime"
	g "github.com/hhkbp2/pinbench/generator"
	"github.com/hhkbp2/pinbench/topology"
)

type Client interface {
	Main(ctx context.Context) error
}

type TopologyClient struct {
	args *Arguments
}

func NewTopologyClient(args *Arguments) *TopologyClient {
	return &TopologyClient{
		args: args,
	}
}

func (self *TopologyClient) Main(ctx context.Context) error {
	topo, err := LoadTopology(self.args.Properties)
	if err != nil {
		return err
	}
	PromptPrintf("%s", topo)
	return nil
}

// Picker prints the threads chosen for one thread count, or for every count
// when none is given.
type Picker struct {
	args *Arguments
}

func NewPicker(args *Arguments) *Picker {
	return &Picker{
		args: args,
	}
}

func (self *Picker) Main(ctx context.Context) error {
	topo, err := LoadTopology(self.args.Properties)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(self.args.GetDefault(PropertyThreadCount, PropertyThreadCountDefault))
	if err != nil {
		return err
	}
	if n != 0 {
		return pick(topo, n)
	}
	for i := 1; i <= topo.TotalThreadCount(); i++ {
		if err = pick(topo, i); err != nil {
			return err
		}
	}
	return nil
}

func pick(topo *topology.Topology, n int) error {
	threads, err := topo.SelectThreads(n)
	if err != nil {
		return err
	}
	Println("%d\t%s\t%s", n, topology.FormatCPUList(threads), FormatInts(threads))
	return nil
}

// Prober runs the pinned CPU probe over one thread count or a sweep and
// exports the measurements.
type Prober struct {
	args *Arguments
}

func NewProber(args *Arguments) *Prober {
	return &Prober{
		args: args,
	}
}

func (self *Prober) Main(ctx context.Context) error {
	props := self.args.Properties
	topo, err := LoadTopology(props)
	if err != nil {
		return err
	}
	measurements, err := NewDefaultMeasurements(props)
	if err != nil {
		return err
	}
	probe, err := NewProbe(topo, measurements, props)
	if err != nil {
		return err
	}
	counts, err := probeCounts(props, topo.TotalThreadCount())
	if err != nil {
		return err
	}
	Infof("probe thread counts: %s", FormatInts(counts))

	startTime := time.Now()
	status := func(n int) {
		if StatusDest == nil {
			return
		}
		fmt.Fprintf(StatusDest, "%s %d threads done, %s\n",
			time.Since(startTime).Truncate(time.Millisecond), n, measurements.GetSummary())
	}
	// an interrupted sweep still exports the counts it finished
	sweepErr := probe.Sweep(ctx, counts, status)
	if err = exportMeasurements(props, measurements); err != nil {
		return err
	}
	return sweepErr
}

func probeCounts(props Properties, total int) ([]int, error) {
	n, err := strconv.Atoi(props.GetDefault(PropertyThreadCount, PropertyThreadCountDefault))
	if err != nil {
		return nil, err
	}
	if n != 0 {
		return []int{n}, nil
	}
	step, err := strconv.Atoi(props.GetDefault(PropertyThreadStep, PropertyThreadStepDefault))
	if err != nil {
		return nil, err
	}
	max, err := strconv.Atoi(props.GetDefault(PropertyThreadMax, PropertyThreadMaxDefault))
	if err != nil {
		return nil, err
	}
	return SweepCounts(total, step, max)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// ExportFileName expands the strftime patterns in pattern at t.
func ExportFileName(pattern string, t time.Time) string {
	return strftime.Format(pattern, t)
}

func exportMeasurements(props Properties, measurements Measurements) error {
	var w io.WriteCloser
	exportFile := props.GetDefault(PropertyExportFile, PropertyExportFileDefault)
	if exportFile == "" {
		w = nopCloser{OutputDest}
	} else {
		name := ExportFileName(exportFile, time.Now())
		f, err := os.Create(name)
		if err != nil {
			return g.NewErrorf("fail to create export file %s, error: %s", name, err)
		}
		Infof("exporting measurements to %s", name)
		w = f
	}
	exporter, err := NewMeasurementExporter(props.GetDefault(PropertyExporter, PropertyExporterDefault), w)
	if err != nil {
		w.Close()
		return err
	}
	if err = measurements.ExportMeasurements(exporter); err != nil {
		exporter.Close()
		return err
	}
	return exporter.Close()
}

// Shell answers selection queries interactively.
type Shell struct {
	args  *Arguments
	input io.Reader
}

func NewShell(args *Arguments, input io.Reader) *Shell {
	return &Shell{
		args:  args,
		input: input,
	}
}

var (
	regexCmd *regexp.Regexp
)

func init() {
	regexCmd = regexp.MustCompile(`\s+`)
}

func (self *Shell) Main(ctx context.Context) error {
	Println("pinbench Command Line Client")
	Println(`Type "help" for command line help`)

	topo, err := LoadTopology(self.args.Properties)
	if err != nil {
		return err
	}
	Println("Loaded %d logical threads.", topo.TotalThreadCount())

	scanner := bufio.NewScanner(self.input)
	for ctx.Err() == nil {
		PromptPrintf("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := regexCmd.Split(line, -1)
		length := len(parts)
		switch parts[0] {
		case "help":
			self.help()
		case "quit":
			return nil
		case "total":
			Println("%d", topo.TotalThreadCount())
		case "topology":
			PromptPrintf("%s", topo)
		case "pick":
			if length != 2 {
				Println(`Error: syntax is "pick count"`)
				break
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				Println("invalid count: %s", parts[1])
				break
			}
			if err = pick(topo, n); err != nil {
				Println("Error: %s", err)
			}
		case "locate":
			if length != 2 {
				Println(`Error: syntax is "locate thread"`)
				break
			}
			thread, err := strconv.Atoi(parts[1])
			if err != nil {
				Println("invalid thread: %s", parts[1])
				break
			}
			node, core, ok := topo.Locate(thread)
			if !ok {
				Println("thread %d not found", thread)
				break
			}
			Println("thread %d: node %d core %d", thread, node, core)
		default:
			Println(`Error: unknown command "%s"`, parts[0])
		}
	}
	return scanner.Err()
}

func (self *Shell) help() {
	helpFormat := `Commands
  pick count - Print the threads selected for count
  total - Print the number of logical threads
  topology - Print the discovered topology
  locate thread - Print the node and core of a logical thread
  quit - Quit`
	Println("%s", helpFormat)
}
