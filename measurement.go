package pinbench

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	g "github.com/hhkbp2/pinbench/generator"
)

type MeasurementType uint8

const (
	MeasurementHDRHistogram MeasurementType = 1 + iota
	MeasurementHDRHistogramAndRaw
	MeasurementRaw
)

type StatusType uint8

const (
	StatusOK StatusType = 1 + iota
	StatusError
	StatusUnsupported
)

func (self StatusType) String() string {
	switch self {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOW_STATUS"
	}
}

// Used to export the collected measurements into a useful format, for example
// human readable text or machine readable JSON.
type MeasurementExporter interface {
	// Write a measurement to the exported format. v should be an integer or
	// float64.
	Write(metric string, measurement string, v interface{}) error
	io.Closer
}

type MakeMeasurementExporterFunc func(w io.WriteCloser) MeasurementExporter

var (
	MeasurementExporters map[string]MakeMeasurementExporterFunc
)

func init() {
	MeasurementExporters = map[string]MakeMeasurementExporterFunc{
		"TextMeasurementExporter": func(w io.WriteCloser) MeasurementExporter {
			return NewTextMeasurementExporter(w)
		},
		"JSONMeasurementExporter": func(w io.WriteCloser) MeasurementExporter {
			return NewJSONMeasurementExporter(w)
		},
		"JSONArrayMeasurementExporter": func(w io.WriteCloser) MeasurementExporter {
			return NewJSONArrayMeasurementExporter(w)
		},
		"PrometheusMeasurementExporter": func(w io.WriteCloser) MeasurementExporter {
			return NewPrometheusMeasurementExporter(w)
		},
	}
}

func NewMeasurementExporter(className string, w io.WriteCloser) (MeasurementExporter, error) {
	f, ok := MeasurementExporters[className]
	if !ok {
		return nil, g.NewErrorf("unsupported measurement exporter: %s", className)
	}
	return f(w), nil
}

// A single measured metric (such as PROBE-8 latency).
type OneMeasurement interface {
	Measure(latency int64)
	GetName() string
	GetSummary() string
	// Report a return code.
	ReportStatus(status StatusType)
	// Exports the current measurements to a suitable format.
	ExportMeasurements(exporter MeasurementExporter) error
}

type OneMeasurementBase struct {
	Name            string
	MeasureLock     *sync.Mutex
	ReturnCodes     map[StatusType]uint32
	ReturnCodesLock *sync.Mutex
}

func NewOneMeasurementBase(name string) *OneMeasurementBase {
	return &OneMeasurementBase{
		Name:            name,
		MeasureLock:     &sync.Mutex{},
		ReturnCodes:     make(map[StatusType]uint32),
		ReturnCodesLock: &sync.Mutex{},
	}
}

func (self *OneMeasurementBase) GetName() string {
	return self.Name
}

func (self *OneMeasurementBase) ReportStatus(status StatusType) {
	self.ReturnCodesLock.Lock()
	defer self.ReturnCodesLock.Unlock()
	self.ReturnCodes[status]++
}

func (self *OneMeasurementBase) ExportStatusCounts(exporter MeasurementExporter) error {
	self.ReturnCodesLock.Lock()
	counts := make(map[StatusType]uint32, len(self.ReturnCodes))
	statuses := make([]StatusType, 0, len(self.ReturnCodes))
	for status, count := range self.ReturnCodes {
		counts[status] = count
		statuses = append(statuses, status)
	}
	self.ReturnCodesLock.Unlock()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, status := range statuses {
		err := exporter.Write(self.GetName(), fmt.Sprintf("Return=%s", status), counts[status])
		if err != nil {
			return err
		}
	}
	return nil
}

// Collects latency measurements, and reports them when requested.
type Measurements interface {
	// Report a single value of a single metric. E.g. for probe latency,
	// operation="PROBE-8" and latency is the measured value.
	Measure(operation string, latency int64)

	// Return a one line summary of the measurements.
	GetSummary() string

	// Report a return code for a single operation.
	ReportStatus(operation string, status StatusType)

	// Export the current measurements to a suitable format.
	ExportMeasurements(exporter MeasurementExporter) error
}

type DefaultMeasurements struct {
	props              Properties
	measurementType    MeasurementType
	opToMeasurementMap map[string]OneMeasurement
	// creation order, so exports are stable
	ops  []string
	lock *sync.RWMutex
}

func NewDefaultMeasurements(props Properties) (*DefaultMeasurements, error) {
	var measurementType MeasurementType
	propStr := props.GetDefault(PropertyMeasurementType, PropertyMeasurementTypeDefault)
	switch propStr {
	case "hdrhistogram":
		measurementType = MeasurementHDRHistogram
	case "hdrhistogram+raw":
		measurementType = MeasurementHDRHistogramAndRaw
	case "raw":
		measurementType = MeasurementRaw
	default:
		return nil, g.NewErrorf("unknown %s=%s", PropertyMeasurementType, propStr)
	}
	return &DefaultMeasurements{
		props:              props,
		measurementType:    measurementType,
		opToMeasurementMap: make(map[string]OneMeasurement),
		ops:                make([]string, 0),
		lock:               &sync.RWMutex{},
	}, nil
}

func MustNewMeasurement(m OneMeasurement, err error) OneMeasurement {
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %s", err))
	}
	return m
}

func (self *DefaultMeasurements) constructOneMeasurement(name string) OneMeasurement {
	switch self.measurementType {
	case MeasurementHDRHistogram:
		return MustNewMeasurement(NewOneMeasurementHdrHistogram(name, self.props))
	case MeasurementHDRHistogramAndRaw:
		return NewTwoInOneMeasurement(name,
			MustNewMeasurement(NewOneMeasurementHdrHistogram("Hdr"+name, self.props)),
			MustNewMeasurement(NewOneMeasurementRaw("Raw"+name, self.props)))
	case MeasurementRaw:
		return MustNewMeasurement(NewOneMeasurementRaw(name, self.props))
	default:
		panic("impossible to be here. Dead code reached. Bugs?")
	}
}

func (self *DefaultMeasurements) Measure(operation string, latency int64) {
	m := self.getOpMeasurement(operation)
	m.Measure(latency)
}

func (self *DefaultMeasurements) GetSummary() string {
	self.lock.RLock()
	defer self.lock.RUnlock()
	parts := make([]string, 0, len(self.ops))
	for _, op := range self.ops {
		if s := self.opToMeasurementMap[op].GetSummary(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (self *DefaultMeasurements) ReportStatus(operation string, status StatusType) {
	m := self.getOpMeasurement(operation)
	m.ReportStatus(status)
}

func (self *DefaultMeasurements) ExportMeasurements(exporter MeasurementExporter) (err error) {
	defer catch(&err)
	self.lock.RLock()
	defer self.lock.RUnlock()
	for _, op := range self.ops {
		try(self.opToMeasurementMap[op].ExportMeasurements(exporter))
	}
	return
}

func (self *DefaultMeasurements) getOpMeasurement(operation string) OneMeasurement {
	self.lock.RLock()
	m, ok := self.opToMeasurementMap[operation]
	self.lock.RUnlock()
	if ok {
		return m
	}
	self.lock.Lock()
	defer self.lock.Unlock()
	if m, ok = self.opToMeasurementMap[operation]; !ok {
		m = self.constructOneMeasurement(operation)
		self.opToMeasurementMap[operation] = m
		self.ops = append(self.ops, operation)
	}
	return m
}

// Write human readable text.
type TextMeasurementExporter struct {
	io.WriteCloser
	buf *bufio.Writer
}

func NewTextMeasurementExporter(w io.WriteCloser) *TextMeasurementExporter {
	return &TextMeasurementExporter{
		WriteCloser: w,
		buf:         bufio.NewWriter(w),
	}
}

func (self *TextMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	_, err := fmt.Fprintf(self.buf, "[%s], %s, %v\n", metric, measurement, v)
	return err
}

func (self *TextMeasurementExporter) Close() error {
	err := self.buf.Flush()
	err2 := self.WriteCloser.Close()
	if err != nil {
		return err
	}
	return err2
}

type innerJSONMeasurement struct {
	Metric      string      `json:"metric"`
	Measurement string      `json:"measurement"`
	Value       interface{} `json:"value"`
}

// Export measurements into a machine readable JSON file, one object per line.
type JSONMeasurementExporter struct {
	io.WriteCloser
	buf *bufio.Writer
}

func NewJSONMeasurementExporter(w io.WriteCloser) *JSONMeasurementExporter {
	return &JSONMeasurementExporter{
		WriteCloser: w,
		buf:         bufio.NewWriter(w),
	}
}

func (self *JSONMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	b, err := json.Marshal(&innerJSONMeasurement{
		Metric:      metric,
		Measurement: measurement,
		Value:       v,
	})
	if err != nil {
		return err
	}
	if _, err = self.buf.Write(b); err != nil {
		return err
	}
	return self.buf.WriteByte('\n')
}

func (self *JSONMeasurementExporter) Close() error {
	err := self.buf.Flush()
	err2 := self.WriteCloser.Close()
	if err != nil {
		return err
	}
	return err2
}

// Export measurements into a machine readable JSON Array of measurement objects.
type JSONArrayMeasurementExporter struct {
	io.WriteCloser
	buf        *bufio.Writer
	afterFirst bool
}

func NewJSONArrayMeasurementExporter(w io.WriteCloser) *JSONArrayMeasurementExporter {
	object := &JSONArrayMeasurementExporter{
		WriteCloser: w,
		buf:         bufio.NewWriter(w),
		afterFirst:  false,
	}
	object.buf.WriteString("[")
	return object
}

func (self *JSONArrayMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	b, err := json.Marshal(&innerJSONMeasurement{
		Metric:      metric,
		Measurement: measurement,
		Value:       v,
	})
	if err != nil {
		return err
	}
	if self.afterFirst {
		if _, err = self.buf.WriteString(","); err != nil {
			return err
		}
	} else {
		self.afterFirst = true
	}
	_, err = self.buf.Write(b)
	return err
}

func (self *JSONArrayMeasurementExporter) Close() error {
	_, err := self.buf.WriteString("]")
	if err == nil {
		err = self.buf.Flush()
	}
	err2 := self.WriteCloser.Close()
	if err != nil {
		return err
	}
	return err2
}

// One raw point, has two fields:
// timestamp when the datapoint is inserted, and the value.
type RawDataPoint struct {
	timestamp time.Time
	value     int64
}

func NewRawDataPoint(value int64) *RawDataPoint {
	return &RawDataPoint{
		timestamp: time.Now(),
		value:     value,
	}
}

// Record a series of measurements as raw data points without down sampling,
// optionally write to an output file when configured.
type OneMeasurementRaw struct {
	*OneMeasurementBase
	filePath       string
	file           io.Writer
	noSummaryStats bool
	measurements   []*RawDataPoint
	totalLatency   int64
	// A window of stats to print summary for at the next GetSummary() call.
	windowOperations   int64
	windowTotalLatency int64
}

func NewOneMeasurementRaw(name string, props Properties) (*OneMeasurementRaw, error) {
	noSummaryStats, err := strconv.ParseBool(props.GetDefault(NoSummaryStats, NoSummaryStatsDefault))
	if err != nil {
		return nil, err
	}
	filePath := props.GetDefault(OutputFilePath, OutputFilePathDefault)
	return &OneMeasurementRaw{
		OneMeasurementBase: NewOneMeasurementBase(name),
		filePath:           filePath,
		file:               OutputDest,
		noSummaryStats:     noSummaryStats,
		measurements:       make([]*RawDataPoint, 0),
	}, nil
}

func (self *OneMeasurementRaw) Measure(latency int64) {
	self.MeasureLock.Lock()
	defer self.MeasureLock.Unlock()

	self.totalLatency += latency
	self.windowTotalLatency += latency
	self.windowOperations++
	self.measurements = append(self.measurements, NewRawDataPoint(latency))
}

func (self *OneMeasurementRaw) GetSummary() string {
	self.MeasureLock.Lock()
	defer self.MeasureLock.Unlock()
	if self.windowOperations == 0 {
		return ""
	}
	ret := fmt.Sprintf("[%s count: %d, average latency(us): %.2f]",
		self.GetName(), self.windowOperations, float64(self.windowTotalLatency)/float64(self.windowOperations))
	self.windowOperations = 0
	self.windowTotalLatency = 0
	return ret
}

func try(err error) {
	if err != nil {
		panic(err)
	}
}

func catch(err *error) {
	if p := recover(); p != nil {
		e, ok := p.(error)
		if !ok {
			panic(p)
		}
		*err = e
	}
}

func (self *OneMeasurementRaw) ExportMeasurements(exporter MeasurementExporter) (err error) {
	defer catch(&err)
	self.MeasureLock.Lock()
	defer self.MeasureLock.Unlock()

	// Output raw data points first then print out a summary of percentiles.
	w := self.file
	if len(self.filePath) != 0 {
		f, err := os.OpenFile(self.filePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		try(err)
		defer f.Close()
		w = f
	}
	_, err = fmt.Fprintf(w, "%s latency raw data: op, timestamp(us), latency(us)\n", self.GetName())
	try(err)
	for _, p := range self.measurements {
		_, err = fmt.Fprintf(w, "%s,%d,%d\n", self.GetName(), p.timestamp.UnixNano()/1000, p.value)
		try(err)
	}

	total := len(self.measurements)
	try(exporter.Write(self.GetName(), "Total Operations", total))
	if total > 0 && !self.noSummaryStats {
		s := make([]int64, 0, total)
		for _, p := range self.measurements {
			s = append(s, p.value)
		}
		sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
		name := self.GetName()
		try(exporter.Write(name, "AverageLatency(us)", float64(self.totalLatency)/float64(total)))
		try(exporter.Write(name, "MinLatency(us)", s[0]))
		try(exporter.Write(name, "MaxLatency(us)", s[total-1]))
		try(exporter.Write(name, "p50", s[int(float64(total)*0.5)]))
		try(exporter.Write(name, "p90", s[int(float64(total)*0.9)]))
		try(exporter.Write(name, "p95", s[int(float64(total)*0.95)]))
		try(exporter.Write(name, "p99", s[int(float64(total)*0.99)]))
		try(exporter.Write(name, "p99.9", s[int(float64(total)*0.999)]))
	}
	try(self.ExportStatusCounts(exporter))
	return
}

// Helper function to parse the given percentile value string.
func parsePercentileValues(prop, defaultValue string) []float64 {
	parts := strings.Split(prop, ",")
	ret := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f <= 0 || f > 100 {
			return parsePercentileValues(defaultValue, defaultValue)
		}
		ret = append(ret, f)
	}
	return ret
}

// Take measurements and maintain a HdrHistogram of a given metric.
type OneMeasurementHdrHistogram struct {
	*OneMeasurementBase
	histogram   *hdrhistogram.Histogram
	percentiles []float64
}

func NewOneMeasurementHdrHistogram(name string, props Properties) (*OneMeasurementHdrHistogram, error) {
	prop := props.GetDefault(PropertyPercentiles, PropertyPercentilesDefault)
	percentiles := parsePercentileValues(prop, PropertyPercentilesDefault)
	prop = props.GetDefault(PropertyHdrHistogramMax, PropertyHdrHistogramMaxDefault)
	max, err := strconv.ParseInt(prop, 0, 64)
	if err != nil {
		return nil, err
	}
	prop = props.GetDefault(PropertyHdrHistogramSig, PropertyHdrHistogramSigDefault)
	sig, err := strconv.ParseInt(prop, 0, 64)
	if err != nil {
		return nil, err
	}
	if sig < 1 || sig > 5 {
		return nil, g.NewErrorf("%s must be between 1 and 5, got %d", PropertyHdrHistogramSig, sig)
	}
	return &OneMeasurementHdrHistogram{
		OneMeasurementBase: NewOneMeasurementBase(name),
		histogram:          hdrhistogram.New(1, max, int(sig)),
		percentiles:        percentiles,
	}, nil
}

// Latency is reported in micros. Values above the tracked maximum are
// clamped to it.
func (self *OneMeasurementHdrHistogram) Measure(latency int64) {
	self.MeasureLock.Lock()
	defer self.MeasureLock.Unlock()

	if latency > self.histogram.HighestTrackableValue() {
		latency = self.histogram.HighestTrackableValue()
	}
	self.histogram.RecordValue(latency)
}

func (self *OneMeasurementHdrHistogram) GetSummary() string {
	self.MeasureLock.Lock()
	defer self.MeasureLock.Unlock()
	format := "[%s: Count=%d, Max=%d, Min=%d, Avg=%.2f, 90=%d, 99=%d, 99.9=%d, 99.99=%d]"
	return fmt.Sprintf(format,
		self.GetName(),
		self.histogram.TotalCount(),
		self.histogram.Max(),
		self.histogram.Min(),
		self.histogram.Mean(),
		self.histogram.ValueAtQuantile(90),
		self.histogram.ValueAtQuantile(99),
		self.histogram.ValueAtQuantile(99.9),
		self.histogram.ValueAtQuantile(99.99))
}

var (
	Suffixes = []string{"th", "st", "nd", "rd", "th", "th", "th", "th", "th", "th"}
)

func ordinal(p float64) string {
	if p != float64(int64(p)) {
		return strconv.FormatFloat(p, 'f', -1, 64) + "th"
	}
	i := int64(p)
	switch i % 100 {
	case 11, 12, 13:
		return fmt.Sprintf("%dth", i)
	default:
		return fmt.Sprintf("%d%s", i, Suffixes[i%10])
	}
}

// This is called from a main thread, on orderly termination.
func (self *OneMeasurementHdrHistogram) ExportMeasurements(exporter MeasurementExporter) (err error) {
	defer catch(&err)
	self.MeasureLock.Lock()
	defer self.MeasureLock.Unlock()

	name := self.GetName()
	try(exporter.Write(name, "Operations", self.histogram.TotalCount()))
	try(exporter.Write(name, "AverageLatency(us)", self.histogram.Mean()))
	try(exporter.Write(name, "MinLatency(us)", self.histogram.Min()))
	try(exporter.Write(name, "MaxLatency(us)", self.histogram.Max()))

	for _, p := range self.percentiles {
		try(exporter.Write(name, ordinal(p)+"PercentileLatency(us)", self.histogram.ValueAtQuantile(p)))
	}
	try(self.ExportStatusCounts(exporter))
	return
}

// Delegates to 2 measurement instances.
type TwoInOneMeasurement struct {
	*OneMeasurementBase
	thing1 OneMeasurement
	thing2 OneMeasurement
}

func NewTwoInOneMeasurement(name string, thing1, thing2 OneMeasurement) *TwoInOneMeasurement {
	return &TwoInOneMeasurement{
		OneMeasurementBase: NewOneMeasurementBase(name),
		thing1:             thing1,
		thing2:             thing2,
	}
}

func (self *TwoInOneMeasurement) Measure(latency int64) {
	self.thing1.Measure(latency)
	self.thing2.Measure(latency)
}

func (self *TwoInOneMeasurement) ReportStatus(status StatusType) {
	self.thing1.ReportStatus(status)
	self.thing2.ReportStatus(status)
}

func (self *TwoInOneMeasurement) GetSummary() string {
	return self.thing1.GetSummary() + " " + self.thing2.GetSummary()
}

func (self *TwoInOneMeasurement) ExportMeasurements(exporter MeasurementExporter) (err error) {
	defer catch(&err)

	try(self.thing1.ExportMeasurements(exporter))
	try(self.thing2.ExportMeasurements(exporter))
	return
}
