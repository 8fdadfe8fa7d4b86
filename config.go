package pinbench

const (
	// topology
	// Where the thread records come from: "cpuinfo" or "sysfs".
	PropertySource        = "topology.source"
	PropertySourceDefault = "cpuinfo"
	// Path of the cpuinfo formatted file when the source is "cpuinfo".
	PropertyCPUInfoPath        = "topology.cpuinfo"
	PropertyCPUInfoPathDefault = "/proc/cpuinfo"
	// Root of the sysfs cpu tree when the source is "sysfs".
	PropertySysfsRoot        = "topology.sysfs"
	PropertySysfsRootDefault = "/sys/devices/system/cpu"
	// Whether an incomplete thread record fails discovery (true) or is
	// dropped (false).
	PropertyStrict        = "topology.strict"
	PropertyStrictDefault = "true"

	// selection
	// The number of logical threads to select. 0 means every count from 1
	// to the total for "pick" and the sweep for "probe".
	PropertyThreadCount        = "threadcount"
	PropertyThreadCountDefault = "0"
	// Step of the thread count sweep.
	PropertyThreadStep        = "threads.step"
	PropertyThreadStepDefault = "2"
	// Upper bound of the sweep. 0 means all logical threads.
	PropertyThreadMax        = "threads.max"
	PropertyThreadMaxDefault = "0"

	// probe
	// The number of timed work units each probe goroutine runs.
	PropertyProbeIterations        = "probe.iterations"
	PropertyProbeIterationsDefault = "1000"
	// Loop steps per work unit. The upper bound for "uniform".
	PropertyProbeWork        = "probe.work"
	PropertyProbeWorkDefault = "100000"
	// Distribution of the work unit size: "constant" or "uniform".
	PropertyProbeWorkDistribution        = "probe.workdistribution"
	PropertyProbeWorkDistributionDefault = "constant"
	// Seed for the work size generator. The goroutine on logical thread t
	// draws from its own source seeded with seed+t.
	PropertyProbeSeed        = "probe.seed"
	PropertyProbeSeedDefault = "42"

	// The exporter class to be used. The default is TextMeasurementExporter.
	PropertyExporter        = "exporter"
	PropertyExporterDefault = "TextMeasurementExporter"
	// If set to the path of a file, this file will be written instead of
	// stdout. strftime patterns such as %Y%m%d are expanded.
	PropertyExportFile        = "exportfile"
	PropertyExportFileDefault = ""

	// measurement
	PropertyMeasurementType        = "measurementtype"
	PropertyMeasurementTypeDefault = "hdrhistogram"

	// Optionally, user can configure an output file to save the raw
	// data points. Default is none, raw results will be written to stdout.
	OutputFilePath        = "measurement.raw.output_file"
	OutputFilePathDefault = ""
	// Optionally, user can request to not output summary stats. This is
	// useful if the user chains the raw measurement type behind the
	// HdrHistogram type which already outputs summary stats.
	NoSummaryStats        = "measurement.raw.no_summary"
	NoSummaryStatsDefault = "false"

	// The name of the property for deciding what percentile values to output.
	PropertyPercentiles = "hdrhistogram.percentiles"
	// The default value of `PropertyPercentiles`
	PropertyPercentilesDefault = "50,95,99"
	// The largest latency(us) the histogram tracks.
	PropertyHdrHistogramMax        = "hdrhistogram.max"
	PropertyHdrHistogramMaxDefault = "60000000"
	// Number of significant value digits kept by the histogram.
	PropertyHdrHistogramSig        = "hdrhistogram.sig"
	PropertyHdrHistogramSigDefault = "3"

	// logging
	PropertyLogLevel        = "log.level"
	PropertyLogLevelDefault = "warn"
)
