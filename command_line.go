package pinbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

var (
	Commands = map[string]bool{
		"topology": true,
		"pick":     true,
		"probe":    true,
		"shell":    true,
	}
	OptionPrefixes = []string{"--", "-"}
	OptionList     = []*Option{
		&Option{
			Name:        "P",
			HasArgument: true,
			Doc:         "specify a property file",
		},
		&Option{
			Name:        "p",
			HasArgument: true,
			Doc:         "specify a property value",
		},
		&Option{
			Name:        "n",
			HasArgument: true,
			Doc:         "number of threads to select(can also set the \"threadcount\" property)",
		},
		&Option{
			Name:            "source",
			HasArgument:     true,
			HasDefaultValue: true,
			DefaultValue:    PropertySourceDefault,
			Doc:             "topology source, cpuinfo or sysfs",
		},
		&Option{
			Name:            "env",
			HasArgument:     true,
			HasDefaultValue: true,
			DefaultValue:    DefaultEnvFile,
			Doc:             "load PINBENCH_* variables from this file if it exists",
		},
		&Option{
			Name: "s",
			Doc:  "print status to stderr",
		},
		&Option{
			Name: "h",
			Doc:  "show this help message and exit",
		},
		&Option{
			Name: "help",
			Doc:  "show this help message and exit",
		},
	}
	Options = make(map[string]*Option)

	ProgramName = ""
	// Where command results are written.
	OutputDest io.Writer
	// Where probe status lines go, nil when disabled.
	StatusDest io.Writer

	ErrHelp = errors.New("help requested")
)

type Option struct {
	Name            string
	HasArgument     bool
	HasDefaultValue bool
	DefaultValue    string
	Doc             string
}

type Arguments struct {
	Command string
	Options map[string]string
	Properties
}

func Usage() {
	usageFormat := `usage: %s command [options]

Commands:
  topology           Print the discovered CPU topology
  pick               Print the threads selected for a thread count
  probe              Pin a CPU probe to the selected threads and measure it
  shell              Interactive mode

Options:
  -P filename      : specify a property file
  -p name=value    : specify a property value
  -n count         : number of threads to select(can also set the "threadcount" property)
  -source name     : topology source, cpuinfo or sysfs (default %s)
  -env filename    : load PINBENCH_* variables from this file if it exists (default %s)
  -s               : print status to stderr

Environment:
  PINBENCH_SOURCE, PINBENCH_CPUINFO, PINBENCH_SYSFS, PINBENCH_STRICT,
  PINBENCH_LOG_LEVEL, PINBENCH_EXPORTER, PINBENCH_EXPORT_FILE

Precedence is defaults < environment < -source < -P files < -p/-n.

optional arguments:
  -h, --help         show this help message and exit`
	Println(usageFormat, ProgramName, PropertySourceDefault, DefaultEnvFile)
}

func init() {
	ProgramName = filepath.Base(os.Args[0])

	for i := 0; i < len(OptionList); i++ {
		o := OptionList[i]
		Options[o.Name] = o
	}
	OutputDest = os.Stdout
}

func ExitOnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// ParseArgs parses the command line without the program name.
// Returns ErrHelp when help is requested.
func ParseArgs(args []string) (*Arguments, error) {
	if len(args) == 0 {
		return nil, errors.New("no enough argument")
	}
	command := args[0]
	if command == "-h" || command == "--help" {
		return nil, ErrHelp
	}
	if _, ok := Commands[command]; !ok {
		return nil, fmt.Errorf("unsupported command: %s", command)
	}

	// init options to be returned with default values
	opts := make(map[string]string)
	for name, opt := range Options {
		if opt.HasDefaultValue {
			opts[name] = opt.DefaultValue
		}
	}
	fileProps := NewProperties()
	flagProps := NewProperties()
	sourceSet := false
	for i := 1; i < len(args); i++ {
		a := args[i]
		for _, p := range OptionPrefixes {
			if strings.HasPrefix(a, p) {
				a = strings.TrimPrefix(a, p)
				break
			}
		}
		option, ok := Options[a]
		if !ok {
			return nil, fmt.Errorf("unknown option: %s", args[i])
		}
		if !option.HasArgument {
			if option.Name == "h" || option.Name == "help" {
				return nil, ErrHelp
			}
			opts[option.Name] = "true"
			continue
		}
		i++
		if !(i < len(args)) {
			return nil, fmt.Errorf("missing argument for option: %s", option.Name)
		}
		arg := args[i]
		switch option.Name {
		case "n":
			flagProps.Add(PropertyThreadCount, arg)
		case "source":
			sourceSet = true
			opts[option.Name] = arg
		case "p":
			// it's a property, should be in `k=v` form
			parts := strings.SplitN(arg, "=", 2)
			if len(parts) != 2 || parts[0] == "" {
				return nil, fmt.Errorf("invalid property: %s", arg)
			}
			flagProps.Add(parts[0], parts[1])
		case "P":
			propsFromFile, err := LoadProperties(arg)
			if err != nil {
				return nil, err
			}
			fileProps.Merge(propsFromFile)
		default:
			opts[option.Name] = arg
		}
	}

	props, err := LoadEnvProperties(opts["env"])
	if err != nil {
		return nil, err
	}
	if sourceSet {
		props.Add(PropertySource, opts["source"])
	}
	props.Merge(fileProps)
	props.Merge(flagProps)
	return &Arguments{
		Command:    command,
		Options:    opts,
		Properties: props,
	}, nil
}

// NewClient returns the client for the parsed command.
func NewClient(args *Arguments) (Client, error) {
	switch args.Command {
	case "topology":
		return NewTopologyClient(args), nil
	case "pick":
		return NewPicker(args), nil
	case "probe":
		return NewProber(args), nil
	case "shell":
		return NewShell(args, os.Stdin), nil
	default:
		return nil, fmt.Errorf("invalid command: %s", args.Command)
	}
}

func Main() {
	args, err := ParseArgs(os.Args[1:])
	if err == ErrHelp {
		Usage()
		os.Exit(0)
	}
	if err != nil {
		ExitOnError("%s", err)
	}
	if err = SetLogLevel(args.GetDefault(PropertyLogLevel, PropertyLogLevelDefault)); err != nil {
		ExitOnError("%s", err)
	}
	if args.Options["s"] == "true" {
		StatusDest = os.Stderr
	}
	client, err := NewClient(args)
	if err != nil {
		ExitOnError("%s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = client.Main(ctx); err != nil {
		stop()
		ExitOnError("%s", err)
	}
}
