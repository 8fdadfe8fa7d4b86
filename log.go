package pinbench

import (
	"fmt"
	"io"
	"os"

	g "github.com/hhkbp2/pinbench/generator"
)

type LogLevelType uint8

const (
	LevelVerbose LogLevelType = 50
	LevelDebug   LogLevelType = 40
	LevelInfo    LogLevelType = 30
	LevelWarn    LogLevelType = 20
	LevelError   LogLevelType = 10
	LevelQuiet   LogLevelType = 0
)

var (
	nameToLevels = map[string]LogLevelType{
		"verbose": LevelVerbose,
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"quiet":   LevelQuiet,
	}
)

var (
	logLevel  LogLevelType = LevelWarn
	logOutput io.Writer    = os.Stderr
)

// SetLogLevel sets the level by name, one of the keys of nameToLevels.
func SetLogLevel(name string) error {
	level, ok := nameToLevels[name]
	if !ok {
		return g.NewErrorf("unknown log level: %s", name)
	}
	logLevel = level
	return nil
}

func SetLogOutput(w io.Writer) {
	logOutput = w
}

func Flogf(w io.Writer, level LogLevelType, format string, args ...interface{}) {
	if level <= logLevel {
		fmt.Fprintf(w, format, args...)
		fmt.Fprintln(w, "")
	}
}

func Logf(level LogLevelType, format string, args ...interface{}) {
	Flogf(logOutput, level, format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logf(LevelError, format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logf(LevelWarn, format, args...)
}

func Infof(format string, args ...interface{}) {
	Logf(LevelInfo, format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logf(LevelDebug, format, args...)
}

func Verbosef(format string, args ...interface{}) {
	Logf(LevelVerbose, format, args...)
}

// PromptPrintf formats to OutputDest without a trailing newline.
func PromptPrintf(format string, args ...interface{}) {
	fmt.Fprintf(OutputDest, format, args...)
}

// Println formats like fmt.Printf to OutputDest, then appends a newline.
func Println(format string, args ...interface{}) {
	fmt.Fprintf(OutputDest, format, args...)
	fmt.Fprintln(OutputDest, "")
}

func EPrintf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr, "")
}
