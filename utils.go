package pinbench

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	g "github.com/hhkbp2/pinbench/generator"
)

type Properties map[string]string

func NewProperties() Properties {
	return make(Properties)
}

func (self Properties) Add(key, value string) {
	self[key] = value
}

func (self Properties) Get(key string) string {
	v, _ := self[key]
	return v
}

func (self Properties) GetDefault(key string, defaultValue string) string {
	if v, ok := self[key]; ok {
		return v
	}
	return defaultValue
}

// Merge copies every entry of other into self, overriding existing keys.
func (self Properties) Merge(other map[string]string) {
	for k, v := range other {
		self[k] = v
	}
}

// LoadProperties reads a property file of "name=value" lines.
// Blank lines and lines starting with '#' are ignored.
func LoadProperties(filename string) (Properties, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	props := NewProperties()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, g.NewErrorf("%s:%d: invalid property: %s", filename, lineNo, line)
		}
		props.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

func NanosecondToMicrosecond(nanos int64) int64 {
	return nanos / 1000
}

func Output(format string, args ...interface{}) {
	fmt.Fprintf(OutputDest, format, args...)
	fmt.Fprintln(OutputDest, "")
}

func OutputProperties(p Properties) {
	Output("***************** properties *****************")
	if p != nil {
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			Output("\"%s\"=\"%s\"", k, p[k])
		}
	}
	Output("**********************************************")
}

// FormatInts renders ids as a comma separated list without ranges.
func FormatInts(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
