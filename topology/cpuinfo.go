package topology

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	keyProcessor  = "processor"
	keyPhysicalID = "physical id"
	keyCoreID     = "core id"
)

// stanza collects the fields of one blank line delimited block.
type stanza struct {
	index    int
	node     *int
	core     *int
	thread   *int
	badField string
	badValue string
}

func (self *stanza) empty() bool {
	return self.node == nil && self.core == nil && self.thread == nil && self.badField == ""
}

func (self *stanza) record(source string) (Record, error) {
	if self.badField != "" {
		return Record{}, &MalformedInputError{
			Source: source,
			Record: self.index,
			Reason: "invalid " + self.badField + " value " + strconv.Quote(self.badValue),
		}
	}
	missing := make([]string, 0, 3)
	if self.thread == nil {
		missing = append(missing, keyProcessor)
	}
	if self.node == nil {
		missing = append(missing, keyPhysicalID)
	}
	if self.core == nil {
		missing = append(missing, keyCoreID)
	}
	if len(missing) > 0 {
		return Record{}, &MalformedInputError{
			Source: source,
			Record: self.index,
			Reason: "missing " + strings.Join(missing, ", "),
		}
	}
	return Record{Node: *self.node, Core: *self.core, Thread: *self.thread}, nil
}

// ParseCPUInfo reads records in the /proc/cpuinfo format: one block per
// logical thread, blocks separated by blank lines. Blocks carrying none of
// "processor", "physical id" and "core id" are skipped. An incomplete
// block is an error when strict is set and is dropped otherwise.
func ParseCPUInfo(r io.Reader, strict bool) ([]Record, error) {
	return parseCPUInfo("cpuinfo", r, strict)
}

func ReadCPUInfoFile(path string, strict bool) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCPUInfo(path, f, strict)
}

func parseCPUInfo(source string, r io.Reader, strict bool) ([]Record, error) {
	records := make([]Record, 0)
	current := &stanza{index: 1}
	flush := func() error {
		if current.empty() {
			return nil
		}
		rec, err := current.record(source)
		current = &stanza{index: current.index + 1}
		if err != nil {
			if strict {
				return err
			}
			return nil
		}
		records = append(records, rec)
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		var dest **int
		switch name {
		case keyProcessor:
			dest = &current.thread
		case keyPhysicalID:
			dest = &current.node
		case keyCoreID:
			dest = &current.core
		default:
			continue
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			if current.badField == "" {
				current.badField = name
				current.badValue = value
			}
			continue
		}
		*dest = &v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return records, nil
}
