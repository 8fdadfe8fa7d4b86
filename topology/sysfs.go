package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const DefaultSysfsRoot = "/sys/devices/system/cpu"

// ReadSysfs builds records from the sysfs CPU tree rooted at root
// (normally DefaultSysfsRoot). Online CPUs come from root/online; each
// one's socket and core are read from cpuN/topology. A CPU whose topology
// files are missing or unreadable is an error when strict is set and is
// skipped otherwise.
func ReadSysfs(root string, strict bool) ([]Record, error) {
	data, err := os.ReadFile(filepath.Join(root, "online"))
	if err != nil {
		return nil, err
	}
	cpus, err := ParseCPUList(string(data))
	if err != nil {
		return nil, &MalformedInputError{
			Source: filepath.Join(root, "online"),
			Reason: err.Error(),
		}
	}
	records := make([]Record, 0, len(cpus))
	for _, cpu := range cpus {
		dir := filepath.Join(root, fmt.Sprintf("cpu%d", cpu), "topology")
		node, err := readSysfsInt(filepath.Join(dir, "physical_package_id"))
		if err == nil {
			var core int
			core, err = readSysfsInt(filepath.Join(dir, "core_id"))
			if err == nil {
				records = append(records, Record{Node: node, Core: core, Thread: cpu})
				continue
			}
		}
		if strict {
			return nil, &MalformedInputError{
				Source: fmt.Sprintf("cpu%d", cpu),
				Reason: err.Error(),
			}
		}
	}
	return records, nil
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
