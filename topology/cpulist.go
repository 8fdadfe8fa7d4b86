package topology

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseCPUList parses the Linux CPU list format, e.g. "0-3,8-11" or "0,2,4".
func ParseCPUList(cpulist string) ([]int, error) {
	cpus := make([]int, 0)
	cpulist = strings.TrimSpace(cpulist)
	if cpulist == "" {
		return cpus, nil
	}
	for _, part := range strings.Split(cpulist, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		switch len(bounds) {
		case 1:
			cpu, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, fmt.Errorf("invalid cpu number: %s", part)
			}
			cpus = append(cpus, cpu)
		case 2:
			start, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err1 != nil || err2 != nil || end < start {
				return nil, fmt.Errorf("invalid range: %s", part)
			}
			for i := start; i <= end; i++ {
				cpus = append(cpus, i)
			}
		default:
			return nil, fmt.Errorf("invalid range: %s", part)
		}
	}
	return cpus, nil
}

// FormatCPUList renders ids in the Linux CPU list format, collapsing runs
// into ranges. The input is not modified.
func FormatCPUList(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	var buf bytes.Buffer
	start := sorted[0]
	prev := sorted[0]
	emit := func() {
		if buf.Len() > 0 {
			buf.WriteByte(',')
		}
		if start == prev {
			buf.WriteString(strconv.Itoa(start))
		} else {
			fmt.Fprintf(&buf, "%d-%d", start, prev)
		}
	}
	for _, id := range sorted[1:] {
		if id == prev {
			continue
		}
		if id == prev+1 {
			prev = id
			continue
		}
		emit()
		start = id
		prev = id
	}
	emit()
	return buf.String()
}
