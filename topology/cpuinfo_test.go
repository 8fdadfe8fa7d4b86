package topology

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hhkbp2/testify/require"
)

const sampleCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
physical id	: 0
siblings	: 4
core id		: 0
cpu cores	: 2

processor	: 1
vendor_id	: GenuineIntel
physical id	: 0
siblings	: 4
core id		: 1
cpu cores	: 2

processor	: 2
vendor_id	: GenuineIntel
physical id	: 0
siblings	: 4
core id		: 0
cpu cores	: 2

processor	: 3
vendor_id	: GenuineIntel
physical id	: 0
siblings	: 4
core id		: 1
cpu cores	: 2
`

func TestParseCPUInfo(t *testing.T) {
	records, err := ParseCPUInfo(strings.NewReader(sampleCPUInfo), true)
	require.Nil(t, err)
	require.Equal(t, []Record{
		{Node: 0, Core: 0, Thread: 0},
		{Node: 0, Core: 1, Thread: 1},
		{Node: 0, Core: 0, Thread: 2},
		{Node: 0, Core: 1, Thread: 3},
	}, records)

	topo := MustNew(records)
	require.Equal(t, 2, topo.TotalCoreCount())
	sel, err := topo.SelectThreads(2)
	require.Nil(t, err)
	require.Equal(t, []int{0, 1}, sel)
}

func TestParseCPUInfoSkipsTrailer(t *testing.T) {
	input := "processor : 0\nphysical id : 0\ncore id : 0\n\n" +
		"Hardware : BCM2835\nRevision : a02082\n\n\n"
	records, err := ParseCPUInfo(strings.NewReader(input), true)
	require.Nil(t, err)
	require.Equal(t, []Record{{Node: 0, Core: 0, Thread: 0}}, records)
}

func TestParseCPUInfoIncomplete(t *testing.T) {
	input := "processor : 0\nphysical id : 0\ncore id : 0\n\n" +
		"processor : 1\nphysical id : 0\n\n" +
		"processor : 2\nphysical id : 0\ncore id : 1\n"

	_, err := ParseCPUInfo(strings.NewReader(input), true)
	require.NotNil(t, err)
	require.True(t, errors.Is(err, ErrMalformedInput))
	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, 2, malformed.Record)
	require.Contains(t, malformed.Error(), "missing core id")

	records, err := ParseCPUInfo(strings.NewReader(input), false)
	require.Nil(t, err)
	require.Equal(t, []Record{
		{Node: 0, Core: 0, Thread: 0},
		{Node: 0, Core: 1, Thread: 2},
	}, records)
}

func TestParseCPUInfoBadValue(t *testing.T) {
	input := "processor : 0\nphysical id : zero\ncore id : 0\n"
	_, err := ParseCPUInfo(strings.NewReader(input), true)
	require.True(t, errors.Is(err, ErrMalformedInput))
	require.Contains(t, err.Error(), `invalid physical id value "zero"`)

	records, err := ParseCPUInfo(strings.NewReader(input), false)
	require.Nil(t, err)
	require.Equal(t, 0, len(records))
}

func TestReadCPUInfoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpuinfo")
	require.Nil(t, os.WriteFile(path, []byte(sampleCPUInfo), 0644))
	records, err := ReadCPUInfoFile(path, true)
	require.Nil(t, err)
	require.Equal(t, 4, len(records))

	_, err = ReadCPUInfoFile(filepath.Join(t.TempDir(), "missing"), true)
	require.True(t, os.IsNotExist(err))
}
