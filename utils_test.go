package pinbench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hhkbp2/testify/require"
)

func TestProperties(t *testing.T) {
	k := "key"
	v := "value"
	p := NewProperties()
	p.Add(k, v)
	x := p.Get(k)
	require.Equal(t, v, x)
	x = p.GetDefault(k, "other")
	require.Equal(t, v, x)
	require.Equal(t, "other", p.GetDefault("missing", "other"))
	require.Equal(t, "", p.Get("missing"))
	k1 := "a"
	v1 := "b"
	p2 := map[string]string{k1: v1, k: "override"}
	p.Merge(p2)
	z := p.Get(k1)
	require.Equal(t, v1, z)
	require.Equal(t, "override", p.Get(k))
}

func TestLoadProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.properties")
	content := `# probe settings
threadcount=4

probe.iterations = 10
exportfile=out-%Y.txt
`
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	p, err := LoadProperties(path)
	require.Nil(t, err)
	require.Equal(t, 3, len(p))
	require.Equal(t, "4", p.Get(PropertyThreadCount))
	require.Equal(t, "10", p.Get(PropertyProbeIterations))
	require.Equal(t, "out-%Y.txt", p.Get(PropertyExportFile))

	require.Nil(t, os.WriteFile(path, []byte("threadcount\n"), 0644))
	_, err = LoadProperties(path)
	require.NotNil(t, err)

	_, err = LoadProperties(filepath.Join(t.TempDir(), "none"))
	require.NotNil(t, err)
}

func TestFormatInts(t *testing.T) {
	require.Equal(t, "", FormatInts(nil))
	require.Equal(t, "3", FormatInts([]int{3}))
	require.Equal(t, "0,1,2,8", FormatInts([]int{0, 1, 2, 8}))
}

func TestNanosecondToMicrosecond(t *testing.T) {
	require.Equal(t, int64(1), NanosecondToMicrosecond(1999))
	require.Equal(t, int64(0), NanosecondToMicrosecond(999))
}

func TestPrintln(t *testing.T) {
	buf := captureOutput(t)
	Println("%d\t%s", 4, "0-3")
	PromptPrintf("> ")
	Println("100%% done")
	require.Equal(t, "4\t0-3\n> 100% done\n", buf.String())
}
