package pinbench

import (
	"strconv"

	g "github.com/hhkbp2/pinbench/generator"
	"github.com/hhkbp2/pinbench/topology"
)

// LoadTopology discovers the machine topology from the source named by
// the topology.source property.
func LoadTopology(props Properties) (*topology.Topology, error) {
	strict, err := strconv.ParseBool(props.GetDefault(PropertyStrict, PropertyStrictDefault))
	if err != nil {
		return nil, err
	}
	var records []topology.Record
	source := props.GetDefault(PropertySource, PropertySourceDefault)
	switch source {
	case "cpuinfo":
		path := props.GetDefault(PropertyCPUInfoPath, PropertyCPUInfoPathDefault)
		Debugf("reading topology from %s", path)
		records, err = topology.ReadCPUInfoFile(path, strict)
	case "sysfs":
		root := props.GetDefault(PropertySysfsRoot, PropertySysfsRootDefault)
		Debugf("reading topology from %s", root)
		records, err = topology.ReadSysfs(root, strict)
	default:
		return nil, g.NewErrorf("unsupported topology source: %s", source)
	}
	if err != nil {
		return nil, err
	}
	topo, err := topology.New(records)
	if err != nil {
		return nil, err
	}
	Infof("discovered %d NUMA nodes, %d physical cores, %d logical threads",
		topo.NumNodes(), topo.TotalCoreCount(), topo.TotalThreadCount())
	return topo, nil
}
