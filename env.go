package pinbench

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix      = "PINBENCH"
	DefaultEnvFile = ".env"
)

// EnvConfig holds the properties that may be set from the environment,
// e.g. PINBENCH_SOURCE=sysfs. Empty fields leave the property unset.
type EnvConfig struct {
	Source     string `envconfig:"SOURCE"`
	CPUInfo    string `envconfig:"CPUINFO"`
	Sysfs      string `envconfig:"SYSFS"`
	Strict     string `envconfig:"STRICT"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	Exporter   string `envconfig:"EXPORTER"`
	ExportFile string `envconfig:"EXPORT_FILE"`
}

// LoadEnvProperties loads envFile into the environment if it exists,
// without overriding variables already set, and returns the PINBENCH_*
// variables as properties.
func LoadEnvProperties(envFile string) (Properties, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, err
	}
	props := NewProperties()
	for key, value := range map[string]string{
		PropertySource:      cfg.Source,
		PropertyCPUInfoPath: cfg.CPUInfo,
		PropertySysfsRoot:   cfg.Sysfs,
		PropertyStrict:      cfg.Strict,
		PropertyLogLevel:    cfg.LogLevel,
		PropertyExporter:    cfg.Exporter,
		PropertyExportFile:  cfg.ExportFile,
	} {
		if value != "" {
			props.Add(key, value)
		}
	}
	return props, nil
}
