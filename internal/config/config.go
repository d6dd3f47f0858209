package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. Paths live here and are handed to the
// pipeline explicitly.
type Global struct {
	DataDir       string `mapstructure:"data_dir" yaml:"data_dir"`
	RawPath       string `mapstructure:"raw_path" yaml:"raw_path"`
	ProcessedPath string `mapstructure:"processed_path" yaml:"processed_path"`
	// Delimiter overrides sniffing: "," ";" "tab" or "|". Empty sniffs.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// Sheet selects the XLSX worksheet; empty reads the first.
	Sheet string `mapstructure:"sheet" yaml:"sheet"`

	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat  string `mapstructure:"log_format" yaml:"log_format"`

	// Dashboard defaults
	ParetoTopN      int  `mapstructure:"pareto_top_n" yaml:"pareto_top_n"`
	CohortNormalize bool `mapstructure:"cohort_normalize" yaml:"cohort_normalize"`
	TopN            int  `mapstructure:"top_n" yaml:"top_n"`
}

const (
	dirName  = ".salesboard"
	fileName = "config.yaml"
)

// Dir returns ~/.salesboard.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salesboard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, fileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.salesboard/config.yaml) > defaults.
// A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESBOARD")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.resolvePaths()
	return &c, nil
}

var defaults = map[string]interface{}{
	"data_dir":         "data",
	"raw_path":         "",
	"processed_path":   "",
	"delimiter":        "",
	"sheet":            "",
	"server_addr":      ":8080",
	"log_level":        "info",
	"log_format":       "console",
	"pareto_top_n":     30,
	"cohort_normalize": true,
	"top_n":            20,
}

// Defaults returns the built-in configuration, as Load yields it with no
// file and no environment.
func Defaults() *Global {
	c := &Global{
		DataDir:         defaults["data_dir"].(string),
		ServerAddr:      defaults["server_addr"].(string),
		LogLevel:        defaults["log_level"].(string),
		LogFormat:       defaults["log_format"].(string),
		ParetoTopN:      defaults["pareto_top_n"].(int),
		CohortNormalize: defaults["cohort_normalize"].(bool),
		TopN:            defaults["top_n"].(int),
	}
	c.resolvePaths()
	return c
}

// resolvePaths fills unset file paths from data_dir.
func (c *Global) resolvePaths() {
	if c.RawPath == "" {
		c.RawPath = filepath.Join(c.DataDir, "raw", "superstore.csv")
	}
	if c.ProcessedPath == "" {
		c.ProcessedPath = filepath.Join(c.DataDir, "processed", "superstore_clean.csv")
	}
}

// DelimiterRune maps the delimiter setting to a rune; 0 means sniff.
func (c *Global) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %q (use ',' ';' '|' or 'tab')", c.Delimiter)
}
