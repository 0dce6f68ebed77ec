package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "cohorttab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig describes where the raw dataset comes from
type InputConfig struct {
	// Source is a local file path or an http(s) URL. Fetched once at run
	// start; there is no retry.
	Source string `yaml:"source" envconfig:"SOURCE"`
	// Sheet names the workbook sheet to read when Source is an .xlsx file.
	// Empty means scan for the first sheet with a recognizable header row.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// OutputConfig describes where artifacts are written
type OutputConfig struct {
	ReportPath   string `yaml:"report_path" envconfig:"REPORT_PATH"`
	LongCSVPath  string `yaml:"long_csv_path" envconfig:"LONG_CSV_PATH"`
	WorkbookPath string `yaml:"workbook_path" envconfig:"WORKBOOK_PATH"`
	BOMPrefix    *bool  `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// BOM reports whether CSV exports get a UTF-8 BOM. Defaults to true for
// Excel compatibility.
func (o OutputConfig) BOM() bool {
	return o.BOMPrefix == nil || *o.BOMPrefix
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// defaultConfig returns the built-in defaults. File values override these,
// and environment values override both.
func defaultConfig() Config {
	return Config{
		Output: OutputConfig{
			ReportPath: "reports/summary.md",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/cohorttab.log",
		},
	}
}

// Load loads configuration from defaults, an optional YAML config file, and
// environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("config file %s not found", configFile), err)
		}
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err)
		}
	}

	// Environment variables override file values
	if err := envconfig.Process("COHORTTAB", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML file values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// ReportSpec describes the presentation of the summary table: which
// variables appear, in what order, with what column labels, grouped header,
// and footnote. Row order is a domain decision supplied here, never a sort.
type ReportSpec struct {
	Stub        string         `yaml:"stub"`
	Variables   []VariableSpec `yaml:"variables" validate:"required,min=1,dive"`
	Labels      []string       `yaml:"labels"`
	GroupHeader []GroupSpan    `yaml:"group_header" validate:"dive"`
	Footnote    string         `yaml:"footnote"`
}

// VariableSpec names one summarized variable and its display label.
type VariableSpec struct {
	Name  string `yaml:"name" validate:"required"`
	Label string `yaml:"label"`
}

// GroupSpan is one top-level header cell spanning N data columns.
type GroupSpan struct {
	Label string `yaml:"label" validate:"required"`
	Span  int    `yaml:"span" validate:"required,min=1"`
}

// VariableNames returns the configured variable names in presentation order.
func (s *ReportSpec) VariableNames() []string {
	names := make([]string, 0, len(s.Variables))
	for _, v := range s.Variables {
		names = append(names, v.Name)
	}
	return names
}

// VariableLabel returns the display label for a variable, falling back to
// its name when no label is configured.
func (s *ReportSpec) VariableLabel(name string) string {
	for _, v := range s.Variables {
		if v.Name == name && v.Label != "" {
			return v.Label
		}
	}
	return name
}

// DefaultReportSpec returns the built-in presentation: age, height, weight,
// then the derived lean body mass percentage.
func DefaultReportSpec() *ReportSpec {
	return &ReportSpec{
		Stub: "Variable",
		Variables: []VariableSpec{
			{Name: "age", Label: "Age (yr)"},
			{Name: "height", Label: "Height (cm)"},
			{Name: "weight", Label: "Weight (kg)"},
			{Name: "lbm_pct", Label: "Lean body mass (%)"},
		},
		Footnote: "Values are mean (SD).",
	}
}

// LoadReportSpec reads and validates a report spec from a YAML file.
// An empty path returns the default spec.
func LoadReportSpec(path string) (*ReportSpec, error) {
	if path == "" {
		return DefaultReportSpec(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("report spec %s not readable", path), err)
	}

	var spec ReportSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, apperrors.NewConfigError("failed to parse report spec", err)
	}
	if spec.Stub == "" {
		spec.Stub = "Variable"
	}

	if err := validator.New().Struct(&spec); err != nil {
		return nil, apperrors.NewConfigError("report spec validation failed", err)
	}

	return &spec, nil
}
