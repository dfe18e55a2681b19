// Package config provides configuration loading for fmrimap.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then FMRIMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete fmrimap configuration.
type Config struct {
	Scan        ScanConfig        `koanf:"scan"`
	Metadata    MetadataConfig    `koanf:"metadata"`
	Store       StoreConfig       `koanf:"store"`
	Materialize MaterializeConfig `koanf:"materialize"`
	Steps       StepsConfig       `koanf:"steps"`
	Logging     LoggingConfig     `koanf:"logging"`
	UI          UIConfig          `koanf:"ui"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// ScanConfig controls dataset discovery.
type ScanConfig struct {
	MinDepth       int      `koanf:"min_depth"`
	MaxDepth       int      `koanf:"max_depth"`
	MarkerFiles    []string `koanf:"marker_files"`
	MarkerDirs     []string `koanf:"marker_dirs"`
	Exclude        []string `koanf:"exclude"`
	IgnoreFile     string   `koanf:"ignore_file"`
	FollowSymlinks bool     `koanf:"follow_symlinks"`
}

// MetadataConfig locates values inside ParaVision metadata files.
type MetadataConfig struct {
	SubjectFile    string `koanf:"subject_file"`
	SubjectIDLine  int    `koanf:"subject_id_line"`
	StudyNameLine  int    `koanf:"study_name_line"`
	AcqpFile       string `koanf:"acqp_file"`
	MethodFile     string `koanf:"method_file"`
	SequenceMarker string `koanf:"sequence_marker"`
}

// StoreConfig names the assignment store file created under the root.
type StoreConfig struct {
	FileName string `koanf:"file_name"`
}

// MaterializeConfig controls the output hierarchy and conversion step.
type MaterializeConfig struct {
	OutputDir          string `koanf:"output_dir"`
	ConvertOperation   string `koanf:"convert_operation"`
	ConvertedArtifact  string `koanf:"converted_artifact"`
	StructuralArtifact string `koanf:"structural_artifact"`
	LabelMaxLength     int    `koanf:"label_max_length"`
	FallbackLabel      string `koanf:"fallback_label"`
}

// StepsConfig points at the TOML manifest declaring external collaborators.
type StepsConfig struct {
	Manifest string `koanf:"manifest"`
}

// LoggingConfig is the user-facing subset of logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`
}

// UIConfig selects the prompt implementation.
type UIConfig struct {
	Plain bool `koanf:"plain"`
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	TextFile string `koanf:"text_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			MinDepth: 1,
			MaxDepth: 4,
			MarkerFiles: []string{
				"subject",
				"AdjStatePerStudy",
				"ResultState",
				"ScanProgram.scanProgram",
			},
			MarkerDirs:     []string{"AdjResult"},
			Exclude:        []string{"**/.*", "AnalysedData/**"},
			IgnoreFile:     ".fmrimapignore",
			FollowSymlinks: true,
		},
		Metadata: MetadataConfig{
			SubjectFile:    "subject",
			SubjectIDLine:  7,
			StudyNameLine:  25,
			AcqpFile:       "acqp",
			MethodFile:     "method",
			SequenceMarker: "##$ACQ_protocol_name=",
		},
		Store: StoreConfig{
			FileName: ".fmri_project_map.json",
		},
		Materialize: MaterializeConfig{
			OutputDir:          "AnalysedData",
			ConvertOperation:   "convert",
			ConvertedArtifact:  "converted.nii.gz",
			StructuralArtifact: "anatomy.nii.gz",
			LabelMaxLength:     50,
			FallbackLabel:      "Unknown",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scan.MinDepth < 0 {
		return fmt.Errorf("scan.min_depth must be >= 0, got %d", c.Scan.MinDepth)
	}
	if c.Scan.MaxDepth < c.Scan.MinDepth {
		return fmt.Errorf("scan.max_depth (%d) must be >= scan.min_depth (%d)", c.Scan.MaxDepth, c.Scan.MinDepth)
	}
	if len(c.Scan.MarkerFiles) == 0 && len(c.Scan.MarkerDirs) == 0 {
		return errors.New("scan signature is empty: set scan.marker_files or scan.marker_dirs")
	}
	if c.Metadata.SubjectIDLine < 1 || c.Metadata.StudyNameLine < 1 {
		return errors.New("metadata line numbers are 1-based and must be positive")
	}
	if c.Metadata.SequenceMarker == "" {
		return errors.New("metadata.sequence_marker cannot be empty")
	}
	if c.Store.FileName == "" {
		return errors.New("store.file_name cannot be empty")
	}
	if c.Materialize.OutputDir == "" {
		return errors.New("materialize.output_dir cannot be empty")
	}
	if c.Materialize.LabelMaxLength <= 0 {
		return fmt.Errorf("materialize.label_max_length must be positive, got %d", c.Materialize.LabelMaxLength)
	}
	if c.Materialize.ConvertedArtifact == "" {
		return errors.New("materialize.converted_artifact cannot be empty")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
