// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string

	// ErrInvalidOption is returned by Validate, wrapped with the name of the offending option
	ErrInvalidOption = errors.New("invalid option")
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the analysis and the description of the program-independent inputs: which classes
// are never context-qualified, which methods are entry points, which fact files to query.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// NoContextClasses lists the classes whose allocations are never qualified by object sensitivity. Subclasses
	// are excluded as well.
	NoContextClasses []string `yaml:"no-context-classes"`

	// EntryPoints lists the methods called by the synthetic root, for programs that do not declare root edges
	EntryPoints []string `yaml:"entry-points"`

	// Programs lists fact files, relative to the config file, that the query command loads when none is given on
	// the command line
	Programs []string `yaml:"programs"`
}

// Options are the scalar settings of the analysis
type Options struct {
	// ReportsDir is the directory where all the reports will be stored. If the yaml config file this config struct has
	// been loaded does not specify a ReportsDir but sets ReportStats to true, then ReportsDir will be created
	// in the folder of the config file.
	ReportsDir string `yaml:"reports-dir"`

	// ReportStats specifies whether the call graph and encoding statistics should be written to a file in ReportsDir
	ReportStats bool `yaml:"report-stats"`

	// PkgFilter restricts the Go frontend to the functions whose package path matches. The filter is a regex if it
	// compiles, a prefix otherwise.
	PkgFilter string `yaml:"pkg-filter"`

	// ObjectSensitivity is the depth k of object sensitivity. 0 disables it.
	ObjectSensitivity int `yaml:"object-sensitivity"`

	// MaxContextSpan is the number of contexts of a method above which the blocking scheme is used
	MaxContextSpan int64 `yaml:"max-context-span"`

	// CallgraphMode is the call graph algorithm used by the Go frontend
	CallgraphMode string `yaml:"callgraph-mode"`

	// QueryWorkers is the number of goroutines answering queries. Each worker has its own querier.
	QueryWorkers int `yaml:"query-workers"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config: context-insensitive heap, default span, info logging.
func NewDefault() *Config {
	return &Config{
		sourceFile:       "",
		NoContextClasses: nil,
		EntryPoints:      nil,
		Programs:         nil,
		Options: Options{
			ReportsDir:        "",
			ReportStats:       false,
			PkgFilter:         "",
			ObjectSensitivity: DefaultObjectSensitivity,
			MaxContextSpan:    DefaultMaxContextSpan,
			CallgraphMode:     DefaultCallgraphMode,
			QueryWorkers:      DefaultQueryWorkers,
			LogLevel:          int(InfoLevel),
			SilenceWarn:       false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes parses the contents b of the config file filename. The file name is only used to resolve relative
// paths and the default reports directory.
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.MaxContextSpan == 0 {
		cfg.MaxContextSpan = DefaultMaxContextSpan
	}
	if cfg.CallgraphMode == "" {
		cfg.CallgraphMode = DefaultCallgraphMode
	}
	if cfg.QueryWorkers == 0 {
		cfg.QueryWorkers = DefaultQueryWorkers
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("in config file %s: %w", filename, err)
	}

	if cfg.ReportStats {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks the ranges of the options. The returned error wraps ErrInvalidOption.
func (c Config) Validate() error {
	if c.ObjectSensitivity < 0 {
		return fmt.Errorf("%w: object-sensitivity must be non-negative, got %d", ErrInvalidOption,
			c.ObjectSensitivity)
	}
	if c.MaxContextSpan <= 0 {
		return fmt.Errorf("%w: max-context-span must be positive, got %d", ErrInvalidOption, c.MaxContextSpan)
	}
	if c.QueryWorkers < 0 {
		return fmt.Errorf("%w: query-workers must be non-negative, got %d", ErrInvalidOption, c.QueryWorkers)
	}
	if c.CallgraphMode != "" && !slices.Contains(CallgraphModes, c.CallgraphMode) {
		return fmt.Errorf("%w: callgraph-mode must be one of %s, got %q", ErrInvalidOption,
			strings.Join(CallgraphModes, ", "), c.CallgraphMode)
	}
	if c.LogLevel < 0 || c.LogLevel > int(TraceLevel) {
		return fmt.Errorf("%w: log-level must be between %d and %d, got %d", ErrInvalidOption,
			ErrLevel, TraceLevel, c.LogLevel)
	}
	return nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports: %w", err)
		}
		c.ReportsDir = tmpdir
	} else {
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// ObjectSensitive returns true if allocations are qualified by their receiver objects
func (c Config) ObjectSensitive() bool {
	return c.ObjectSensitivity > 0
}

// SourceFile returns the name of the file the config has been loaded from, or "" for a default config
func (c Config) SourceFile() string {
	return c.sourceFile
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	if path.IsAbs(filename) {
		return filename
	}
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}
