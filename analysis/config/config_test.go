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
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed testdata
var testfsys embed.FS

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := LoadFromBytes(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %w", filename, err)
	}
	return filename, config, err
}

func testLoadOneFile(t *testing.T, filename string, expected Config) {
	// set default log level that may not be specified
	if expected.LogLevel == 0 {
		expected.LogLevel = int(InfoLevel)
	}
	configFileName, config, err := loadFromTestDir(filename)
	if err != nil {
		t.Fatalf("Error loading %q: %v", configFileName, err)
	}
	c1, err1 := yaml.Marshal(config)
	c2, err2 := yaml.Marshal(expected)
	if err1 != nil {
		t.Errorf("Error marshalling %v", config)
	}
	if err2 != nil {
		t.Errorf("Error marshalling %v", expected)
	}
	if string(c1) != string(c2) {
		t.Errorf("Error in %q:\n%q is not\n%q\n", filename, c1, c2)
	}
}

func TestLoadFull(t *testing.T) {
	expected := NewDefault()
	expected.LogLevel = int(DebugLevel)
	expected.ObjectSensitivity = 3
	expected.MaxContextSpan = 65536
	expected.CallgraphMode = CallgraphModeVta
	expected.QueryWorkers = 4
	expected.PkgFilter = "^github.com/(foo|bar)"
	expected.NoContextClasses = []string{"std.String", "std.Error"}
	expected.EntryPoints = []string{"Main.main"}
	expected.Programs = []string{"programs/zoo.yaml"}
	testLoadOneFile(t, "config.yaml", *expected)
}

func TestLoadDefaults(t *testing.T) {
	expected := NewDefault()
	expected.EntryPoints = []string{"Main.main", "Main.<clinit>"}
	testLoadOneFile(t, "defaults.yaml", *expected)

	_, c, err := loadFromTestDir("defaults.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if c.ObjectSensitive() || c.MaxContextSpan != DefaultMaxContextSpan || c.CallgraphMode != DefaultCallgraphMode {
		t.Errorf("defaults not applied: %+v", c.Options)
	}
}

func TestLoadInvalid(t *testing.T) {
	for _, name := range []string{"bad-span.yaml", "bad-mode.yaml"} {
		_, _, err := loadFromTestDir(name)
		if !errors.Is(err, ErrInvalidOption) {
			t.Errorf("loading %s: expected an invalid option error, got %v", name, err)
		}
	}
	if _, _, err := loadFromTestDir("bad-yaml.yaml"); err == nil || errors.Is(err, ErrInvalidOption) {
		t.Errorf("expected a parse error, got %v", err)
	}
	if _, err := Load(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Errorf("loading a missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	c := NewDefault()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	c.ObjectSensitivity = -1
	if err := c.Validate(); !errors.Is(err, ErrInvalidOption) || !strings.Contains(err.Error(), "object-sensitivity") {
		t.Errorf("negative k accepted: %v", err)
	}
	c = NewDefault()
	c.MaxContextSpan = 0
	if err := c.Validate(); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("zero span accepted: %v", err)
	}
	c = NewDefault()
	c.LogLevel = 7
	if err := c.Validate(); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("log level 7 accepted: %v", err)
	}
}

func TestPathsAndFilters(t *testing.T) {
	_, c, err := loadFromTestDir("config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.RelPath(c.Programs[0]); got != "testdata/programs/zoo.yaml" {
		t.Errorf("unexpected relative path %q", got)
	}
	if got := c.RelPath("/abs/zoo.yaml"); got != "/abs/zoo.yaml" {
		t.Errorf("absolute paths should be kept, got %q", got)
	}
	if !c.MatchPkgFilter("github.com/foo/x") || c.MatchPkgFilter("github.com/baz") {
		t.Errorf("regex package filter not applied")
	}
	c.pkgFilterRegex = nil
	c.PkgFilter = "github.com/baz"
	if !c.MatchPkgFilter("github.com/baz/y") || c.MatchPkgFilter("github.com/foo") {
		t.Errorf("prefix package filter not applied")
	}
	if !NewDefault().MatchPkgFilter("anything") {
		t.Errorf("empty filter should match everything")
	}
	if !slices.Contains(CallgraphModes, DefaultCallgraphMode) {
		t.Errorf("default callgraph mode is not a valid mode")
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(WarnLevel)
	l := NewLogGroup(c)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)
	l.Errorf("e%d", 1)
	l.Warnf("w%d", 2)
	l.Infof("i%d", 3)
	l.Debugf("d%d", 4)
	l.Tracef("t%d", 5)
	if got := buf.String(); got != "[ERROR] e1\n[WARN] w2\n" {
		t.Errorf("unexpected log output %q", got)
	}
	if l.Enabled(InfoLevel) || !l.Enabled(ErrLevel) {
		t.Errorf("Enabled does not follow the level")
	}
	l.SetLevel(TraceLevel)
	buf.Reset()
	l.Tracef("t")
	if buf.String() != "[TRACE] t\n" || l.Level().String() != "trace" {
		t.Errorf("SetLevel not applied: %q", buf.String())
	}
	if l.GetError() == l.GetDebug() {
		t.Errorf("each level has its own logger")
	}
}

func TestSilenceWarn(t *testing.T) {
	c := NewDefault()
	c.SilenceWarn = true
	l := NewLogGroup(c)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)
	// SetAllOutput overrides the silenced writer
	l.Warnf("w")
	if buf.String() != "[WARN] w\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	l = NewLogGroup(c)
	var errBuf bytes.Buffer
	l.SetError(&errBuf)
	l.SetAllFlags(0)
	l.Errorf("e")
	if errBuf.String() != "[ERROR] e\n" {
		t.Errorf("unexpected error output %q", errBuf.String())
	}
}
