package response

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	yml "gopkg.in/yaml.v2"
)

// versionFiles names the archive file for each released version.  Version 2
// is the pre-launch dataset.
var versionFiles = map[int]string{
	1: "iris_sra_20130211.yml",
	2: "iris_sra_20130715.yml",
	3: "iris_sra_c_20150331.yml",
	4: "iris_sra_c_20161022.yml",
}

// VersionFile returns the archive file name for a dataset version.
func VersionFile(version int) (string, error) {
	fn, ok := versionFiles[version]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	return fn, nil
}

// Options selects a calibration dataset.  Exactly one of Version, Path, or
// PreLaunch must be set; Dir points at the directory holding the versioned
// archives and applies to Version and PreLaunch selection.
type Options struct {
	// Version is the dataset version, 1..4.  Zero means unset.
	Version int

	// Path is an explicit dataset file, bypassing version lookup.
	Path string

	// PreLaunch selects the pre-launch dataset (version 2's file) with no
	// on-orbit time dependence.
	PreLaunch bool

	// Dir is where versioned archives live.  Empty means the current
	// directory.
	Dir string
}

// resolve turns the options into a concrete file path, enforcing the
// one-selector rule.
func (o Options) resolve() (string, error) {
	n := 0
	if o.Version != 0 {
		n++
	}
	if o.Path != "" {
		n++
	}
	if o.PreLaunch {
		n++
	}
	if n != 1 {
		return "", ErrConflictingSelectors
	}
	if o.Path != "" {
		return o.Path, nil
	}
	v := o.Version
	if o.PreLaunch {
		v = 2
	}
	fn, ok := versionFiles[v]
	if !ok {
		return "", &ConfigurationError{
			Source: fmt.Sprintf("version %d", v),
			Err:    ErrUnknownVersion,
		}
	}
	return filepath.Join(o.Dir, fn), nil
}

// Load reads, parses and validates a calibration dataset per the options.
// Failures to read or parse are reported as *ConfigurationError.
func Load(opts Options) (*Table, error) {
	path, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Source: path, Err: err}
	}
	return Parse(buf, path)
}

// Parse decodes a calibration dataset from YAML bytes.  source is used in
// error messages only.
func Parse(buf []byte, source string) (*Table, error) {
	t := &Table{}
	if err := yml.Unmarshal(buf, t); err != nil {
		return nil, &ConfigurationError{Source: source, Err: err}
	}
	if err := t.Validate(); err != nil {
		return nil, &ConfigurationError{Source: source, Err: err}
	}
	return t, nil
}
