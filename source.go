// FILE: lixenwraith/namespace/source.go
package namespace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one flat key/value pair as produced by a source.
type Record struct {
	Key   string
	Value string
}

// Source yields an ordered sequence of flat records. Keys use delim to
// separate path segments.
type Source interface {
	Name() string
	Records(delim string) ([]Record, error)
}

type staticSource struct {
	name    string
	records []Record
}

// StaticSource returns a source serving records as given.
func StaticSource(name string, records ...Record) Source {
	return &staticSource{name: name, records: records}
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Records(string) ([]Record, error) {
	return append([]Record(nil), s.records...), nil
}

// FileSource reads one file of a supported format.
type FileSource struct {
	Path string

	// Format overrides detection when set
	Format string

	// Prefix is prepended to every key
	Prefix string

	// MaxFileSize rejects larger files when positive
	MaxFileSize int64
}

// Name implements Source.
func (s FileSource) Name() string { return s.Path }

// Records implements Source.
func (s FileSource) Records(delim string) ([]Record, error) {
	data, err := readFile(s.Path, s.MaxFileSize)
	if err != nil {
		return nil, err
	}

	// Determine format
	format := s.Format
	if format == "" || format == "auto" {
		// Try extension first
		format = detectFileFormat(s.Path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
	}

	records, err := ParseRecords(format, data, delim)
	if err != nil {
		return nil, fmt.Errorf("file '%s': %w", s.Path, err)
	}
	if s.Prefix != "" {
		for i := range records {
			records[i].Key = joinPath(s.Prefix, records[i].Key, delim)
		}
	}
	return records, nil
}

// readFile reads path, enforcing maxSize when positive.
func readFile(path string, maxSize int64) ([]byte, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat file '%s': %w", path, err)
	}

	// Security: File size check
	if maxSize > 0 && fileInfo.Size() > maxSize {
		return nil, fmt.Errorf("file '%s' exceeds maximum size %d bytes", path, maxSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", path, err)
	}
	defer file.Close()

	// Use LimitedReader for additional safety
	var reader io.Reader = file
	if maxSize > 0 {
		reader = io.LimitReader(file, maxSize)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}
	return data, nil
}

// DirSource reads a directory tree. A file "stem.ext" of a recognized
// extension contributes its keys under the prefix "stem"; files named
// "default.ext" contribute at the directory's own level. Subdirectories
// nest under their name. Entries are read in name order and hidden entries
// are skipped.
type DirSource struct {
	Root        string
	MaxFileSize int64
}

// defaultStem names files whose keys sit at the directory level.
const defaultStem = "default"

// Name implements Source.
func (s DirSource) Name() string { return s.Root }

// Records implements Source.
func (s DirSource) Records(delim string) ([]Record, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s.Root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", s.Root)
	}
	return s.walk(nil, s.Root, "", delim)
}

func (s DirSource) walk(records []Record, dir, prefix, delim string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory '%s': %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			records, err = s.walk(records, path, joinPath(prefix, name, delim), delim)
			if err != nil {
				return nil, err
			}
			continue
		}

		format := detectFileFormat(name)
		if format == "" {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		filePrefix := prefix
		if stem != defaultStem {
			filePrefix = joinPath(prefix, stem, delim)
		}

		fileRecords, err := FileSource{Path: path, Format: format, Prefix: filePrefix, MaxFileSize: s.MaxFileSize}.Records(delim)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

// EnvSource reads environment variables starting with Prefix. The prefix is
// stripped, underscores become delimiters and keys are lower-cased, so with
// prefix "APP_" the variable APP_DB_HOST becomes the key db/host.
type EnvSource struct {
	Prefix string
}

// Name implements Source.
func (s EnvSource) Name() string { return "env:" + s.Prefix }

// Records implements Source.
func (s EnvSource) Records(delim string) ([]Record, error) {
	if s.Prefix == "" {
		return nil, errors.New("environment source requires a prefix")
	}

	env := os.Environ()
	sort.Strings(env)

	var records []Record
	for _, kv := range env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, s.Prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, s.Prefix)
		if rest == "" {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(rest, "_", delim))
		records = append(records, Record{Key: key, Value: value})
	}
	return records, nil
}

// ArgsSource reads "--key=value", "--key value" and bare "--flag"
// arguments, the latter meaning "true". Other arguments are skipped.
type ArgsSource struct {
	Args []string
}

// Name implements Source.
func (s ArgsSource) Name() string { return "args:" + strings.Join(s.Args, " ") }

// Records implements Source.
func (s ArgsSource) Records(delim string) ([]Record, error) {
	return parseArgs(s.Args, delim)
}

// parseArgs processes command-line arguments into ordered records.
func parseArgs(args []string, delim string) ([]Record, error) {
	var records []Record
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			// Skip non-flag arguments
			i++
			continue
		}

		// Remove the leading "--"
		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// Skip "--" argument if used as a separator
			i++
			continue
		}

		var keyPath string
		var valueStr string

		// Check for "--key=value" format
		if k, v, ok := strings.Cut(argContent, "="); ok {
			keyPath = k
			valueStr = v
			i++
		} else {
			keyPath = argContent
			isBoolFlag := i+1 >= len(args) || strings.HasPrefix(args[i+1], "--")

			if isBoolFlag {
				// Assume boolean flag is true if no value follows
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		// Validate keyPath segments
		for _, segment := range Split(keyPath, delim) {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}

		records = append(records, Record{Key: keyPath, Value: valueStr})
	}

	return records, nil
}
