// FILE: lixenwraith/namespace/discovery.go
package namespace

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoveryOptions configures automatic root discovery
type DiscoveryOptions struct {
	// Name of the root: a file Name+ext or a directory Name
	Name string

	// Extensions probed in order before the directory form
	Extensions []string

	// Paths searched before the working and XDG directories
	Paths []string

	// EnvVar holding an explicit root location
	EnvVar string

	// CLIFlag holding an explicit root location (e.g. "--root")
	CLIFlag string

	// UseXDG adds the XDG config directories to the search
	UseXDG bool

	// UseCurrentDir adds the working directory to the search
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns discovery for appName: flag --root, variable
// APPNAME_ROOT, then appName.{properties,toml,yaml,yml,json,ini} or a
// directory appName in the working and XDG directories.
func DefaultDiscoveryOptions(appName string) DiscoveryOptions {
	return DiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".properties", ".toml", ".yaml", ".yml", ".json", ".ini"},
		EnvVar:        strings.ToUpper(appName) + "_ROOT",
		CLIFlag:       "--root",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// WithRootDiscovery locates the root and sets it as if by WithRoot.
// The CLI flag is read from the arguments given to WithArgs, so call WithArgs
// first when relying on it. Finding nothing leaves the root unset.
func (b *Builder) WithRootDiscovery(opts DiscoveryOptions) *Builder {
	if path := discoverRoot(opts, b.args); path != "" {
		b.root = path
	}
	return b
}

// discoverRoot resolves the root location: CLI flag, then environment
// variable, then the first search directory holding a matching entry.
func discoverRoot(opts DiscoveryOptions, args []string) string {
	if path := flagValue(opts.CLIFlag, args); path != "" {
		return path
	}
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path
		}
	}

	for _, dir := range searchDirs(opts) {
		if path := probeDir(dir, opts.Name, opts.Extensions); path != "" {
			return path
		}
	}
	return ""
}

// flagValue returns the value of "flag value" or "flag=value" in args.
func flagValue(flag string, args []string) string {
	if flag == "" {
		return ""
	}
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
		if value, ok := strings.CutPrefix(arg, flag+"="); ok {
			return value
		}
	}
	return ""
}

func searchDirs(opts DiscoveryOptions) []string {
	dirs := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if opts.UseXDG {
		dirs = append(dirs, getXDGConfigPaths(opts.Name)...)
	}
	return dirs
}

// probeDir returns dir/name+ext for the first extension naming a regular
// file, else dir/name if it is a directory.
func probeDir(dir, name string, extensions []string) string {
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	path := filepath.Join(dir, name)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return ""
}

// getXDGConfigPaths returns XDG-compliant search directories for appName
func getXDGConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
