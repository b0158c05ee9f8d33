// FILE: lixenwraith/namespace/doc.go

// Package namespace builds a hierarchical, typed namespace from flat
// delimiter-encoded key/value records read from one or more sources.
//
// Features:
//   - Path lookup through nested nodes to a typed leaf or a subtree
//   - Attribute suffixes next to a key: type, format, converter, factory
//   - Multi-valued keys aggregated into ordered sequences
//   - Built-in coercion for strings, booleans, sized numerics, characters and dates
//   - Enumerations, single-string constructors and multi-property beans via a Registry
//   - Sources for properties, INI, TOML, YAML and JSON files, directory trees,
//     environment variables and command-line arguments
//   - All-or-nothing loads with configurable overwrite or strict merge policy
//   - A shared cache so equal configurations are built once per process
//
// Quick Start:
//
//	// db.properties
//	//   host=localhost
//	//   port=5432
//	//   port/type=int
//	//   timeout=5s
//	//   timeout/type=duration
//
//	root, err := namespace.NewBuilder().
//	    WithRoot("db.properties").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := root.String("host")
//	port, _ := root.Int64("port")
//
// Attributes:
//
// A key whose last segment is an attribute name describes its base key
// rather than creating a child. "port/type=int" makes "port" an int,
// "start/format=dd.MM.yyyy" selects a date pattern, and "pool/converter=x"
// hands "pool" together with every key beneath it to the converter
// registered as "x".
//
// Precedence (highest to lowest) when using the Builder:
//  1. Command-line arguments (--server/port=9090)
//  2. Environment variables (MYAPP_SERVER_PORT=9090)
//  3. Sources added with WithSources, later ones first
//  4. The root file or directory
//
// Thread Safety:
// All operations are thread-safe. Every node of a tree shares one read-write
// mutex, so lookups run concurrently and a merge is applied atomically.
package namespace
