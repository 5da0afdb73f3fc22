// Package output provides output formatting for pcd-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables built from structs, slices and maps
//   - json.go: indented JSON
//   - yaml.go: YAML via gopkg.in/yaml.v3
//
// Table output is for people; json and yaml are for scripts.
package output
