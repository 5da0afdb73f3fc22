// Package confloader loads pcd-server configuration with koanf and watches
// the configuration file with fsnotify.
//
// Sources are layered over the defaults already held by the target struct.
// From lowest to highest priority they are the YAML file, PCD_ environment
// variables and explicit overrides such as -set flags.
//
// Environment variable names are resolved against the known keys, so
// PCD_SERVER_HTTP_MAX_BODY_BYTES sets server.http.max_body_bytes.
package confloader
