// Package config defines the packaging configuration and provides helpers to
// locate, load, validate and save it.
//
// Files ending in .json or .jsonc are parsed as JSON with comments; every
// other file is parsed as YAML. Relative paths inside a loaded file are
// resolved against the directory that contains it.
package config
