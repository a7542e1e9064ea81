// Package configs embeds the configuration templates written by
// `coderag init`.
//
// The templates mirror the defaults in internal/config; editing a default
// there should be reflected here.
package configs

import _ "embed"

// ProjectConfigTemplate is written to .coderag.yaml in the project root.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// UserConfigTemplate is written to the user config path with --user.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
