// Package configs provides the embedded configuration template for semloc.
//
// The template is embedded at build time so `semloc config init` can
// write a commented starter file without shipping extra assets.
package configs

import _ "embed"

//go:embed semloc.example.yaml
var ExampleConfig string
