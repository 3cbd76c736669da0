//go:build tools
// +build tools

// Pins code generators used via go:generate so that `go mod tidy` keeps them.

package tools

import (
	_ "github.com/maxbrunsfeld/counterfeiter/v6"
)
