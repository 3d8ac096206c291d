// Package interpreters collects the available core.Platforms.
package interpreters

import (
	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/interpreters/goja"
	"github.com/Comcast/nudge/interpreters/literal"
)

// Standard returns the standard Platforms by name.
func Standard() map[string]core.Platform {
	is := make(map[string]core.Platform, 4)

	g := goja.NewInterpreter()
	is["goja"] = g
	is["ecmascript"] = g
	is["ecmascript-5.1"] = g

	is["literal"] = literal.NewInterpreter()

	return is
}

// DefaultName is the name of the Platform to use by default.
var DefaultName = "goja"
