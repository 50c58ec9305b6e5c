// Command hbs-render renders Handlebars templates from the command line using
// the same engine and helpers as the render worker.
//
// Usage:
//
//	hbs-render render -t greeting.hbs -d data.yaml
//	hbs-render check -t greeting.hbs
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
