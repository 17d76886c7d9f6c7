// The main package for the sha256-digest executable.
package main

import (
	"github.com/JakeFAU/sha256-digest/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
