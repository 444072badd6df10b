// The main package for the hasaki-crawler executable.
package main

import (
	"github.com/JakeFAU/hasaki-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
