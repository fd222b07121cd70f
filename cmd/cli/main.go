// The CLI binary for operating the controller from a terminal.
package main

import (
	"os"

	"pipeflow/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
