// Command plastron is a batch client for an LDP/Fedora 4 repository.
package main

import (
	"github.com/umd-lib/plastron-go/cmd/plastron/cmd"
)

func main() {
	cmd.Execute()
}
