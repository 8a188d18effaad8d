// Command logicprobe drives Logic App workflows from acceptance tests.
//
// It checks that a workflow is enabled, fires a trigger, waits for the run
// to finish and reports action statuses. See "logicprobe --help".
package main

import "logicprobe/internal/cli"

func main() {
	cli.Execute()
}
