package main

import "github.com/eznet/eznet/cmd"

// execCmd is indirected so tests can intercept the entry point.
var execCmd = cmd.Execute

func main() {
	execCmd()
}
