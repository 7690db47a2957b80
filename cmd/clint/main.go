package main

import "github.com/OpenCircuitLab/CircuitLint/cmd/clint/cmd"

func main() {
	cmd.Execute()
}
