// Package main is the entry point for the gcodepp CLI.
package main

import "gcodepp.dev/pkg/gcodepp/cmd"

func main() {
	cmd.Execute()
}
