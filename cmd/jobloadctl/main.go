// Package main is the entrypoint for jobloadctl.
package main

import "github.com/kiranshivaraju/jobloader/internal/cli"

func main() {
	cli.Execute()
}
