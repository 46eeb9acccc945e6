// Package main is the entry point for the cpplumber CLI tool.
package main

import "github.com/ergrelet/cpplumber/internal/cli"

func main() {
	cli.Main()
}
