package main

import "github.com/mcoot/glow/internal/cli"

func main() {
	cli.Execute()
}
