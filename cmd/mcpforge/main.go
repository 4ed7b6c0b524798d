package main

import "github.com/karthikpt1/mcpforge/internal/cli"

func main() {
	cli.Execute()
}
