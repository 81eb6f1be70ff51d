package main

import "github.com/sweeparena/sweeparena/internal/cli"

func main() {
	cli.Execute()
}
