package main

import "adaptrag/internal/cli"

func main() {
	cli.Execute()
}
