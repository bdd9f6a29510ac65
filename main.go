package main

import "github.com/smarttrip/tripcast/internal/cli"

func main() {
	cli.Execute()
}
