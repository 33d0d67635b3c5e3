package main

import (
	"github.com/ragline/ragline/internal/cli"
)

func main() {
	cli.Execute()
}
