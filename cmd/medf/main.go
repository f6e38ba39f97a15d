package main

import (
	"os"

	"github.com/teranos/medf/cmd/medf/commands"
)

func main() {
	os.Exit(commands.Main(os.Args[1:], os.Stdout, os.Stderr))
}
