package main

import (
	"github.com/0xPolygon/evm-circuit/command/root"
)

func main() {
	root.NewRootCommand().Execute()
}
