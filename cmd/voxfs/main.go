package main

import "github.com/s22625/voxfs/internal/cli"

func main() {
	cli.Execute()
}
