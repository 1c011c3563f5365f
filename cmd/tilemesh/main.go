package main

import "github.com/arl/tilemesh/cmd/tilemesh/cmd"

func main() {
	cmd.Execute()
}
