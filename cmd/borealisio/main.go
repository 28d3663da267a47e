package main

import "github.com/superdarn/borealisio/cmd/borealisio/cmd"

func main() {
	cmd.Execute()
}
