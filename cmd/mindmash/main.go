package main

import "github.com/mindmash-ai/mindmash/cmd/mindmash/cmd"

func main() {
	cmd.Execute()
}
