package main

import "github.com/Daskott/dispatch/cmd"

func main() {
	cmd.Execute()
}
