package main

import "github.com/emberops/burnoutctl/cmd"

func main() {
	cmd.Execute()
}
