package main

import "github.com/comunikime/jarvis/cmd"

func main() {
	cmd.Execute()
}
