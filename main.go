package main

import "github.com/iksnae/code-assistant/cmd"

func main() {
	cmd.Execute()
}
