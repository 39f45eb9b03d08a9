package main

import "github.com/samsaffron/jarvis/cmd"

func main() {
	cmd.Execute()
}
