package main

import "github.com/jake-scott/switchbot-devctl/cmd"

func main() {
	cmd.Execute()
}
