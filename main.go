package main

import "github.com/KaramelBytes/sensorcal-cli/cmd"

func main() {
	cmd.Execute()
}
