package main

import "github.com/ExcuseMi/trmnl-tv-guide/cmd"

func main() {
	cmd.Execute()
}
