package main

import "github.com/catalogd/catalogd/cmd"

func main() {
	cmd.Execute()
}
