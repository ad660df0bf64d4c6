package main

import "github.com/sequor-org/sequor/cmd"

func main() {
	cmd.Execute()
}
