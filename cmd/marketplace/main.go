package main

import "github.com/jmcleod/marketplace/cmd/marketplace/cmd"

func main() {
	cmd.Execute()
}
