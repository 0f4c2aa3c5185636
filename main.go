package main

import "github.com/wytlabs/cardops/cmd"

func main() {
	cmd.Execute()
}
