package main

import "github.com/fxops/tradeshell/cmd"

func main() {
	cmd.Execute()
}
