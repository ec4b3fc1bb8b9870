package main

import "github.com/cg-gdsc/gdsc8/cmd"

func main() {
	cmd.Execute()
}
