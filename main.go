package main

import "github.com/nextlevelbuilder/clawface/cmd"

func main() {
	cmd.Execute()
}
