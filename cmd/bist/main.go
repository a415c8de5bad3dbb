package main

import "github.com/OpenTraceLab/OpenTraceBIST/cmd/bist/cmd"

func main() {
	cmd.Execute()
}
