package main

import "github.com/Alturino/sneakerzone/cmd"

func main() {
	cmd.Start()
}
