package main

import "github.com/analuiza2102/bioaccess/cmd/bioaccess/cmd"

func main() {
	cmd.Execute()
}
