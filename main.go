package main

import "github.com/sergev/wdfdc/cmd"

func main() {
	cmd.Execute()
}
