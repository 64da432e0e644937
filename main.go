package main

import "parkwise/cmd"

func main() {
	cmd.Execute()
}
