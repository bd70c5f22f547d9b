package main

import "PianoInstructor/cmd"

func main() {
	cmd.Execute()
}
