package main

import "donghua-tracker/cmd"

func main() {
	cmd.Execute()
}
