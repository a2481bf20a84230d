package main

import "github.com/harborquant/xvenue-arb/cmd"

func main() {
	cmd.Execute()
}
