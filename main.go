package main

import "github.com/notargets/gotransport/cmd"

func main() {
	cmd.Execute()
}
