package main

import "github.com/jfmyers9/wildchain/cmd"

func main() {
	cmd.Execute()
}
