package main

import "QuorumKV/cmd"

func main() {
	cmd.Execute()
}
