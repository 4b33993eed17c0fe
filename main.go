package main

import "github.com/lucid-kv/lucid/cmd"

func main() {
	cmd.Execute()
}
