package main

import "github.com/penguware/crackgpt/cmd"

func main() {
	cmd.Execute()
}
