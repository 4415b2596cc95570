package main

import "github.com/diogo/cleansight/internal/commands"

func main() {
	commands.Execute()
}
