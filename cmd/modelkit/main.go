package main

import "github.com/burugo/modelkit/internal/command"

func main() {
	command.Main()
}
