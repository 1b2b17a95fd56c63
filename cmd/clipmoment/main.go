package main

import "github.com/clipmoment/clipmoment/internal/cli"

func main() {
	cli.Main()
}
