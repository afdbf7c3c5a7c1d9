package main

import "aaronromeo.com/triager/internal/cli"

func main() {
	cli.Execute()
}
