package main

import "item-appraiser/internal/cli"

func main() {
	cli.Execute()
}
