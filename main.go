package main

import "arb-profit-bot/internal/cli"

func main() {
	cli.Execute()
}
