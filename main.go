package main

import "gold-market-alerts/internal/cli"

func main() {
	cli.Execute()
}
