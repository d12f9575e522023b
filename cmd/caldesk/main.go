package main

import "caldesk/internal/cli"

func main() {
	cli.Execute()
}
