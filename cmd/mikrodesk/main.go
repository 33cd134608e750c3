package main

import "mikrodesk/internal/cli"

func main() {
	cli.Execute()
}
