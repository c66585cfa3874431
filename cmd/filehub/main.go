package main

import "filehub/internal/cli"

func main() {
	cli.Execute()
}
