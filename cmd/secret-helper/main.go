package main

import "github.com/alapierre/secret-helper/internal/cli"

func main() {
	cli.Main()
}
