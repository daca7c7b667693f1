package main

import "github.com/user0608/cropimage/internal/cli"

func main() {
	cli.Execute()
}
