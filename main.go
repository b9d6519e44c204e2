package main

import "vehicle-intel/pkg/cli"

func main() {
	cli.Execute()
}
