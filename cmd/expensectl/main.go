package main

import "github.com/mparreirinha/expensetrackerapp/cmd/expensectl/cmd"

func main() {
	cmd.Execute()
}
