package main

import "github.com/jacentio/dine/cmd/featurectl/cmd"

func main() {
	cmd.Execute()
}
