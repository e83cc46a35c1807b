package main

import "github.com/rowlate/rowlate/cmd"

func main() {
	cmd.Execute()
}
