package main

import "github.com/wentf9/vmguests/cmd"

func main() {
	cmd.Execute()
}
