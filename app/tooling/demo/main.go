// This program drives a running demo node from the command line.
package main

import "github.com/ardanlabs/blockdemo/app/tooling/demo/cmd"

func main() {
	cmd.Execute()
}
