// This program provides a command line tool for driving the node's mining
// and performance model endpoints.
package main

import "github.com/medledger/blockchain/app/tooling/bench/cmd"

func main() {
	cmd.Execute()
}
