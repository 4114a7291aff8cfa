package main

import "github/chapool/waves-ledger/cmd"

func main() {
	cmd.Execute()
}
