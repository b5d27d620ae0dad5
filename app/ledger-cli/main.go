// This program is the ledger-cli wallet/admin command line tool.
package main

import "github.com/ardanlabs/ledger/app/ledger-cli/cmd"

func main() {
	cmd.Execute()
}
