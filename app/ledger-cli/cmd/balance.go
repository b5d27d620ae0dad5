package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the sum of unspent outputs owned by a wallet",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}
	publicKey := signature.PublicKeyHex(privateKey)

	ldgr, closeFn, err := openChain()
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	outs, err := ldgr.GetUnspentOutputs(publicKey)
	if err != nil {
		log.Fatal(err)
	}

	var total uint64
	for _, out := range outs {
		total += out.Value
	}

	fmt.Println("account:", publicKey)
	fmt.Println("unspent outputs:", len(outs))
	fmt.Println("balance:", total)
}
