package cmd

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	sendTo    string
	sendValue uint64
	sendFee   uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build, sign, and submit a transaction paying to's public key",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Recipient public key, hex-encoded.")
	sendCmd.Flags().Uint64VarP(&sendValue, "value", "v", 0, "Amount to send.")
	sendCmd.Flags().Uint64VarP(&sendFee, "fee", "f", 0, "Fee left to the block producer, deducted from the change output.")
}

func sendRun(cmd *cobra.Command, args []string) {
	if sendTo == "" || sendValue == 0 {
		log.Fatal("send: --to and --value are required")
	}

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

	unspent, err := ldgr.GetUnspentOutputs(publicKey)
	if err != nil {
		log.Fatal(err)
	}

	sort.Slice(unspent, func(i, j int) bool { return unspent[i].Value > unspent[j].Value })

	var inputs []ledger.Input
	var inputTotal uint64
	for _, out := range unspent {
		outID, err := out.ID()
		if err != nil {
			log.Fatal(err)
		}
		inputs = append(inputs, ledger.Input{OutputID: outID})
		inputTotal += out.Value

		if inputTotal >= sendValue+sendFee {
			break
		}
	}
	if inputTotal < sendValue+sendFee {
		log.Fatalf("send: insufficient balance: have %d, need %d", inputTotal, sendValue+sendFee)
	}

	outputs := []ledger.Output{
		{Value: sendValue, Data: map[string]any{"publicKey": sendTo}},
	}
	if change := inputTotal - sendValue - sendFee; change > 0 {
		outputs = append(outputs, ledger.Output{Value: change, Data: map[string]any{"publicKey": publicKey}})
	}

	transaction := ledger.Transaction{
		Inputs:    inputs,
		Outputs:   outputs,
		Timestamp: time.Now().UTC().UnixMilli(),
	}

	outputSetID, err := transaction.OutputSetID()
	if err != nil {
		log.Fatal(err)
	}

	for i, in := range transaction.Inputs {
		sig, err := signature.Sign(signature.Message(in.OutputID, outputSetID), privateKey)
		if err != nil {
			log.Fatal(err)
		}
		transaction.Inputs[i].Data = map[string]any{"signature": sig}
	}

	ok, permanent := ldgr.SubmitTransaction(transaction)
	if !ok {
		log.Fatalf("send: rejected: permanent=%v", permanent)
	}

	txID, _ := transaction.ID()
	fmt.Println("submitted:", txID.String())
}
