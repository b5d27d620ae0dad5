// Package validator implements the stateless-ish transaction validation
// pipeline run under a caller-supplied store transaction.
package validator

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// sizeFeeRate is the per-byte fee rate named in §4.4 step 6: 100 per byte of
// canonical-serialized input and output data.
const sizeFeeRate = 100

// Validator runs verifyTransaction against a caller-supplied store
// transaction.
type Validator struct {
	consensus consensus.Adapter
	contract  contract.Runner
}

// New constructs a Validator bound to the given consensus adapter and
// contract runner.
func New(consensusAdapter consensus.Adapter, contractRunner contract.Runner) *Validator {
	return &Validator{consensus: consensusAdapter, contract: contractRunner}
}

// VerifyTransaction runs the ordered validation checks named in §4.4 and
// returns the (ok, permanent) verdict.
//
//   - ok=false, permanent=false: reject silently, may be transient or duplicate.
//   - ok=false, permanent=true: malformed or rule-violating.
//   - ok=true, permanent=false: valid.
func (v *Validator) VerifyTransaction(tx kv.StoreTx, transaction ledger.Transaction, isCoinbase bool) (ok bool, permanent bool) {
	txID, err := transaction.ID()
	if err != nil {
		return false, true
	}

	// Step 1: already confirmed.
	if _, found, err := tx.Get(kv.Transactions, txID.String()); err != nil {
		return false, false
	} else if found {
		return false, false
	}

	// Step 2 & 3: no produced output may already exist; sum outputTotal.
	var outputTotal uint64
	for _, out := range transaction.Outputs {
		outID, err := out.ID()
		if err != nil {
			return false, true
		}

		if _, found, err := tx.Get(kv.UTXOs, outID.String()); err != nil {
			return false, false
		} else if found {
			return false, false
		}
		if _, found, err := tx.Get(kv.STXOs, outID.String()); err != nil {
			return false, false
		} else if found {
			return false, false
		}

		outputTotal += out.Value
	}

	// Step 4: output-set id, committed to by every spending signature.
	outputSetID, err := transaction.OutputSetID()
	if err != nil {
		return false, true
	}

	// Step 5: resolve each input, verify signature if applicable.
	var inputTotal uint64
	for _, in := range transaction.Inputs {
		data, found, err := tx.Get(kv.UTXOs, in.OutputID.String())
		if err != nil || !found {
			return false, false
		}

		var out ledger.DBOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return false, true
		}

		inputTotal += out.Value

		pk, hasPK := out.PublicKey()
		_, hasContract := out.Contract()
		if hasPK && !hasContract {
			sig, ok := in.Signature()
			if !ok {
				return false, true
			}

			message := signature.Message(in.OutputID, outputSetID)
			if err := signature.Verify(message, sig, pk); err != nil {
				return false, true
			}
		}
	}

	// Step 6: conservation and fee floor for non-coinbase transactions.
	if !isCoinbase {
		if outputTotal > inputTotal {
			return false, true
		}

		fee := inputTotal - outputTotal
		if fee < sizeFee(transaction)/2 {
			return false, true
		}
	}

	// Step 7: contract evaluator.
	if v.contract != nil {
		ok, err := v.contract.Run(tx, transaction)
		if err != nil || !ok {
			return false, true
		}
	}

	// Step 8: consensus adapter.
	if v.consensus != nil && !v.consensus.VerifyTransaction(tx, transaction) {
		return false, true
	}

	return true, false
}

// CalculateTransactionFee returns inputTotal - outputTotal for a
// transaction whose inputs are already known to resolve (i.e. it has
// already passed VerifyTransaction against the same store transaction).
func (v *Validator) CalculateTransactionFee(tx kv.StoreTx, transaction ledger.Transaction) (uint64, error) {
	var inputTotal uint64
	for _, in := range transaction.Inputs {
		data, found, err := tx.Get(kv.UTXOs, in.OutputID.String())
		if err != nil {
			return 0, fmt.Errorf("validator: get input output: %w", err)
		}
		if !found {
			return 0, fmt.Errorf("validator: input output %s not resolvable", in.OutputID)
		}

		var out ledger.DBOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return 0, fmt.Errorf("validator: decode input output: %w", err)
		}
		inputTotal += out.Value
	}

	outputTotal := transaction.OutputTotal()
	if outputTotal > inputTotal {
		return 0, fmt.Errorf("validator: outputs exceed inputs")
	}

	return inputTotal - outputTotal, nil
}

// sizeFee implements §4.4's size-fee(tx) = 100 × Σ size(input.data) + 100 ×
// Σ size(output.data).
func sizeFee(transaction ledger.Transaction) uint64 {
	var total uint64
	for _, in := range transaction.Inputs {
		total += uint64(in.CanonicalSize()) * sizeFeeRate
	}
	for _, out := range transaction.Outputs {
		total += uint64(out.CanonicalSize()) * sizeFeeRate
	}
	return total
}
