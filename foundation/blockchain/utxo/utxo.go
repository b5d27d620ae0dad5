// Package utxo maintains the spendable set, spent set, and per-owner
// indexes over the ledger's outputs, grounded on the teacher's
// accounts.Accounts (only its New constructor is carried over, generalized
// from account balances to individually tracked outputs).
package utxo

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/apperr"
	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// Index implements the UTXO/STXO index. It carries no state of its own: all
// state lives in the store transaction supplied by the Chain manager, which
// owns the single writer lock, a plain non-re-entrant mutex (§5).
type Index struct{}

// New constructs an Index.
func New() *Index {
	return &Index{}
}

// GetOutput searches utxos then stxos for id, failing NotFound otherwise.
func (x *Index) GetOutput(tx kv.StoreTx, outID id.ID) (ledger.DBOutput, error) {
	if out, ok, err := x.lookup(tx, kv.UTXOs, outID); err != nil {
		return ledger.DBOutput{}, err
	} else if ok {
		return out, nil
	}

	if out, ok, err := x.lookup(tx, kv.STXOs, outID); err != nil {
		return ledger.DBOutput{}, err
	} else if ok {
		return out, nil
	}

	return ledger.DBOutput{}, apperr.NotFound("output", outID.String())
}

func (x *Index) lookup(tx kv.StoreTx, table kv.Table, outID id.ID) (ledger.DBOutput, bool, error) {
	data, found, err := tx.Get(table, outID.String())
	if err != nil {
		return ledger.DBOutput{}, false, fmt.Errorf("utxo: get %s: %w", table, err)
	}
	if !found {
		return ledger.DBOutput{}, false, nil
	}

	var out ledger.DBOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ledger.DBOutput{}, false, fmt.Errorf("utxo: decode %s: %w", table, err)
	}
	return out, true, nil
}

// UnspentByOwner returns every currently unspent output whose data carries
// the given public key.
func (x *Index) UnspentByOwner(tx kv.StoreTx, publicKey string) ([]ledger.DBOutput, error) {
	return x.listByOwner(tx, kv.UTXOs, publicKey)
}

// SpentByOwner returns every spent output whose data carries the given
// public key.
func (x *Index) SpentByOwner(tx kv.StoreTx, publicKey string) ([]ledger.DBOutput, error) {
	return x.listByOwner(tx, kv.STXOs, publicKey)
}

func (x *Index) listByOwner(tx kv.StoreTx, table kv.Table, publicKey string) ([]ledger.DBOutput, error) {
	ids, err := tx.IndexList(table, kv.OwnerIndex, publicKey)
	if err != nil {
		return nil, fmt.Errorf("utxo: index list %s: %w", table, err)
	}

	outs := make([]ledger.DBOutput, 0, len(ids))
	for _, s := range ids {
		var outID id.ID
		if err := outID.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("utxo: decode owner index entry: %w", err)
		}

		out, ok, err := x.lookup(tx, table, outID)
		if err != nil {
			return nil, err
		}
		if ok {
			outs = append(outs, out)
		}
	}
	return outs, nil
}

// CreateOutput inserts out, produced by txID, into utxos and appends it to
// its owner's secondary list, if it carries a public key.
func (x *Index) CreateOutput(tx kv.StoreTx, out ledger.Output, txID id.ID) error {
	outID, err := out.ID()
	if err != nil {
		return fmt.Errorf("utxo: output id: %w", err)
	}

	dbOut := ledger.DBOutput{Output: out, CreatingTxID: txID}
	data, err := json.Marshal(dbOut)
	if err != nil {
		return fmt.Errorf("utxo: encode output: %w", err)
	}

	if err := tx.Put(kv.UTXOs, outID.String(), data); err != nil {
		return fmt.Errorf("utxo: put output: %w", err)
	}

	if pk, ok := out.PublicKey(); ok {
		if err := tx.IndexAppend(kv.UTXOs, kv.OwnerIndex, pk, outID.String()); err != nil {
			return fmt.Errorf("utxo: index output: %w", err)
		}
	}

	return nil
}

// RevertOutput is the inverse of CreateOutput: it erases outID from utxos
// and from its owner's secondary list.
func (x *Index) RevertOutput(tx kv.StoreTx, outID id.ID) error {
	out, ok, err := x.lookup(tx, kv.UTXOs, outID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("output", outID.String())
	}

	if err := tx.Erase(kv.UTXOs, outID.String()); err != nil {
		return fmt.Errorf("utxo: erase output: %w", err)
	}

	if pk, ok := out.PublicKey(); ok {
		if err := tx.IndexRemove(kv.UTXOs, kv.OwnerIndex, pk, outID.String()); err != nil {
			return fmt.Errorf("utxo: unindex output: %w", err)
		}
	}

	return nil
}

// SpendOutput moves outID from utxos to stxos, fixes the per-owner indexes,
// and writes the input consumption record into inputs.
func (x *Index) SpendOutput(tx kv.StoreTx, outID id.ID, in ledger.Input, consumingTxID id.ID) error {
	out, ok, err := x.lookup(tx, kv.UTXOs, outID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("output", outID.String())
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("utxo: encode output: %w", err)
	}

	if err := tx.Erase(kv.UTXOs, outID.String()); err != nil {
		return fmt.Errorf("utxo: erase utxo: %w", err)
	}
	if err := tx.Put(kv.STXOs, outID.String(), data); err != nil {
		return fmt.Errorf("utxo: put stxo: %w", err)
	}

	if pk, ok := out.PublicKey(); ok {
		if err := tx.IndexRemove(kv.UTXOs, kv.OwnerIndex, pk, outID.String()); err != nil {
			return fmt.Errorf("utxo: unindex utxo: %w", err)
		}
		if err := tx.IndexAppend(kv.STXOs, kv.OwnerIndex, pk, outID.String()); err != nil {
			return fmt.Errorf("utxo: index stxo: %w", err)
		}
	}

	inID, err := in.ID()
	if err != nil {
		return fmt.Errorf("utxo: input id: %w", err)
	}

	dbIn := ledger.DBInput{Input: in, ConsumingTxID: consumingTxID}
	inData, err := json.Marshal(dbIn)
	if err != nil {
		return fmt.Errorf("utxo: encode input: %w", err)
	}
	if err := tx.Put(kv.Inputs, inID.String(), inData); err != nil {
		return fmt.Errorf("utxo: put input: %w", err)
	}

	return nil
}

// RevertSpend is the inverse of SpendOutput: it moves outID back from stxos
// to utxos, fixes the per-owner indexes, and erases its input record.
func (x *Index) RevertSpend(tx kv.StoreTx, outID id.ID, inputID id.ID) error {
	out, ok, err := x.lookup(tx, kv.STXOs, outID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("output", outID.String())
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("utxo: encode output: %w", err)
	}

	if err := tx.Erase(kv.STXOs, outID.String()); err != nil {
		return fmt.Errorf("utxo: erase stxo: %w", err)
	}
	if err := tx.Put(kv.UTXOs, outID.String(), data); err != nil {
		return fmt.Errorf("utxo: put utxo: %w", err)
	}

	if pk, ok := out.PublicKey(); ok {
		if err := tx.IndexRemove(kv.STXOs, kv.OwnerIndex, pk, outID.String()); err != nil {
			return fmt.Errorf("utxo: unindex stxo: %w", err)
		}
		if err := tx.IndexAppend(kv.UTXOs, kv.OwnerIndex, pk, outID.String()); err != nil {
			return fmt.Errorf("utxo: index utxo: %w", err)
		}
	}

	if err := tx.Erase(kv.Inputs, inputID.String()); err != nil {
		return fmt.Errorf("utxo: erase input record: %w", err)
	}

	return nil
}
