// Package ledger defines the value objects of the UTXO ledger: outputs,
// inputs, transactions and blocks, plus the stored (dbBlock/dbTransaction)
// variants that are actually persisted.
package ledger

import (
	"encoding/json"

	"github.com/ardanlabs/ledger/foundation/blockchain/id"
)

// Output represents a single spendable value on the ledger.
type Output struct {
	Value uint64         `json:"value"`
	Nonce uint64         `json:"nonce"`
	Data  map[string]any `json:"data,omitempty"`
}

// ID returns the output's identifier: the hash of its canonical
// serialization.
func (o Output) ID() (id.ID, error) {
	return id.Hash(o)
}

// PublicKey returns the "publicKey" field from Data, if present.
func (o Output) PublicKey() (string, bool) {
	pk, ok := o.Data["publicKey"].(string)
	return pk, ok
}

// Contract returns the "contract" field from Data, if present.
func (o Output) Contract() (string, bool) {
	c, ok := o.Data["contract"].(string)
	return c, ok
}

// CanonicalSize returns the byte length of the JSON encoding of the output's
// Data document (value and nonce are not counted), used by the validator's
// size-fee calculation.
func (o Output) CanonicalSize() int {
	data, err := json.Marshal(o.Data)
	if err != nil {
		return 0
	}
	return len(data)
}

// =============================================================================

// Input represents the consumption of an existing Output.
type Input struct {
	OutputID id.ID          `json:"outputId"`
	Data     map[string]any `json:"data,omitempty"`
}

// ID returns the input's identifier: the hash of its canonical
// serialization.
func (i Input) ID() (id.ID, error) {
	return id.Hash(i)
}

// Signature returns the "signature" field from Data, if present.
func (i Input) Signature() (string, bool) {
	sig, ok := i.Data["signature"].(string)
	return sig, ok
}

// CanonicalSize returns the byte length of the JSON encoding of the input's
// Data document (the output id is not counted), used by the validator's
// size-fee calculation.
func (i Input) CanonicalSize() int {
	data, err := json.Marshal(i.Data)
	if err != nil {
		return 0
	}
	return len(data)
}

// =============================================================================

// Transaction moves value from a set of consumed Inputs to a set of newly
// created Outputs.
type Transaction struct {
	Inputs    []Input  `json:"inputs"`
	Outputs   []Output `json:"outputs"`
	Timestamp int64    `json:"timestamp"`
	Coinbase  bool     `json:"coinbase"`
}

// OutputIDs returns the identifiers of every output in transaction order.
func (t Transaction) OutputIDs() ([]id.ID, error) {
	ids := make([]id.ID, len(t.Outputs))
	for i, out := range t.Outputs {
		outID, err := out.ID()
		if err != nil {
			return nil, err
		}
		ids[i] = outID
	}
	return ids, nil
}

// OutputSetID returns the hash of the ordered sequence of the transaction's
// output ids. Input signatures are bound to this value so that altering any
// output invalidates every signature over the set.
func (t Transaction) OutputSetID() (id.ID, error) {
	outIDs, err := t.OutputIDs()
	if err != nil {
		return id.ID{}, err
	}
	return id.HashSequence(outIDs...)
}

// ID returns the transaction identifier, derived from its inputs, outputs,
// and timestamp.
func (t Transaction) ID() (id.ID, error) {
	return id.Hash(t)
}

// CanonicalSize returns the byte length of the transaction's canonical
// serialization, used by the mempool's byte accounting.
func (t Transaction) CanonicalSize() int {
	data, err := json.Marshal(t)
	if err != nil {
		return 0
	}
	return len(data)
}

// OutputTotal sums the value of every produced output.
func (t Transaction) OutputTotal() uint64 {
	var total uint64
	for _, out := range t.Outputs {
		total += out.Value
	}
	return total
}

// =============================================================================

// Block is a fully materialized block: a coinbase transaction, a set of
// regular transactions, and header fields.
type Block struct {
	Transactions  []Transaction  `json:"transactions"`
	Coinbase      Transaction    `json:"coinbase"`
	PreviousID    id.ID          `json:"previousId"`
	Timestamp     int64          `json:"timestamp"`
	ConsensusData map[string]any `json:"consensusData,omitempty"`
	Height        uint64         `json:"height"`
}

// ID returns the block identifier, derived from the set of transaction ids,
// the coinbase id, the previous id, the timestamp, and the consensus data.
func (b Block) ID() (id.ID, error) {
	txIDs, err := b.transactionIDs()
	if err != nil {
		return id.ID{}, err
	}

	coinbaseID, err := b.Coinbase.ID()
	if err != nil {
		return id.ID{}, err
	}

	doc := struct {
		TransactionIDs []id.ID        `json:"transactionIds"`
		CoinbaseID     id.ID          `json:"coinbaseId"`
		PreviousID     id.ID          `json:"previousId"`
		Timestamp      int64          `json:"timestamp"`
		ConsensusData  map[string]any `json:"consensusData,omitempty"`
	}{
		TransactionIDs: txIDs,
		CoinbaseID:     coinbaseID,
		PreviousID:     b.PreviousID,
		Timestamp:      b.Timestamp,
		ConsensusData:  b.ConsensusData,
	}

	return id.Hash(doc)
}

func (b Block) transactionIDs() ([]id.ID, error) {
	ids := make([]id.ID, len(b.Transactions))
	for i, tx := range b.Transactions {
		txID, err := tx.ID()
		if err != nil {
			return nil, err
		}
		ids[i] = txID
	}
	return ids, nil
}

// DBBlock returns the stored representation of this block: transaction
// bodies are replaced by their ids, to be rejoined against the transactions
// table at read time.
func (b Block) DBBlock() (DBBlock, error) {
	txIDs, err := b.transactionIDs()
	if err != nil {
		return DBBlock{}, err
	}

	coinbaseID, err := b.Coinbase.ID()
	if err != nil {
		return DBBlock{}, err
	}

	return DBBlock{
		TransactionIDs: txIDs,
		CoinbaseID:     coinbaseID,
		PreviousID:     b.PreviousID,
		Timestamp:      b.Timestamp,
		ConsensusData:  b.ConsensusData,
		Height:         b.Height,
	}, nil
}

// =============================================================================

// DBBlock is the record persisted in the blocks table: same as Block but
// referencing transactions by id rather than by value.
type DBBlock struct {
	TransactionIDs []id.ID        `json:"transactionIds"`
	CoinbaseID     id.ID          `json:"coinbaseId"`
	PreviousID     id.ID          `json:"previousId"`
	Timestamp      int64          `json:"timestamp"`
	ConsensusData  map[string]any `json:"consensusData,omitempty"`
	Height         uint64         `json:"height"`
}

// ID returns the block identifier this record represents.
func (b DBBlock) ID() (id.ID, error) {
	doc := struct {
		TransactionIDs []id.ID        `json:"transactionIds"`
		CoinbaseID     id.ID          `json:"coinbaseId"`
		PreviousID     id.ID          `json:"previousId"`
		Timestamp      int64          `json:"timestamp"`
		ConsensusData  map[string]any `json:"consensusData,omitempty"`
	}{
		TransactionIDs: b.TransactionIDs,
		CoinbaseID:     b.CoinbaseID,
		PreviousID:     b.PreviousID,
		Timestamp:      b.Timestamp,
		ConsensusData:  b.ConsensusData,
	}
	return id.Hash(doc)
}

// DBOutput is the record persisted in the utxos/stxos tables: an output plus
// the id of the transaction that created it.
type DBOutput struct {
	Output
	CreatingTxID id.ID `json:"creatingTxId"`
}

// DBInput is the record persisted in the inputs table: an input plus the id
// of the transaction that consumed it.
type DBInput struct {
	Input
	ConsumingTxID id.ID `json:"consumingTxId"`
}

// DBTransaction is the record persisted in the transactions table: a
// confirmed transaction plus the id of the block that confirmed it.
type DBTransaction struct {
	Transaction
	BlockID id.ID `json:"blockId"`
}
