package ledger

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
)

// idLeaf adapts id.ID to merkle.Hashable, so a block's transaction set can
// be committed to by a merkle tree instead of the flat id list Block.ID hashes, giving a
// light client the standard logarithmic-size inclusion proof the flat form
// can't offer.
type idLeaf struct {
	v id.ID
}

func (l idLeaf) Hash() ([]byte, error) {
	b := []byte(l.v.String())
	return b, nil
}

func (l idLeaf) Equals(other idLeaf) bool {
	return l.v.Equal(other.v)
}

// MerkleRoot builds a merkle tree over the block's coinbase id followed by
// its regular transaction ids, in order, and returns the tree's root as an
// id.ID. Unlike Block.ID, which only needs collision resistance, this root
// is meant to support Proof/VerifyData-style inclusion proofs against the
// same leaf set.
func (b Block) MerkleRoot() (id.ID, error) {
	txIDs, err := b.transactionIDs()
	if err != nil {
		return id.ID{}, err
	}

	coinbaseID, err := b.Coinbase.ID()
	if err != nil {
		return id.ID{}, err
	}

	leaves := make([]idLeaf, 0, len(txIDs)+1)
	leaves = append(leaves, idLeaf{v: coinbaseID})
	for _, txID := range txIDs {
		leaves = append(leaves, idLeaf{v: txID})
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return id.ID{}, fmt.Errorf("ledger: build merkle tree: %w", err)
	}

	var root id.ID
	if err := root.UnmarshalText([]byte(tree.RootHex())); err != nil {
		return id.ID{}, fmt.Errorf("ledger: decode merkle root: %w", err)
	}

	return root, nil
}
