package witness

import (
	"io"

	"github.com/hashicorp/go-hclog"
	jsoniter "github.com/json-iterator/go"

	"github.com/0xPolygon/evm-circuit/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BlockSpec is the input of the block builder: a block context, the
// accounts touched by the block and its transactions
type BlockSpec struct {
	Context  BlockContext              `json:"context"`
	Accounts map[types.Address]Account `json:"accounts"`
	Txs      []TxSpec                  `json:"txs"`
}

// Builder returns a block builder loaded with the spec
func (s *BlockSpec) Builder(logger hclog.Logger) *BlockBuilder {
	b := NewBlockBuilder(s.Context, logger)

	for addr, acc := range s.Accounts {
		b.SetAccount(addr, acc)
	}

	for _, tx := range s.Txs {
		b.AddTx(tx)
	}

	return b
}

// ReadBlockSpec decodes a block spec
func ReadBlockSpec(r io.Reader) (*BlockSpec, error) {
	var spec BlockSpec
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

// ReadTrace decodes a recorded block witness
func ReadTrace(r io.Reader) (*Block, error) {
	var b Block
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, err
	}

	if b.Rws == nil {
		b.Rws = make(RwMap)
	}

	return &b, nil
}

// WriteTrace encodes a block witness
func WriteTrace(w io.Writer, b *Block) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(b)
}
