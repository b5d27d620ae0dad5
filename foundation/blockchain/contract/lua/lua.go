// Package lua implements a contract.Runner backed by embedded Lua scripts,
// grounded on bitmarkd's configuration.ParseConfigurationFile: a fresh
// gopher-lua state per invocation, executing trusted source and mapping its
// result table back into Go via gluamapper.
package lua

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/kv"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/yuin/gluamapper"
	glua "github.com/yuin/gopher-lua"
)

// Runner evaluates, per spent output, the script named in that output's
// data.contract field. An output without a contract field imposes no
// script obligation, per §4.4's "if data.contract is not set" signature
// carve-out.
type Runner struct{}

// New constructs a Runner.
func New() *Runner {
	return &Runner{}
}

// Run evaluates every contract script attached to an output consumed by
// transaction, stopping at the first one that declines.
func (r *Runner) Run(storeTx kv.StoreTx, transaction ledger.Transaction) (bool, error) {
	for _, in := range transaction.Inputs {
		data, found, err := storeTx.Get(kv.UTXOs, in.OutputID.String())
		if err != nil {
			return false, fmt.Errorf("contract/lua: get output: %w", err)
		}
		if !found {
			// Unresolved inputs are rejected earlier, at the validator's own
			// resolution step; nothing to enforce here.
			continue
		}

		var out ledger.DBOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return false, fmt.Errorf("contract/lua: decode output: %w", err)
		}

		script, ok := out.Contract()
		if !ok {
			continue
		}

		accept, err := r.runScript(script, out.Output, in, transaction)
		if err != nil {
			return false, err
		}
		if !accept {
			return false, nil
		}
	}

	return true, nil
}

// runScript executes script in a fresh interpreter state, exposing the
// spent output, the consuming input, and the consuming transaction under
// the ctx global, then maps the script's result global into a verdict.
func (r *Runner) runScript(script string, out ledger.Output, in ledger.Input, transaction ledger.Transaction) (bool, error) {
	L := glua.NewState()
	defer L.Close()
	L.OpenLibs()

	ctx := &glua.LTable{}
	ctx.RawSetString("outputValue", glua.LNumber(out.Value))
	ctx.RawSetString("outputData", toLuaTable(out.Data))
	ctx.RawSetString("inputData", toLuaTable(in.Data))
	ctx.RawSetString("outputCount", glua.LNumber(len(transaction.Outputs)))
	L.SetGlobal("ctx", ctx)

	if err := L.DoString(script); err != nil {
		return false, fmt.Errorf("contract/lua: run: %w", err)
	}

	resultValue := L.GetGlobal("result")
	resultTable, ok := resultValue.(*glua.LTable)
	if !ok {
		return false, errors.New("contract/lua: script did not set a result table")
	}

	var verdict struct {
		Accept bool `gluamapper:"accept"`
	}

	mapper := gluamapper.Mapper{Option: gluamapper.Option{
		NameFunc: func(s string) string { return s },
		TagName:  "gluamapper",
	}}
	if err := mapper.Map(resultTable, &verdict); err != nil {
		return false, fmt.Errorf("contract/lua: map result: %w", err)
	}

	return verdict.Accept, nil
}

func toLuaTable(data map[string]any) *glua.LTable {
	t := &glua.LTable{}
	for k, v := range data {
		t.RawSetString(k, toLuaValue(v))
	}
	return t
}

func toLuaValue(v any) glua.LValue {
	switch val := v.(type) {
	case string:
		return glua.LString(val)
	case float64:
		return glua.LNumber(val)
	case bool:
		return glua.LBool(val)
	case map[string]any:
		return toLuaTable(val)
	case []any:
		arr := &glua.LTable{}
		for i, item := range val {
			arr.RawSetInt(i+1, toLuaValue(item))
		}
		return arr
	default:
		return glua.LNil
	}
}
