package witness

import (
	"github.com/holiman/uint256"

	"github.com/0xPolygon/evm-circuit/crypto"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/types"
)

var (
	ecrecoverAddress = types.StringToAddress("0x0000000000000000000000000000000000000001")
	identityAddress  = types.StringToAddress("0x0000000000000000000000000000000000000004")
)

func isPrecompile(addr types.Address) bool {
	return addr == ecrecoverAddress || addr == identityAddress
}

// runPrecompile executes a precompiled contract as a one-step call
func (c *state) runPrecompile(pc *precompileCall) {
	call := &Call{
		ID:            c.rec.rwc,
		CallerAddress: c.call.Address,
		Address:       pc.address,
		Depth:         c.call.Depth + 1,
		IsSuccess:     true,
		IsPersistent:  c.call.IsPersistent,
	}
	c.tx.Calls = append(c.tx.Calls, call)

	s := &ExecStep{
		CallIndex:    len(c.tx.Calls) - 1,
		RwCounter:    c.rec.rwc,
		StackPointer: stackLimit,
		GasLeft:      c.gas,
		LogID:        c.logID,
	}
	c.tx.Steps = append(c.tx.Steps, s)

	switch pc.address {
	case ecrecoverAddress:
		s.ExecutionState = step.PrecompileEcrecover
		s.GasCost = GasEcrecover
		s.SigEvent = ecrecover(pc.input)
	case identityAddress:
		s.ExecutionState = step.PrecompileIdentity
		s.GasCost = GasIdentityBase + 3*((uint64(len(pc.input))+31)/32)
	}

	for _, tag := range s.ExecutionState.Layout().ContextReads {
		var v uint256.Int

		switch tag {
		case table.CallContextCallDataLength, table.CallContextReturnDataLength:
			v.SetUint64(uint64(len(pc.input)))
		case table.CallContextIsSuccess:
			v.SetOne()
		}

		c.rec.push(s, Rw{Tag: table.RwCallContext, ID: call.ID, FieldTag: uint64(tag), Value: v})
	}

	call.RwCounterEndOfReversion = c.rec.rwc - 1
	c.lastCallee = call.ID

	if s.GasCost > c.gas {
		s.GasCost = c.gas
	}

	c.gas -= s.GasCost

	c.logger.Trace("step", "tx", c.tx.ID, "step", s.String())
}

// ecrecover recovers the signer of a 128 byte input laid out as
// hash || v || r || s
func ecrecover(input []byte) *SigEvent {
	in := slice(input, 0, 128)

	var v uint256.Int

	ev := &SigEvent{}
	ev.MsgHash.SetBytes32(in[0:32])
	v.SetBytes32(in[32:64])
	ev.R.SetBytes32(in[64:96])
	ev.S.SetBytes32(in[96:128])

	if !v.Eq(uint256.NewInt(27)) && !v.Eq(uint256.NewInt(28)) {
		return ev
	}

	ev.V = v.Uint64() - 27

	if !crypto.ValidateSignatureValues(byte(ev.V), ev.R.ToBig(), ev.S.ToBig()) {
		return ev
	}

	sig := make([]byte, 0, 65)
	sig = append(sig, in[64:128]...)
	sig = append(sig, byte(ev.V))

	addr, err := crypto.Ecrecover(in[0:32], sig)
	if err != nil {
		return ev
	}

	ev.Recovered = addr
	ev.IsValid = true

	return ev
}
