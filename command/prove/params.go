package prove

import (
	"errors"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
)

const (
	traceFlag      = "trace"
	specFlag       = "spec"
	writeTraceFlag = "write-trace"
)

var (
	params = &proveParams{}

	errTraceAndSpec = errors.New("only one of --trace and --spec can be set")
)

type proveParams struct {
	configPath string
	logLevel   string

	tracePath      string
	specPath       string
	writeTracePath string
}

func (p *proveParams) validateFlags() error {
	if p.tracePath != "" && p.specPath != "" {
		return errTraceAndSpec
	}

	return nil
}

// loadBlock reads a recorded trace, or builds the block of a spec file, or
// builds the demo block when neither is given
func (p *proveParams) loadBlock(logger hclog.Logger) (*witness.Block, error) {
	if p.tracePath != "" {
		f, err := os.Open(p.tracePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return witness.ReadTrace(f)
	}

	spec := witness.DemoBlockSpec()

	if p.specPath != "" {
		f, err := os.Open(p.specPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if spec, err = witness.ReadBlockSpec(f); err != nil {
			return nil, err
		}
	}

	return spec.Builder(logger).Build()
}

func (p *proveParams) writeTrace(block *witness.Block) error {
	if p.writeTracePath == "" {
		return nil
	}

	f, err := os.Create(p.writeTracePath)
	if err != nil {
		return err
	}
	defer f.Close()

	return witness.WriteTrace(f, block)
}
