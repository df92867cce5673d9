package prove

import (
	"errors"

	"github.com/armon/go-metrics"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/evm-circuit/command"
	"github.com/0xPolygon/evm-circuit/command/helper"
	"github.com/0xPolygon/evm-circuit/evmcircuit"
	"github.com/0xPolygon/evm-circuit/evmcircuit/execution"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
)

func GetCommand() *cobra.Command {
	proveCmd := &cobra.Command{
		Use:     "prove",
		Short:   "Assigns every chunk of a block and checks it with the mock prover",
		Args:    cobra.NoArgs,
		PreRunE: runPreRun,
		Run:     runCommand,
	}

	helper.RegisterConfigFlags(proveCmd, &params.configPath, &params.logLevel)
	setFlags(proveCmd)

	return proveCmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&params.tracePath,
		traceFlag,
		"",
		"the path to a recorded block trace (JSON)",
	)

	cmd.Flags().StringVar(
		&params.specPath,
		specFlag,
		"",
		"the path to a block spec (JSON) to build the trace from. The demo block is used when neither a trace nor a spec is given",
	)

	cmd.Flags().StringVar(
		&params.writeTracePath,
		writeTraceFlag,
		"",
		"write the block trace to this path before proving",
	)

	cmd.MarkFlagsMutuallyExclusive(traceFlag, specFlag)
}

func runPreRun(_ *cobra.Command, _ []string) error {
	return params.validateFlags()
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	result, err := prove()
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(result)
}

func prove() (*ProveResult, error) {
	cfg, err := helper.LoadConfig(params.configPath, params.logLevel)
	if err != nil {
		return nil, err
	}

	logger := helper.NewLogger("evm-circuit", cfg.LogLevel)

	var inm *metrics.InmemSink

	if cfg.Telemetry.Metrics {
		if inm, err = helper.SetupTelemetry(); err != nil {
			return nil, err
		}
	}

	values, err := cfg.ChallengeValues()
	if err != nil {
		return nil, err
	}

	block, err := params.loadBlock(logger)
	if err != nil {
		return nil, err
	}

	if err := params.writeTrace(block); err != nil {
		return nil, err
	}

	chunks, err := witness.SplitChunks(block, cfg.NumChunks, cfg.FixedParams())
	if err != nil {
		return nil, err
	}

	circuit, err := evmcircuit.New(cfg.CircuitParams(), logger)
	if err != nil {
		return nil, err
	}

	result := &ProveResult{
		Txs:        len(block.Txs),
		Rws:        block.Rws.Len(),
		GridRows:   circuit.Rows(),
		MaxEvmRows: cfg.MaxEvmRows,
	}

	for _, chunk := range chunks {
		res := ChunkResult{
			Index:      chunk.Context.Index,
			InitialRWC: chunk.Context.InitialRWC,
			EndRWC:     chunk.Context.EndRWC,
		}

		w, err := circuit.Synthesize(block, chunk, values)

		switch {
		case err == nil:
		case errors.Is(err, execution.ErrNotEnoughRows):
			// the chunk does not fit the grid, a larger degree may help
			logger.Warn("chunk does not fit", "chunk", chunk.Context.Index, "err", err)

			res.Error = err.Error()
			result.Chunks = append(result.Chunks, res)

			continue
		default:
			return nil, err
		}

		res.Rows = w.Result.Rows
		res.Steps = w.Result.Steps
		res.Padding = w.Result.Padding
		res.Mismatches = w.Result.Mismatches

		if err := circuit.Verify(w); err != nil {
			res.Error = err.Error()
		} else {
			res.Verified = true
		}

		result.Chunks = append(result.Chunks, res)
	}

	if inm != nil {
		circuit.Stats().Publish()
		result.Metrics = helper.FormatMetrics(inm)
	}

	return result, nil
}
