package inspect

import (
	"github.com/armon/go-metrics"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/evm-circuit/command"
	"github.com/0xPolygon/evm-circuit/command/helper"
	"github.com/0xPolygon/evm-circuit/evmcircuit"
)

func GetCommand() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Configures the circuit and prints the footprint of every execution state gadget",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}

	helper.RegisterConfigFlags(inspectCmd, &params.configPath, &params.logLevel)

	return inspectCmd
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	result, err := inspect()
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(result)
}

func inspect() (*InspectResult, error) {
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

	circuit, err := evmcircuit.New(cfg.CircuitParams(), logger)
	if err != nil {
		return nil, err
	}

	stats := circuit.Stats()
	cs := circuit.ConstraintSystem()

	result := &InspectResult{
		Rows:           circuit.Rows(),
		AdviceColumns:  cs.NumAdviceColumns(),
		FixedColumns:   cs.NumFixedColumns(),
		Selectors:      cs.NumSelectors(),
		Gates:          len(cs.Gates()),
		Lookups:        len(cs.Lookups()),
		Degree:         cs.Degree(),
		MaxHeight:      stats.MaxHeight,
		CellsByType:    stats.CellsByType,
		LookupsByTable: stats.LookupsByTable,
	}

	for _, g := range stats.Gadgets {
		result.Gadgets = append(result.Gadgets, GadgetResult{
			State:       g.Name,
			Height:      g.Height,
			Constraints: g.Constraints,
			Lookups:     sum(g.Lookups),
		})
	}

	if inm != nil {
		stats.Publish()
		result.Metrics = helper.FormatMetrics(inm)
	}

	return result, nil
}

func sum[K comparable](m map[K]int) int {
	total := 0
	for _, n := range m {
		total += n
	}

	return total
}
