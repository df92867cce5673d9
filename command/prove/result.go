package prove

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/evm-circuit/command/helper"
	"github.com/0xPolygon/evm-circuit/evmcircuit/execution"
)

type ChunkResult struct {
	Index      uint64                 `json:"index"`
	InitialRWC uint64                 `json:"initialRwc"`
	EndRWC     uint64                 `json:"endRwc"`
	Rows       int                    `json:"rows"`
	Steps      int                    `json:"steps"`
	Padding    int                    `json:"padding"`
	Mismatches []execution.RwMismatch `json:"mismatches,omitempty"`
	Verified   bool                   `json:"verified"`
	Error      string                 `json:"error,omitempty"`
}

type ProveResult struct {
	Txs        int           `json:"txs"`
	Rws        int           `json:"rws"`
	GridRows   int           `json:"gridRows"`
	MaxEvmRows int           `json:"maxEvmRows"`
	Chunks     []ChunkResult `json:"chunks"`
	Metrics    string        `json:"-"`
}

func (r *ProveResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[BLOCK]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Transactions|%d", r.Txs),
		fmt.Sprintf("Rw events|%d", r.Rws),
		fmt.Sprintf("Grid rows|%d", r.GridRows),
		fmt.Sprintf("Execution rows|%d", r.MaxEvmRows),
	}))
	buffer.WriteString("\n")

	rows := make([]string, 0, len(r.Chunks)+1)
	rows = append(rows, "Chunk|Rw counters|Rows|Steps|Padding|Mismatches|Verified")

	for _, c := range r.Chunks {
		rows = append(rows, fmt.Sprintf("%d|[%d, %d)|%d|%d|%d|%d|%t",
			c.Index, c.InitialRWC, c.EndRWC, c.Rows, c.Steps, c.Padding, len(c.Mismatches), c.Verified))
	}

	buffer.WriteString("\n[CHUNKS]\n")
	buffer.WriteString(helper.FormatList(rows))
	buffer.WriteString("\n")

	for _, c := range r.Chunks {
		if c.Error == "" && len(c.Mismatches) == 0 {
			continue
		}

		buffer.WriteString(fmt.Sprintf("\n[CHUNK %d ERRORS]\n", c.Index))

		for _, m := range c.Mismatches {
			buffer.WriteString(m.String())
			buffer.WriteString("\n")
		}

		if c.Error != "" {
			buffer.WriteString(c.Error)
			buffer.WriteString("\n")
		}
	}

	if r.Metrics != "" {
		buffer.WriteString("\n[METRICS]\n")
		buffer.WriteString(r.Metrics)
		buffer.WriteString("\n")
	}

	return buffer.String()
}
