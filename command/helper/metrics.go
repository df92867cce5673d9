package helper

import (
	"fmt"
	"time"

	"github.com/armon/go-metrics"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SetupTelemetry installs a global in-memory metrics sink
func SetupTelemetry() (*metrics.InmemSink, error) {
	inm := metrics.NewInmemSink(10*time.Second, time.Minute)

	metricsConf := metrics.DefaultConfig("")
	metricsConf.EnableHostname = false
	metricsConf.EnableRuntimeMetrics = false

	if _, err := metrics.NewGlobal(metricsConf, inm); err != nil {
		return nil, err
	}

	return inm, nil
}

// FormatMetrics renders the gauges and counters of the latest interval of
// inm as key value pairs
func FormatMetrics(inm *metrics.InmemSink) string {
	data := inm.Data()
	if len(data) == 0 {
		return FormatKV(nil)
	}

	interval := data[len(data)-1]

	interval.RLock()
	defer interval.RUnlock()

	rows := make([]string, 0, len(interval.Gauges)+len(interval.Counters))

	gauges := maps.Keys(interval.Gauges)
	slices.Sort(gauges)

	for _, k := range gauges {
		g := interval.Gauges[k]
		rows = append(rows, fmt.Sprintf("%s|%v", g.Name, g.Value))
	}

	counters := maps.Keys(interval.Counters)
	slices.Sort(counters)

	for _, k := range counters {
		c := interval.Counters[k]
		rows = append(rows, fmt.Sprintf("%s|%v", c.Name, c.Sum))
	}

	return FormatKV(rows)
}
