package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScopedInstruments(t *testing.T) {
	stat := DefaultStatsReceiver()
	scoped := stat.Scope("scheduler")

	scoped.Counter("submits").Inc(2)
	scoped.Counter("submits").Inc(1)
	assert.EqualValues(t, 3, scoped.Counter("submits").Count())

	// scoping twice nests the path rather than replacing it
	nested := scoped.Scope("queue")
	nested.Gauge("depth").Update(7)
	assert.EqualValues(t, 7, nested.Gauge("depth").Value())

	// same registry, different scope, different instrument
	assert.EqualValues(t, 0, stat.Counter("submits").Count())
}

func TestLatencyRecords(t *testing.T) {
	stat := DefaultStatsReceiver()

	l := stat.Latency("op_ms").Time()
	time.Sleep(time.Millisecond)
	l.Stop()

	var buf bytes.Buffer
	WriteJSONOnce(stat, &buf)
	assert.Contains(t, buf.String(), "op_ms")
}
