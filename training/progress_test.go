package training

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar("Scanning", 4, &buf)

	pb.Update(2, map[string]float64{"nll": 0.5, "ece": 0.125, "acc": 0.75})
	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "\rScanning:  50%|"))
	assert.Contains(t, line, "2/4")
	assert.Contains(t, line, "acc=75.00%")
	// metrics are rendered in key order
	assert.Less(t, strings.Index(line, "acc="), strings.Index(line, "ece="))
	assert.Less(t, strings.Index(line, "ece=0.1250"), strings.Index(line, "nll=0.5000"))

	buf.Reset()
	pb.UpdateMetrics(map[string]float64{"ece": 0.01})
	assert.Contains(t, buf.String(), "ece=0.0100")
	assert.Contains(t, buf.String(), "nll=0.5000")

	buf.Reset()
	pb.Finish()
	assert.Contains(t, buf.String(), "100%")
	assert.Contains(t, buf.String(), "4/4")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressBarEmptyTotal(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar("Nothing", 0, &buf)
	pb.Finish()
	assert.Contains(t, buf.String(), "100%")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00", formatDuration(0))
	assert.Equal(t, "01:05", formatDuration(65*time.Second))
	assert.Equal(t, "12:00", formatDuration(12*time.Minute))
}
