package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationsSummarize(t *testing.T) {
	var d Durations
	d.Summarize()
	assert.Zero(t, d.Max)

	for i := 100; i >= 1; i-- {
		d.Samples = append(d.Samples, time.Duration(i)*time.Millisecond)
	}
	d.Summarize()
	assert.Equal(t, time.Millisecond, d.Min)
	assert.Equal(t, 100*time.Millisecond, d.Max)
	assert.Equal(t, 50500*time.Microsecond, d.Mean)
	assert.Equal(t, 50*time.Millisecond, d.Median)
	assert.Equal(t, 99*time.Millisecond, d.Percentile)
	assert.True(t, d.Samples[0] < d.Samples[1], "samples are sorted")
}

func TestReportWrite(t *testing.T) {
	r := &Report{
		Setup:     Setup{Duration: time.Second, Entities: 10, Churn: 2},
		Frames:    3,
		FrameTime: Durations{Samples: []time.Duration{time.Millisecond}},
	}
	r.FrameTime.Summarize()
	r.After.NumGC = 4
	r.After.PauseTotalNs = 1500

	var out strings.Builder
	require.NoError(t, r.Write(&out))
	assert.Contains(t, out.String(), "| churn per frame | 2 |")
	assert.Contains(t, out.String(), "| p99 | 1ms |")
	assert.Contains(t, out.String(), "| gc cycles | 0 | 4 | 4 |")
	assert.NotContains(t, out.String(), "GC paused")

	r.TrackPauses = true
	out.Reset()
	require.NoError(t, r.Write(&out))
	assert.Contains(t, out.String(), "GC paused for 1.5µs in total.")
}
