package main

import (
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"
)

// Setup echoes the flags a run was started with
type Setup struct {
	Duration    time.Duration
	Entities    int
	Types       int
	Systems     int
	Churn       int
	TrackPauses bool
}

// Report collects a run's frame timings and memory snapshots
type Report struct {
	Setup

	Frames       int64
	Elapsed      time.Duration
	FrameTime    Durations
	Archetypes   int
	LiveEntities int
	Before       runtime.MemStats
	After        runtime.MemStats
}

// Durations summarises a set of samples
type Durations struct {
	Samples            []time.Duration
	Min, Max, Mean     time.Duration
	Median, Percentile time.Duration
}

// Summarize sorts Samples and fills the summary fields. Percentile is the
// 99th, by nearest rank.
func (d *Durations) Summarize() {
	n := len(d.Samples)
	if n == 0 {
		return
	}
	slices.Sort(d.Samples)

	var sum time.Duration
	for _, v := range d.Samples {
		sum += v
	}
	rank := func(p int) time.Duration { return d.Samples[max((p*n+99)/100, 1)-1] }

	d.Min, d.Max = d.Samples[0], d.Samples[n-1]
	d.Mean = sum / time.Duration(n)
	d.Median, d.Percentile = rank(50), rank(99)
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"delta":  func(after, before uint64) int64 { return int64(after) - int64(before) },
	"cycles": func(after, before uint32) uint32 { return after - before },
	"pause":  func(after, before uint64) time.Duration { return time.Duration(after - before) },
}).Parse(`# quadforge ECS stress run

| setting | value |
|---|---|
| duration | {{.Duration}} |
| entities | {{.Entities}} |
| component types | {{.Types}} |
| systems | {{.Systems}} |
| churn per frame | {{.Churn}} |

{{.Frames}} frames in {{.Elapsed}}; {{.LiveEntities}} entities across {{.Archetypes}} archetypes at exit.

| frame time | |
|---|---|
| mean | {{.FrameTime.Mean}} |
| p50 | {{.FrameTime.Median}} |
| p99 | {{.FrameTime.Percentile}} |
| min | {{.FrameTime.Min}} |
| max | {{.FrameTime.Max}} |

| memory | before | after | delta |
|---|---|---|---|
| heap | {{.Before.HeapAlloc}} | {{.After.HeapAlloc}} | {{delta .After.HeapAlloc .Before.HeapAlloc}} |
| allocated | {{.Before.TotalAlloc}} | {{.After.TotalAlloc}} | {{delta .After.TotalAlloc .Before.TotalAlloc}} |
| sys | {{.Before.Sys}} | {{.After.Sys}} | {{delta .After.Sys .Before.Sys}} |
| gc cycles | {{.Before.NumGC}} | {{.After.NumGC}} | {{cycles .After.NumGC .Before.NumGC}} |
{{- if .TrackPauses}}

GC paused for {{pause .After.PauseTotalNs .Before.PauseTotalNs}} in total.
{{- end}}
`))

// Write renders the report as markdown
func (r *Report) Write(w io.Writer) error {
	return reportTmpl.Execute(w, r)
}
