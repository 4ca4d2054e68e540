package namespace

import "fmt"

// WatchSample is one record emitted by a Watch node. Field order and the
// purely-numeric u64 rendering are load-bearing: §8 scenario 2 checks the
// emitted line contains exactly these keys, in this order, with no extras.
type WatchSample struct {
	TsMs         uint64
	P50Ms        uint64
	P95Ms        uint64
	Queued       uint64
	Backpressure uint64
	Dropped      uint64
	UiReads      uint64
	UiDenies     uint64
}

// Render formats the sample as one console output line.
func (s WatchSample) Render() string {
	return fmt.Sprintf(
		"watch ts_ms=%d p50_ms=%d p95_ms=%d queued=%d backpressure=%d dropped=%d ui_reads=%d ui_denies=%d",
		s.TsMs, s.P50Ms, s.P95Ms, s.Queued, s.Backpressure, s.Dropped, s.UiReads, s.UiDenies,
	)
}
