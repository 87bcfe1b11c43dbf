// Package telemetry accumulates the per-stage metrics of one ingestion attempt.
package telemetry

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/kiranshivaraju/jobloader/pkg/models"
)

// Sink receives compression stage results. *Recorder implements it.
type Sink interface {
	AddHTMLProcessing(name string, chars int)
}

// Recorder collects telemetry for a single attempt. Scalar values are write-once,
// error detail is append-only, and Finish seals the recorder so a stage that
// outlives its deadline cannot change what was persisted.
type Recorder struct {
	mu     sync.Mutex
	start  time.Time
	now    func() time.Time
	data   models.Telemetry
	sealed bool
}

// NewRecorder starts the attempt clock.
func NewRecorder() *Recorder {
	return newRecorder(time.Now)
}

func newRecorder(now func() time.Time) *Recorder {
	return &Recorder{start: now(), now: now}
}

// Seconds rounds d to whole seconds.
func Seconds(d time.Duration) int {
	return int(math.Round(d.Seconds()))
}

func (r *Recorder) SetFetchMethod(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed || r.data.FetchMethod != "" {
		return
	}
	r.data.FetchMethod = method
}

func (r *Recorder) SetScrapingTime(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	setOnce(&r.data.ScrapingTime, Seconds(d))
}

// AddHTMLProcessing records one compression stage. Names and results are
// appended together so they always have equal length.
func (r *Recorder) AddHTMLProcessing(name string, chars int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.data.HTMLProcessingNames = append(r.data.HTMLProcessingNames, name)
	r.data.HTMLProcessingResults = append(r.data.HTMLProcessingResults, chars)
}

// SetModelUsage records the model call duration and reported token counts.
func (r *Recorder) SetModelUsage(elapsed time.Duration, promptTokens, completionTokens *int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	setOnce(&r.data.GPTTime, Seconds(elapsed))
	if promptTokens != nil {
		setOnce(&r.data.GPTTokensPrompt, *promptTokens)
	}
	if completionTokens != nil {
		setOnce(&r.data.GPTTokensCompletion, *completionTokens)
	}
}

// AppendErrorDetail adds one newline-terminated line to error_detail.
func (r *Recorder) AppendErrorDetail(detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.data.ErrorDetail += detail + "\n"
}

// Finish sets total_time, seals the recorder and returns the final snapshot.
// Later calls return the same snapshot.
func (r *Recorder) Finish() models.Telemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		total := max(Seconds(r.now().Sub(r.start)), 0)
		r.data.TotalTime = &total
		r.sealed = true
	}
	return r.snapshot()
}

// Snapshot returns a copy of the current values.
func (r *Recorder) Snapshot() models.Telemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Sealed reports whether Finish has been called.
func (r *Recorder) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

func (r *Recorder) snapshot() models.Telemetry {
	t := r.data
	t.HTMLProcessingNames = slices.Clone(r.data.HTMLProcessingNames)
	t.HTMLProcessingResults = slices.Clone(r.data.HTMLProcessingResults)
	if t.HTMLProcessingNames == nil {
		t.HTMLProcessingNames = []string{}
		t.HTMLProcessingResults = []int{}
	}
	return t
}

func setOnce(dst **int, v int) {
	if *dst != nil {
		return
	}
	*dst = &v
}
