package report

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/maruel/natural"
	"github.com/tidwall/btree"
)

var ErrUnknownSeverity = errors.New("unknown severity")

// Emitter receives the diagnostics of the checks and of the evaluators. Implementations are safe for concurrent use.
type Emitter interface {
	Emit(check, file string, line int, code Code, message string)

	// IncChecks increments the number of checks run.
	IncChecks()
}

type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Check    string   `json:"check,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s [%s] %s", d.File, d.Line, d.Severity, d.Code, d.Message)
}

// less orders diagnostics by file (natural order), line, code and message.
func less(a, b Diagnostic) bool {
	if a.File != b.File {
		return natural.Less(a.File, b.File)
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	return a.Check < b.Check
}

// Collector is an Emitter keeping the diagnostics ordered and deduplicated.
type Collector struct {
	lock        sync.Mutex
	diagnostics *btree.BTreeG[Diagnostic]
	disabled    map[Code]bool
	minSeverity Severity

	checks atomic.Int64
}

func NewCollector(disabled ...Code) *Collector {
	c := &Collector{
		diagnostics: btree.NewBTreeG(less),
		disabled:    map[Code]bool{},
		minSeverity: SeverityInfo,
	}
	for _, code := range disabled {
		c.disabled[code] = true
	}
	return c
}

// SetMinSeverity makes the collector ignore the diagnostics less severe than s.
func (c *Collector) SetMinSeverity(s Severity) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.minSeverity = s
}

func (c *Collector) Emit(check, file string, line int, code Code, message string) {
	c.Add(Diagnostic{
		File:     file,
		Line:     line,
		Code:     code,
		Severity: code.Severity(),
		Message:  message,
		Check:    check,
	})
}

// Add adds d unless its code is disabled or it is already present.
func (c *Collector) Add(d Diagnostic) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.disabled[d.Code] || d.Severity < c.minSeverity {
		return
	}
	c.diagnostics.Set(d)
}

func (c *Collector) IncChecks() {
	c.checks.Add(1)
}

// AddChecks adds n check runs performed elsewhere (by a worker) to the count.
func (c *Collector) AddChecks(n int64) {
	c.checks.Add(n)
}

func (c *Collector) CheckCount() int64 {
	return c.checks.Load()
}

// Diagnostics returns the collected diagnostics in order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.lock.Lock()
	defer c.lock.Unlock()

	diagnostics := make([]Diagnostic, 0, c.diagnostics.Len())
	c.diagnostics.Scan(func(d Diagnostic) bool {
		diagnostics = append(diagnostics, d)
		return true
	})
	return diagnostics
}

func (c *Collector) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.diagnostics.Len()
}

// RemoveFile removes the diagnostics of a file, it is used before a file is analyzed again.
func (c *Collector) RemoveFile(file string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	var removed []Diagnostic
	c.diagnostics.Scan(func(d Diagnostic) bool {
		if d.File == file {
			removed = append(removed, d)
		}
		return true
	})
	for _, d := range removed {
		c.diagnostics.Delete(d)
	}
}

// WorstSeverity returns the highest severity of the collected diagnostics, 0 if there are none.
func (c *Collector) WorstSeverity() Severity {
	return WorstSeverity(c.Diagnostics())
}

func WorstSeverity(diagnostics []Diagnostic) Severity {
	var worst Severity
	for _, d := range diagnostics {
		worst = max(worst, d.Severity)
	}
	return worst
}

// CountByCode returns the number of diagnostics per code.
func CountByCode(diagnostics []Diagnostic) map[Code]int {
	counts := map[Code]int{}
	for _, d := range diagnostics {
		counts[d.Code]++
	}
	return counts
}
