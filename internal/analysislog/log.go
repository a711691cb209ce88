// Package analysislog keeps the history of completed predictions, newest
// first. Entries are immutable once appended.
package analysislog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"pelohub/internal/audio"
	"pelohub/internal/i18n"
	"pelohub/internal/inference"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Source is how the analyzed audio was obtained.
type Source int

const (
	SourceUpload Source = iota
	SourceRecord
)

func (s Source) String() string {
	if s == SourceRecord {
		return "record"
	}
	return "upload"
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch string(b) {
	case "upload":
		*s = SourceUpload
	case "record":
		*s = SourceRecord
	default:
		return fmt.Errorf("unknown source %q", b)
	}
	return nil
}

// SignalInfo is the signal metadata shown in the log.
type SignalInfo struct {
	Format     string `json:"format"`
	BitDepth   string `json:"bitDepth"`
	SampleRate int    `json:"sampleRate"`
	Channels   string `json:"channels"`
}

// SignalInfoOf extracts the log metadata from a decoded signal.
func SignalInfoOf(sig *audio.Signal) SignalInfo {
	return SignalInfo{
		Format:     sig.Format.String(),
		BitDepth:   sig.BitDepthLabel,
		SampleRate: sig.SampleRate,
		Channels:   sig.ChannelLabel(),
	}
}

// Entry records one completed analysis.
type Entry struct {
	ID        uuid.UUID        `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Source    Source           `json:"source"`
	FileName  string           `json:"fileName"`
	Duration  string           `json:"duration"` // m:ss
	Signal    SignalInfo       `json:"signal"`
	Result    inference.Result `json:"result"`
	ModelName string           `json:"modelName"`
}

// NewEntry stamps a fresh id and timestamp onto an entry.
func NewEntry(source Source, fileName string, sig *audio.Signal, result inference.Result, modelName string) Entry {
	return Entry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Source:    source,
		FileName:  fileName,
		Duration:  audio.FormatClock(sig.Duration),
		Signal:    SignalInfoOf(sig),
		Result:    result,
		ModelName: modelName,
	}
}

// Log is the in-memory analysis history. It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append inserts e at the front.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Entry{e}, l.entries...)
}

// Entries returns a copy of the history, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) IsEmpty() bool {
	return l.Len() == 0
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// MarshalJSON snapshots the history as a JSON array, newest first.
func (l *Log) MarshalJSON() ([]byte, error) {
	entries := l.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return sonic.Marshal(entries)
}

// Restore replaces the history with a snapshot produced by MarshalJSON.
func (l *Log) Restore(data []byte) error {
	var entries []Entry
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to restore analysis log: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	return nil
}

// Render returns a plain-text listing, or the empty state.
func (l *Log) Render(tr *i18n.Translator) string {
	entries := l.Entries()
	if len(entries) == 0 {
		return tr.T("logs.empty") + "\n" + tr.T("logs.empty_sub") + "\n"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-16s  %-24s  %s %s %dHz %s  %s %.1f%% (%s)\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.ModelName,
			e.FileName,
			e.Signal.Format, e.Signal.BitDepth, e.Signal.SampleRate, e.Signal.Channels,
			LabelText(tr, e.Result.Label),
			e.Result.Confidence*100,
			SeverityText(tr, e.Result.Severity),
		)
	}
	return b.String()
}

// LabelText translates a classification label.
func LabelText(tr *i18n.Translator, l inference.Label) string {
	if l == inference.LabelNonDysarthric {
		return tr.T("gen.non_dysarthric")
	}
	return tr.T("gen.dysarthric")
}

// SeverityText translates a severity grade.
func SeverityText(tr *i18n.Translator, s inference.Severity) string {
	return tr.T("gen." + strings.ToLower(s.String()))
}
