// Package parser decodes the assistant CLI's newline-delimited JSON logs
// into canonical usage entries. Two schema families coexist across tool
// versions: an envelope schema with a nested message.usage payload, and a
// flat daily-log schema with top-level token counts. Schema detection is
// per-file via a substring probe on the first line.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ccpulse/ccpulse/internal/types"
)

type schema int

const (
	schemaEnvelope schema = iota
	schemaFlat
)

// envelopeRecord is one line of the envelope schema. Only records with
// type "assistant" and a usage payload become entries.
type envelopeRecord struct {
	Type      string           `json:"type"`
	Timestamp json.RawMessage  `json:"timestamp"`
	SessionID string           `json:"sessionId"`
	UUID      string           `json:"uuid"`
	RequestID string           `json:"requestId"`
	CostUSD   *float64         `json:"costUSD"`
	Message   *envelopeMessage `json:"message"`
}

type envelopeMessage struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content MessageContent `json:"content"`
	Usage   *rawUsage      `json:"usage"`
}

type rawUsage struct {
	InputTokens         *int `json:"input_tokens"`
	OutputTokens        *int `json:"output_tokens"`
	CacheCreationTokens int  `json:"cache_creation_input_tokens"`
	CacheReadTokens     int  `json:"cache_read_input_tokens"`
}

// flatRecord is one line of the flat daily-log schema.
type flatRecord struct {
	Timestamp           json.RawMessage `json:"timestamp"`
	ConversationID      string          `json:"conversation_id"`
	MessageID           string          `json:"message_id"`
	RequestID           string          `json:"request_id"`
	Model               string          `json:"model"`
	InputTokens         *int            `json:"input_tokens"`
	OutputTokens        *int            `json:"output_tokens"`
	CacheCreationTokens int             `json:"cache_creation_tokens"`
	CacheReadTokens     int             `json:"cache_read_tokens"`
	Cost                *float64        `json:"cost"`
}

// Parser turns log files into usage entries. The dedup set spans calls on
// the same instance; Reset clears it. The refresh coordinator resets it
// at the start of every cycle so the full rebuild is not deduplicated
// against the previous one, and so the set cannot grow without bound.
type Parser struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	debug bool
}

func New() *Parser {
	return &Parser{seen: make(map[string]struct{})}
}

func (p *Parser) SetDebug(debug bool) {
	p.debug = debug
}

// Reset clears the dedup set, forcing the next parse to see every record
// as new. Callers that rescan the same files without Reset get zero
// additional entries on the rescan.
func (p *Parser) Reset() {
	p.mu.Lock()
	p.seen = make(map[string]struct{})
	p.mu.Unlock()
}

// markSeen records an id and reports whether it was already present.
// An empty id is never deduplicated.
func (p *Parser) markSeen(id string) bool {
	if id == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.seen[id]; dup {
		return true
	}
	p.seen[id] = struct{}{}
	return false
}

// ParseFiles parses every file, skipping those that fail to open or read,
// and returns the merged entries sorted ascending by timestamp along with
// the count of failed files.
func (p *Parser) ParseFiles(paths []string) ([]types.UsageEntry, int) {
	var all []types.UsageEntry
	failed := 0
	for _, path := range paths {
		entries, err := p.ParseFile(path)
		if err != nil {
			failed++
			if p.debug {
				fmt.Fprintf(os.Stderr, "Debug: %v\n", err)
			}
			continue
		}
		all = append(all, entries...)
	}
	sortByTimestamp(all)
	return all, failed
}

// ParseFile parses one log file into timestamp-ordered usage entries.
// Malformed or irrelevant lines are skipped; only a file-level read
// failure produces an error.
func (p *Parser) ParseFile(path string) ([]types.UsageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.LoaderError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Long tool-output lines show up in these logs; allow up to 1MB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []types.UsageEntry
		sc      schema
		probed  bool
		lineNum int
		skipped int
	)

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !probed {
			// Undiscriminating lines (summaries, progress records) carry
			// no usage under either schema; skip them without committing.
			s, decided := probeSchema(line)
			if !decided {
				skipped++
				continue
			}
			sc = s
			probed = true
		}

		entry, ok := p.parseLine(line, sc)
		if !ok {
			skipped++
			continue
		}
		if p.markSeen(entry.UniqueID) {
			continue
		}
		entries = append(entries, entry)
	}

	if p.debug && skipped > 0 {
		fmt.Fprintf(os.Stderr, "Debug: %s skipped %d of %d lines\n",
			filepath.Base(path), skipped, lineNum)
	}

	if err := scanner.Err(); err != nil {
		return nil, types.LoaderError{Path: path, Err: err}
	}

	sortByTimestamp(entries)
	return entries, nil
}

// probeSchema detects the file's record family from one line. Envelope
// records always carry a "message" object; flat daily-log records carry
// top-level token counts (and usually a conversation id). A line with
// neither marker does not decide the schema: envelope streams open with
// summary or user-turn records on resumed sessions, and committing to
// flat on such a line would silently drop every assistant record after
// it.
func probeSchema(line []byte) (schema, bool) {
	if bytes.Contains(line, []byte(`"message"`)) {
		return schemaEnvelope, true
	}
	if bytes.Contains(line, []byte(`"conversation_id"`)) ||
		bytes.Contains(line, []byte(`"input_tokens"`)) ||
		bytes.Contains(line, []byte(`"output_tokens"`)) {
		return schemaFlat, true
	}
	return schemaEnvelope, false
}

func (p *Parser) parseLine(line []byte, sc schema) (types.UsageEntry, bool) {
	switch sc {
	case schemaEnvelope:
		return parseEnvelopeLine(line)
	default:
		return parseFlatLine(line)
	}
}

func parseEnvelopeLine(line []byte) (types.UsageEntry, bool) {
	var rec envelopeRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return types.UsageEntry{}, false
	}
	// The same stream interleaves user turns, summaries and progress
	// records; only assistant turns carry billable usage.
	if rec.Type != "assistant" || rec.Message == nil {
		return types.UsageEntry{}, false
	}
	msg := rec.Message
	if msg.Usage == nil || (msg.Usage.InputTokens == nil && msg.Usage.OutputTokens == nil) {
		return types.UsageEntry{}, false
	}
	if msg.Model == "<synthetic>" || msg.Content.isAPIError() {
		return types.UsageEntry{}, false
	}

	ts, ok := parseTimestamp(rec.Timestamp)
	if !ok || ts.Year() < 2020 {
		return types.UsageEntry{}, false
	}

	entry := types.UsageEntry{
		Timestamp:           ts,
		Model:               modelOrUnknown(msg.Model),
		InputTokens:         intOrZero(msg.Usage.InputTokens),
		OutputTokens:        intOrZero(msg.Usage.OutputTokens),
		CacheCreationTokens: msg.Usage.CacheCreationTokens,
		CacheReadTokens:     msg.Usage.CacheReadTokens,
		SessionID:           rec.SessionID,
		UniqueID:            envelopeUniqueID(rec),
	}
	if entry.SessionID == "" {
		entry.SessionID = msg.ID
	}
	if rec.CostUSD != nil {
		entry.Cost = *rec.CostUSD
		entry.HasCost = true
	}
	return entry, true
}

// envelopeUniqueID derives the dedup identity: the record UUID when
// present, else messageId:requestId. Both composite halves are required;
// otherwise the record has no stable identity and is never deduplicated.
func envelopeUniqueID(rec envelopeRecord) string {
	if rec.UUID != "" {
		return rec.UUID
	}
	if rec.Message != nil && rec.Message.ID != "" && rec.RequestID != "" {
		return rec.Message.ID + ":" + rec.RequestID
	}
	return ""
}

func parseFlatLine(line []byte) (types.UsageEntry, bool) {
	var rec flatRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return types.UsageEntry{}, false
	}
	if rec.InputTokens == nil && rec.OutputTokens == nil {
		return types.UsageEntry{}, false
	}

	ts, ok := parseTimestamp(rec.Timestamp)
	if !ok || ts.Year() < 2020 {
		return types.UsageEntry{}, false
	}

	entry := types.UsageEntry{
		Timestamp:           ts,
		Model:               modelOrUnknown(rec.Model),
		InputTokens:         intOrZero(rec.InputTokens),
		OutputTokens:        intOrZero(rec.OutputTokens),
		CacheCreationTokens: rec.CacheCreationTokens,
		CacheReadTokens:     rec.CacheReadTokens,
		SessionID:           rec.ConversationID,
		UniqueID:            flatUniqueID(rec),
	}
	if entry.SessionID == "" {
		entry.SessionID = rec.MessageID
	}
	if rec.Cost != nil {
		entry.Cost = *rec.Cost
		entry.HasCost = true
	}
	return entry, true
}

func flatUniqueID(rec flatRecord) string {
	if rec.MessageID != "" && rec.RequestID != "" {
		return rec.MessageID + ":" + rec.RequestID
	}
	return rec.MessageID
}

func modelOrUnknown(model string) string {
	if strings.TrimSpace(model) == "" {
		return "unknown"
	}
	return model
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func sortByTimestamp(entries []types.UsageEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}
