package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// streamSummary is the distilled content of a stream-json subprocess
// invocation: the assembled assistant text and the session's reported
// cost, used only for logging — the authoritative outcome is the
// PhaseResult the agent wrote to resultPath.
type streamSummary struct {
	Text    string
	CostUSD float64
}

type streamEvent struct {
	Type    string          `json:"type"`
	Event   json.RawMessage `json:"event"`
	Result  json.RawMessage `json:"result"`
	CostUSD float64         `json:"cost_usd"`
}

type nestedEvent struct {
	Type  string      `json:"type"`
	Delta *deltaBlock `json:"delta"`
}

type deltaBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type resultPayload struct {
	CostUSD float64 `json:"cost_usd"`
}

// drainStream reads stream-json lines from stdout, accumulating
// assistant text and the terminal cost figure. Malformed lines are
// skipped rather than aborting the turn — grounded on the teacher's
// dispatch.processStream, simplified since orcd has no interactive
// display layer to feed incrementally.
func drainStream(ctx context.Context, stdout io.Reader) (*streamSummary, error) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	var summary streamSummary
	var text strings.Builder

	for scanner.Scan() {
		if ctx.Err() != nil {
			return &summary, ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event streamEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		switch event.Type {
		case "stream_event":
			handleStreamEvent(event, &text)
		case "result":
			handleResultEvent(event, &summary)
		}
	}
	if err := scanner.Err(); err != nil {
		return &summary, err
	}
	summary.Text = text.String()
	return &summary, nil
}

func handleStreamEvent(event streamEvent, text *strings.Builder) {
	if event.Event == nil {
		return
	}
	var nested nestedEvent
	if err := json.Unmarshal(event.Event, &nested); err != nil {
		return
	}
	if nested.Type == "content_block_delta" && nested.Delta != nil && nested.Delta.Type == "text_delta" {
		text.WriteString(nested.Delta.Text)
	}
}

func handleResultEvent(event streamEvent, summary *streamSummary) {
	if event.Result != nil {
		var payload resultPayload
		if err := json.Unmarshal(event.Result, &payload); err == nil {
			summary.CostUSD = payload.CostUSD
			return
		}
	}
	if event.CostUSD > 0 {
		summary.CostUSD = event.CostUSD
	}
}
