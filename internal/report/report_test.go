package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"gestao/internal/dashboard"
	"gestao/internal/report"
	"gestao/internal/testsupport"
	"gestao/internal/timeframe"
	"gestao/internal/transition"
)

var (
	march    = timeframe.MustRange("2024-03-01", "2024-03-10")
	february = timeframe.MustRange("2024-02-19", "2024-02-28")
	today    = timeframe.MustParseDate("2024-03-15")
)

func readyView(withComparison bool) dashboard.View {
	outcome := &dashboard.ComparisonOutcome{
		Range:           march,
		Current:         testsupport.SampleResult(march, 100),
		ComparisonRange: february,
	}
	if withComparison {
		outcome.Comparison = testsupport.SampleResult(february, 80)
	}
	r := march
	return dashboard.NewView(dashboard.State{
		Status:  dashboard.StatusReady,
		Range:   &r,
		Outcome: outcome,
	}, today)
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]report.Format{"": report.FormatText, "TEXT": report.FormatText, "json": report.FormatJSON, " yaml ": report.FormatYAML} {
		got, err := report.ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := report.ParseFormat("csv")
	assert.Error(t, err)
}

func TestTerminalWidthFallsBack(t *testing.T) {
	assert.Equal(t, report.DefaultWidth, report.TerminalWidth(&bytes.Buffer{}))
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, readyView(true), 40))
	out := buf.String()

	assert.Contains(t, out, "01/03 → 10/03")
	assert.Contains(t, out, "Comparando com 19/02 → 28/02")
	assert.Contains(t, out, "R$ 3.000,00")
	assert.Contains(t, out, "▲ +25.0%")
	assert.Contains(t, out, "vs período anterior")
	assert.Contains(t, out, "Paid")
	assert.Contains(t, out, "Últimos dias")
	assert.Contains(t, out, strings.Repeat("─", 40))
}

func TestRenderTextWithoutComparison(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, readyView(false), 0))
	out := buf.String()

	assert.Contains(t, out, "Sem período de comparação")
	assert.Contains(t, out, "—")
	assert.NotContains(t, out, "▲")
}

func TestRenderTextPendingAndFailed(t *testing.T) {
	r := march
	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, dashboard.NewView(dashboard.State{Status: dashboard.StatusPending, Range: &r}, today), 0))
	assert.Contains(t, buf.String(), "Carregando")

	buf.Reset()
	require.NoError(t, report.RenderText(&buf, dashboard.NewView(dashboard.State{Status: dashboard.StatusFailed, Range: &r, Error: "upstream unavailable"}, today), 0))
	assert.Contains(t, buf.String(), "Erro: upstream unavailable")
	assert.Contains(t, buf.String(), "Sem dados")
}

func TestRenderStructured(t *testing.T) {
	view := readyView(true)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, view, report.FormatJSON, 0))
	var decoded dashboard.View
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotNil(t, decoded.Data)
	assert.Equal(t, february, decoded.Data.ComparisonRange)

	buf.Reset()
	require.NoError(t, report.Render(&buf, view, report.FormatYAML, 0))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "ready", doc["status"])
	assert.Contains(t, buf.String(), "2024-03-01")
}

// instantScheduler fires every frame on its own goroutine at the end of any animation
type instantScheduler struct {
	mu  sync.Mutex
	now time.Time
}

func (s *instantScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *instantScheduler) RequestFrame(cb func(now time.Time)) transition.Frame {
	s.mu.Lock()
	s.now = s.now.Add(time.Hour)
	now := s.now
	s.mu.Unlock()
	go cb(now)
	return noopFrame{}
}

type noopFrame struct{}

func (noopFrame) Cancel() {}

func TestAnimateReachesTargets(t *testing.T) {
	view := readyView(true)
	var buf bytes.Buffer

	err := report.Animate(context.Background(), &buf, &instantScheduler{now: time.Unix(0, 0)}, time.Second, report.HeadlineCounters(view))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\r")
	last := lines[len(lines)-1]
	assert.Contains(t, last, "Vendas R$ 3.000,00")
	assert.Contains(t, last, "Pedidos 20")
	assert.Contains(t, last, "Sessões 1.000")
}

func TestAnimateWithoutDurationJumps(t *testing.T) {
	var buf bytes.Buffer
	err := report.Animate(context.Background(), &buf, transition.NewTimerScheduler(0), 0, []report.Counter{
		{Label: "Pedidos", From: 1, To: 5, Format: func(v float64) string { return strings.Repeat("#", int(v)) }},
	})
	require.NoError(t, err)
	assert.Equal(t, "\rPedidos #####\n", buf.String())
}

func TestAnimateNoCounters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Animate(context.Background(), &buf, nil, time.Second, nil))
	assert.Empty(t, buf.String())
	assert.Nil(t, report.HeadlineCounters(dashboard.View{}))
}
