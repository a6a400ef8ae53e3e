package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal"
	"gestao/internal/config"
	"gestao/internal/dashboard"
	"gestao/internal/gateway"
	"gestao/internal/snapshots"
	"gestao/internal/testsupport"
	"gestao/internal/timeframe"
)

func testCLI(t *testing.T, fake *testsupport.FakeGateway, cacheEnabled bool) (*CLI, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		Environment:        config.Test,
		LogLevel:           config.LogLevelError,
		Timezone:           timeframe.DefaultTimezone,
		APIBaseURL:         "http://metrics.invalid",
		HistoryMonths:      12,
		StoragePath:        t.TempDir(),
		CacheEnabled:       cacheEnabled,
		CacheRetentionDays: 30,
	}

	var stdout bytes.Buffer
	cli := &CLI{
		loadConfig: func() (*config.Config, error) { return cfg, nil },
		newApp: func(opts internal.Options) (*internal.Application, error) {
			opts.Gateway = fake
			opts.TimeProvider = &testsupport.MockTimeProvider{FixedTime: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
			return internal.NewAppWithOptions(opts)
		},
		stdout: &stdout,
		stderr: &bytes.Buffer{},
	}
	return cli, &stdout
}

func execute(cli *CLI, args ...string) error {
	cmd := cli.rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestReportJSON(t *testing.T) {
	march := timeframe.MustRange("2024-03-01", "2024-03-10")
	february := timeframe.MustRange("2024-02-19", "2024-02-28")
	fake := testsupport.NewFakeGateway().
		Respond(march, testsupport.SampleResult(march, 100), nil).
		Respond(february, testsupport.SampleResult(february, 80), nil)
	cli, stdout := testCLI(t, fake, false)

	require.NoError(t, execute(cli, "report", "--start", "2024-03-01", "--end", "2024-03-10", "--format", "json"))

	var view dashboard.View
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &view))
	assert.Equal(t, dashboard.StatusReady, view.Status)
	require.NotNil(t, view.Data)
	assert.Equal(t, february, view.Data.ComparisonRange)
}

func TestReportTextAnimated(t *testing.T) {
	cli, stdout := testCLI(t, testsupport.NewFakeGateway(), false)

	require.NoError(t, execute(cli, "report", "--preset", "7d", "--animate"))
	assert.Contains(t, stdout.String(), "09/03 → 15/03")
	assert.Contains(t, stdout.String(), "Vendas R$ 0,00")
}

func TestReportFailure(t *testing.T) {
	yesterday := timeframe.MustRange("2024-03-14", "2024-03-14")
	fake := testsupport.NewFakeGateway().
		Respond(yesterday, nil, &gateway.TransportError{StatusCode: 500, Message: "metrics API returned HTTP 500"})
	cli, stdout := testCLI(t, fake, false)

	err := execute(cli, "report", "--preset", "yesterday")
	var transportErr *gateway.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Contains(t, stdout.String(), "Erro: metrics API returned HTTP 500")
}

func TestReportRejectsBadInput(t *testing.T) {
	cli, _ := testCLI(t, testsupport.NewFakeGateway(), false)

	assert.Error(t, execute(cli, "report", "--format", "csv"))
	assert.Error(t, execute(cli, "report", "--start", "2024-03-10", "--end", "2024-03-01"))
}

func TestPresetsJSON(t *testing.T) {
	cli, stdout := testCLI(t, testsupport.NewFakeGateway(), false)

	require.NoError(t, execute(cli, "presets", "--json"))

	var out struct {
		Presets []timeframe.Preset `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Presets, 5)
	assert.Equal(t, timeframe.RangeLabelToday, out.Presets[0].Label)
}

func TestWarm(t *testing.T) {
	fake := testsupport.NewFakeGateway()
	cli, stdout := testCLI(t, fake, true)

	require.NoError(t, execute(cli, "warm"))

	ranges := snapshots.WarmRanges(timeframe.MustParseDate("2024-03-15"))
	assert.Len(t, fake.Calls(), len(ranges))
	assert.Contains(t, stdout.String(), "0 failed")
}

func TestWarmRequiresCache(t *testing.T) {
	cli, _ := testCLI(t, testsupport.NewFakeGateway(), false)
	assert.Error(t, execute(cli, "warm"))
}
