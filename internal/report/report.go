// Package report renders the dashboard view for terminals and pipelines
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"gestao/internal/analytics"
	"gestao/internal/dashboard"
	"gestao/internal/format"
	"gestao/internal/gateway"
)

// Format of a rendered report
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultWidth is used when the output is not a terminal
const DefaultWidth = 80

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", s)
	}
}

// TerminalWidth returns the width of w when it is a terminal, DefaultWidth otherwise
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// Render writes view in the requested format
func Render(w io.Writer, view dashboard.View, f Format, width int) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	default:
		return RenderText(w, view, width)
	}
}

// RenderText writes the human-readable report
func RenderText(w io.Writer, view dashboard.View, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	return textTemplate.Execute(w, newTextModel(view, width))
}

type kpiLine struct {
	Label string
	Value string
	Badge string
}

type channelLine struct {
	Name     string
	Type     string
	Sessions string
	Revenue  string
	Orders   string
	Share    string
}

type dayLine struct {
	Day        string
	Sessions   string
	Cart       string
	Checkout   string
	Orders     string
	Conversion string
}

type textModel struct {
	Rule         string
	Title        string
	Status       dashboard.Status
	Error        string
	Range        string
	Preset       string
	CompareLabel string
	DeltaLabel   string
	HasData      bool
	Kpis         []kpiLine
	Funnel       []kpiLine
	Rates        []kpiLine
	Channels     []channelLine
	Days         []dayLine
}

var kpiLabels = map[analytics.Metric]string{
	analytics.MetricRevenue:                 "Vendas",
	analytics.MetricOrders:                  "Pedidos",
	analytics.MetricAverageOrderValue:       "Ticket médio",
	analytics.MetricSessions:                "Sessões",
	analytics.MetricConversionRate:          "Conversão",
	analytics.MetricNewCustomerOrders:       "Pedidos novos",
	analytics.MetricReturningCustomerOrders: "Pedidos recorrentes",
	analytics.MetricFunnelSessions:          "Sessões",
	analytics.MetricFunnelCart:              "Carrinho",
	analytics.MetricFunnelCheckout:          "Checkout",
	analytics.MetricFunnelOrders:            "Pedidos",
}

func kpiValue(k gateway.KpiSet, m analytics.Metric) string {
	switch m {
	case analytics.MetricRevenue:
		return format.BRL(k.Revenue)
	case analytics.MetricOrders:
		return format.Count(k.Orders)
	case analytics.MetricAverageOrderValue:
		return format.BRL(k.AverageOrderValue)
	case analytics.MetricSessions:
		return format.Count(k.Sessions)
	case analytics.MetricConversionRate:
		return format.Pct(k.ConversionRate, 2)
	case analytics.MetricNewCustomerOrders:
		return format.Count(k.NewCustomerOrders)
	case analytics.MetricReturningCustomerOrders:
		return format.Count(k.ReturningCustomerOrders)
	}
	return format.Absent
}

func funnelValue(f analytics.FunnelTotals, m analytics.Metric) string {
	switch m {
	case analytics.MetricFunnelSessions:
		return format.Count(f.Sessions)
	case analytics.MetricFunnelCart:
		return format.Count(f.SessionsWithCart)
	case analytics.MetricFunnelCheckout:
		return format.Count(f.SessionsReachedCheckout)
	case analytics.MetricFunnelOrders:
		return format.Count(f.ValidApprovedOrders)
	}
	return format.Absent
}

func badge(c analytics.Comparison, m analytics.Metric) string {
	d, ok := c.Get(m)
	return format.DeltaBadge(d, ok)
}

func newTextModel(view dashboard.View, width int) textModel {
	model := textModel{
		Rule:       strings.Repeat("─", width),
		Title:      "Gestão · Shopify",
		Status:     view.Status,
		Error:      view.Error,
		Preset:     string(view.ActivePreset),
		DeltaLabel: format.DeltaLabel,
	}
	if view.SelectedRange != nil {
		model.Range = format.RangeShort(*view.SelectedRange)
	}

	data := view.Data
	if data == nil {
		return model
	}
	model.HasData = true
	model.Range = format.RangeShort(data.Range)
	if data.HasComparison {
		model.CompareLabel = format.CompareLabel(data.ComparisonRange)
	}

	for _, m := range analytics.KpiMetrics {
		model.Kpis = append(model.Kpis, kpiLine{
			Label: kpiLabels[m],
			Value: kpiValue(data.Kpis, m),
			Badge: badge(data.KpiDeltas, m),
		})
	}

	for _, m := range analytics.FunnelMetrics {
		model.Funnel = append(model.Funnel, kpiLine{
			Label: kpiLabels[m],
			Value: funnelValue(data.Funnel, m),
			Badge: badge(data.FunnelDeltas, m),
		})
	}
	model.Rates = []kpiLine{
		{Label: "Sessão → carrinho", Value: format.Pct(data.Funnel.AddToCartRate, 1)},
		{Label: "Sessão → checkout", Value: format.Pct(data.Funnel.CheckoutRate, 1)},
		{Label: "Sessão → pedido", Value: format.Pct(data.Funnel.PurchaseRate, 2)},
		{Label: "Checkout → pedido", Value: format.Pct(data.Funnel.CheckoutToPurchaseRate, 1)},
	}

	for _, row := range data.TopChannels {
		model.Channels = append(model.Channels, channelLine{
			Name:     row.Channel,
			Type:     format.ChannelType(row.Type),
			Sessions: format.Count(row.Sessions),
			Revenue:  format.BRL(row.Revenue),
			Orders:   format.Count(row.Orders),
			Share:    format.Pct(row.RevenueShare, 1),
		})
	}

	for _, day := range data.RecentDays {
		model.Days = append(model.Days, dayLine{
			Day:        format.DayMonth(day.Date),
			Sessions:   format.Count(day.Sessions),
			Cart:       format.Count(day.SessionsWithCart),
			Checkout:   format.Count(day.SessionsReachedCheckout),
			Orders:     format.Count(day.ValidApprovedOrders),
			Conversion: format.Pct(day.ConversionRate, 2),
		})
	}

	return model
}

var textTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pad": func(width int, s string) string {
		if n := width - len([]rune(s)); n > 0 {
			return s + strings.Repeat(" ", n)
		}
		return s
	},
}).Parse(`{{.Title}}  {{.Range}}{{if .Preset}} ({{.Preset}}){{end}}
{{.Rule}}
{{- if .Error}}
Erro: {{.Error}}
{{- end}}
{{- if not .HasData}}
{{if eq .Status "pending"}}Carregando…{{else}}Sem dados{{end}}
{{- else}}
{{if .CompareLabel}}{{.CompareLabel}}{{else}}Sem período de comparação{{end}}

KPIs
{{- range .Kpis}}
  {{pad 20 .Label}} {{pad 16 .Value}} {{.Badge}}
{{- end}}
  {{$.DeltaLabel}}

Funil
{{- range .Funnel}}
  {{pad 20 .Label}} {{pad 16 .Value}} {{.Badge}}
{{- end}}
{{- range .Rates}}
  {{pad 20 .Label}} {{.Value}}
{{- end}}
{{- if .Channels}}

Canais
{{- range .Channels}}
  {{pad 14 .Name}} {{pad 8 .Type}} {{pad 10 .Sessions}} {{pad 16 .Revenue}} {{pad 8 .Orders}} {{.Share}}
{{- end}}
{{- end}}
{{- if .Days}}

Últimos dias
{{- range .Days}}
  {{.Day}}  {{pad 10 .Sessions}} {{pad 8 .Cart}} {{pad 8 .Checkout}} {{pad 8 .Orders}} {{.Conversion}}
{{- end}}
{{- end}}
{{- end}}
`))
