package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gestao/internal/timeframe"
)

// wireNumber accepts a JSON number, a numeric string or null. Null and absent fields decode to 0.
type wireNumber float64

func (n *wireNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		raw = s
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", string(data))
	}
	*n = wireNumber(f)
	return nil
}

type wireKpis struct {
	Vendas             wireNumber `json:"vendas"`
	Pedidos            wireNumber `json:"pedidos"`
	AOV                wireNumber `json:"aov"`
	Sessoes            wireNumber `json:"sessoes"`
	TaxaConversao      wireNumber `json:"taxa_conversao"`
	PedidosNovos       wireNumber `json:"pedidos_novos"`
	PedidosRecorrentes wireNumber `json:"pedidos_recorrentes"`
}

type wireFunnelDay struct {
	Data                    string     `json:"data"`
	Sessoes                 wireNumber `json:"sessoes"`
	SessoesComCarrinho      wireNumber `json:"sessoes_com_carrinho"`
	SessoesChegaramCheckout wireNumber `json:"sessoes_chegaram_checkout"`
	PedidosAprovadosValidos wireNumber `json:"pedidos_aprovados_validos"`
	TaxaConversao           wireNumber `json:"taxa_conversao"`
}

type wireChannel struct {
	Canal                      string     `json:"canal"`
	Tipo                       string     `json:"tipo"`
	Sessoes                    wireNumber `json:"sessoes"`
	Vendas                     wireNumber `json:"vendas"`
	Pedidos                    wireNumber `json:"pedidos"`
	TaxaConversao              wireNumber `json:"taxa_conversao"`
	AOV                        wireNumber `json:"aov"`
	PedidosNovosClientes       wireNumber `json:"pedidos_novos_clientes"`
	PedidosClientesRecorrentes wireNumber `json:"pedidos_clientes_recorrentes"`
}

type wirePayload struct {
	Kpis        *wireKpis       `json:"kpis"`
	FunnelDaily []wireFunnelDay `json:"funnel_daily"`
	Channels    []wireChannel   `json:"channels"`
}

// Decode parses a metrics API response body into a PeriodResult.
// An empty body, or a literal null, is a valid response with no data.
func Decode(body []byte) (*PeriodResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &PeriodResult{DailyFunnel: []FunnelDailyRecord{}, Channels: []ChannelRecord{}}, nil
	}

	var payload wirePayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, &ProtocolError{Message: "malformed JSON", Err: err}
	}

	return payload.toPeriodResult()
}

func (p wirePayload) toPeriodResult() (*PeriodResult, error) {
	result := &PeriodResult{
		DailyFunnel: make([]FunnelDailyRecord, 0, len(p.FunnelDaily)),
		Channels:    make([]ChannelRecord, 0, len(p.Channels)),
	}

	if p.Kpis != nil {
		kpis, err := p.Kpis.toKpiSet()
		if err != nil {
			return nil, err
		}
		result.Kpis = kpis
	}

	seen := make(map[timeframe.Date]struct{}, len(p.FunnelDaily))
	for i, day := range p.FunnelDaily {
		rec, err := day.toRecord()
		if err != nil {
			return nil, &ProtocolError{Message: fmt.Sprintf("funnel_daily[%d]", i), Err: err}
		}
		if _, dup := seen[rec.Date]; dup {
			return nil, &ProtocolError{Message: fmt.Sprintf("funnel_daily[%d]: duplicate date %s", i, rec.Date)}
		}
		seen[rec.Date] = struct{}{}
		result.DailyFunnel = append(result.DailyFunnel, rec)
	}
	sort.SliceStable(result.DailyFunnel, func(i, j int) bool {
		return result.DailyFunnel[i].Date.Before(result.DailyFunnel[j].Date)
	})

	for i, ch := range p.Channels {
		rec, err := ch.toRecord()
		if err != nil {
			return nil, &ProtocolError{Message: fmt.Sprintf("channels[%d]", i), Err: err}
		}
		result.Channels = append(result.Channels, rec)
	}

	return result, nil
}

func (k wireKpis) toKpiSet() (KpiSet, error) {
	var errs fieldErrors
	kpis := KpiSet{
		Revenue:                 errs.amount("vendas", k.Vendas),
		Orders:                  errs.counter("pedidos", k.Pedidos),
		AverageOrderValue:       errs.amount("aov", k.AOV),
		Sessions:                errs.counter("sessoes", k.Sessoes),
		ConversionRate:          errs.amount("taxa_conversao", k.TaxaConversao),
		NewCustomerOrders:       errs.counter("pedidos_novos", k.PedidosNovos),
		ReturningCustomerOrders: errs.counter("pedidos_recorrentes", k.PedidosRecorrentes),
	}
	if errs.err != nil {
		return KpiSet{}, &ProtocolError{Message: "kpis", Err: errs.err}
	}
	return kpis, nil
}

func (w wireFunnelDay) toRecord() (FunnelDailyRecord, error) {
	date, err := timeframe.ParseDate(strings.TrimSpace(w.Data))
	if err != nil {
		return FunnelDailyRecord{}, err
	}
	var errs fieldErrors
	rec := FunnelDailyRecord{
		Date:                    date,
		Sessions:                errs.counter("sessoes", w.Sessoes),
		SessionsWithCart:        errs.counter("sessoes_com_carrinho", w.SessoesComCarrinho),
		SessionsReachedCheckout: errs.counter("sessoes_chegaram_checkout", w.SessoesChegaramCheckout),
		ValidApprovedOrders:     errs.counter("pedidos_aprovados_validos", w.PedidosAprovadosValidos),
		ConversionRate:          errs.amount("taxa_conversao", w.TaxaConversao),
	}
	return rec, errs.err
}

func (w wireChannel) toRecord() (ChannelRecord, error) {
	var errs fieldErrors
	rec := ChannelRecord{
		Channel:                 w.Canal,
		Type:                    ParseChannelType(w.Tipo),
		Sessions:                errs.counter("sessoes", w.Sessoes),
		Revenue:                 errs.amount("vendas", w.Vendas),
		Orders:                  errs.counter("pedidos", w.Pedidos),
		ConversionRate:          errs.amount("taxa_conversao", w.TaxaConversao),
		AverageOrderValue:       errs.amount("aov", w.AOV),
		NewCustomerOrders:       errs.counter("pedidos_novos_clientes", w.PedidosNovosClientes),
		ReturningCustomerOrders: errs.counter("pedidos_clientes_recorrentes", w.PedidosClientesRecorrentes),
	}
	return rec, errs.err
}

// fieldErrors keeps the first validation failure while converting a record
type fieldErrors struct {
	err error
}

func (f *fieldErrors) counter(field string, n wireNumber) int64 {
	v := float64(n)
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		f.fail(field, "must be finite")
	case v < 0:
		f.fail(field, "must not be negative")
	case v != math.Trunc(v):
		f.fail(field, "must be a whole number")
	case v >= math.MaxInt64:
		f.fail(field, "out of range")
	default:
		return int64(v)
	}
	return 0
}

func (f *fieldErrors) amount(field string, n wireNumber) float64 {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		f.fail(field, "must be finite")
		return 0
	}
	return v
}

func (f *fieldErrors) fail(field, msg string) {
	if f.err == nil {
		f.err = fmt.Errorf("%s %s", field, msg)
	}
}
