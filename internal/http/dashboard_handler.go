package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"gestao/internal/analytics"
	"gestao/internal/dashboard"
	"gestao/internal/timeframe"
)

// sseHeartbeat keeps idle event streams open through proxies
const sseHeartbeat = 15 * time.Second

// RangeSelectedResponse acknowledges an asynchronous range selection
type RangeSelectedResponse struct {
	CycleID      string               `json:"cycle_id"`
	Range        timeframe.DateRange  `json:"range"`
	ActivePreset timeframe.RangeLabel `json:"active_preset"`
}

// DeltaResponse is one metric comparison of the published outcome
type DeltaResponse struct {
	Metric    analytics.Metric     `json:"metric"`
	Available bool                 `json:"available"`
	Delta     *analytics.Delta     `json:"delta,omitempty"`
	Range     *timeframe.DateRange `json:"range,omitempty"`
}

func (ctx *Context) currentView() dashboard.View {
	return dashboard.NewView(ctx.Deps.Controller.State(), ctx.Deps.Parser.Today())
}

func parseRange(ctx *Context, params timeframe.RangeParserParams) (timeframe.DateRange, error) {
	r, err := ctx.Deps.Parser.Parse(params)
	if err != nil {
		ctx.Logger.Warn("Invalid range selection",
			slog.String("start", params.FromDate),
			slog.String("end", params.ToDate),
			slog.String("preset", params.Preset),
			slog.Any("error", err))
	}
	return r, err
}

// DashboardIndexAction selects the requested range and responds once its cycle settles
func DashboardIndexAction(ctx *Context) error {
	var params timeframe.RangeParserParams
	if err := ctx.QueryParser(&params); err != nil {
		return badRequest(ctx, err)
	}

	r, err := parseRange(ctx, params)
	if err != nil {
		return badRequest(ctx, err)
	}

	cycle, err := ctx.Deps.Controller.SelectRange(r)
	if err != nil {
		if errors.Is(err, dashboard.ErrClosed) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return badRequest(ctx, err)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), ctx.Deps.WaitTimeout)
	defer cancel()

	state, err := cycle.Wait(waitCtx)
	switch {
	case errors.Is(err, dashboard.ErrSuperseded):
		return ctx.Status(fiber.StatusConflict).JSON(ctx.currentView())
	case errors.Is(err, context.DeadlineExceeded):
		ctx.Logger.Warn("Dashboard cycle did not settle in time",
			slog.String("cycle_id", cycle.ID),
			slog.Duration("timeout", ctx.Deps.WaitTimeout))
		return ctx.Status(fiber.StatusGatewayTimeout).JSON(ctx.currentView())
	case err != nil:
		return err
	}

	view := dashboard.NewView(state, ctx.Deps.Parser.Today())
	return ctx.Status(StatusForFailure(state.Err)).JSON(view)
}

// DashboardRangeAction starts a cycle for the posted range without waiting for it
func DashboardRangeAction(ctx *Context) error {
	var params timeframe.RangeParserParams
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&params); err != nil {
			return badRequest(ctx, err)
		}
	}

	r, err := parseRange(ctx, params)
	if err != nil {
		return badRequest(ctx, err)
	}

	cycle, err := ctx.Deps.Controller.SelectRange(r)
	if err != nil {
		if errors.Is(err, dashboard.ErrClosed) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return badRequest(ctx, err)
	}

	return ctx.Status(fiber.StatusAccepted).JSON(RangeSelectedResponse{
		CycleID:      cycle.ID,
		Range:        r,
		ActivePreset: timeframe.ActivePreset(r, ctx.Deps.Parser.Today()),
	})
}

// DashboardStateAction returns the latest published view
func DashboardStateAction(ctx *Context) error {
	return ctx.JSON(ctx.currentView())
}

// DashboardDeltaAction compares one metric of the published outcome with its comparison period
func DashboardDeltaAction(ctx *Context) error {
	metric, err := analytics.ParseMetric(ctx.Params("metric"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	resp := DeltaResponse{Metric: metric}
	if outcome := ctx.Deps.Controller.Outcome(); outcome != nil {
		resp.Range = &outcome.Range
	}
	if delta, ok := ctx.Deps.Controller.Delta(metric); ok {
		resp.Available = true
		resp.Delta = &delta
	}
	return ctx.JSON(resp)
}

// DashboardEventsAction streams every published view as server-sent events
func DashboardEventsAction(ctx *Context) error {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	states, unsubscribe := ctx.Deps.Controller.Subscribe()
	parser := ctx.Deps.Parser
	logger := ctx.Logger

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		heartbeat := time.NewTicker(sseHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case state, ok := <-states:
				if !ok {
					return
				}
				if err := writeStateEvent(w, dashboard.NewView(state, parser.Today())); err != nil {
					logger.Debug("Event stream closed", slog.Any("error", err))
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeStateEvent(w *bufio.Writer, view dashboard.View) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
