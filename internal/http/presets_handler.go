package http

import (
	"gestao/internal/timeframe"
)

// PresetsResponse lists the selectable ranges for today
type PresetsResponse struct {
	Today   timeframe.Date      `json:"today"`
	Bounds  timeframe.DateRange `json:"bounds"`
	Presets []timeframe.Preset  `json:"presets"`
}

// PresetsIndexAction returns the preset ranges and the selectable window
func PresetsIndexAction(ctx *Context) error {
	today := ctx.Deps.Parser.Today()
	return ctx.JSON(PresetsResponse{
		Today:   today,
		Bounds:  ctx.Deps.Parser.Bounds(),
		Presets: timeframe.Presets(today),
	})
}
