package model

import (
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/util"
)

// TemperatureKey is the variable a caller sets to override a provider's
// configured sampling temperature for one call.
const TemperatureKey = "temperature"

// Temperature returns the numeric TemperatureKey variable of vars, or
// fallback when it is absent or not a number.
func Temperature(vars *core.Variables, fallback float64) float64 {
	if vars == nil {
		return fallback
	}
	v, ok := vars.Get(TemperatureKey)
	if !ok || v == nil {
		return fallback
	}
	f, err := util.Coerce(TemperatureKey, v, "float")
	if err != nil || f == nil {
		return fallback
	}
	return f.(float64)
}
