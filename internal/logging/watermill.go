// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
)

// NewWatermillLogger adapts the global logger for watermill publishers,
// subscribers and routers.
func NewWatermillLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(NewSlogLoggerFor("eventbus"))
}
