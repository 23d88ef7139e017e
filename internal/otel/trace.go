package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/Alturino/sneakerzone/internal/constants"
)

var Tracer = otel.Tracer(constants.AppMainSneakerZone)
