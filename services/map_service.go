package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/indicators"
	"github.com/haeseungsung/seoul-map/seoulapi"
)

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string `json:"name" example:"seoul-map" doc:"The name of the service API"`
	Version       string `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int    `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
}

// a response for a topic listing query (GET)
type TopicsResponse struct {
	// every browsable topic, in catalog order
	Topics []catalog.Topic `json:"topics"`
}

// a response for an indicator resolution query (GET)
type IndicatorResponse struct {
	IndicatorId string `json:"indicator_id"`
	// resolved, partial_failure, failed or no_data
	State  string             `json:"state"`
	Values []indicators.Value `json:"values"`
	// per-unit failure details when the state is partial_failure
	Failures []indicators.UnitFailure `json:"failures,omitempty"`
	// the dataset's as-of date, when it declares one
	AsOfDate string `json:"as_of_date,omitempty"`
	// tags the resolution run, so overlapping requests can discard stale data
	Generation uuid.UUID `json:"generation"`
	// set when a time-windowed dataset reports a different bucket than requested
	BucketMismatch string `json:"bucket_mismatch,omitempty"`
	// spatial aggregation point accounting
	MatchedPoints   int `json:"matched_points,omitempty"`
	UnmatchedPoints int `json:"unmatched_points,omitempty"`
	// raw rows, populated only for full-mode requests
	Records []seoulapi.RawRecord `json:"records,omitempty"`
}

// a response for a GeoJSON join query (GET); the body is the merged
// FeatureCollection, passed through as-is
type GeoJsonOutput struct {
	Body json.RawMessage `contentType:"application/geo+json" doc:"A GeoJSON FeatureCollection with the indicator's values merged into each feature's properties"`
}

// MapService defines the interface for the map dashboard service.
type MapService interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
