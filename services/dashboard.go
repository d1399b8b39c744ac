package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/config"
	"github.com/haeseungsung/seoul-map/geo"
	"github.com/haeseungsung/seoul-map/indicators"
	"github.com/haeseungsung/seoul-map/prefetch"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// This type implements the MapService interface, serving the Seoul map
// dashboard's indicator catalog and per-area aggregations over REST.
type dashboard struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server

	// indicator catalog, loaded at startup
	Catalog *catalog.Catalog
	// boundaries for each spatial grain
	Boroughs  *geo.Boundaries
	Districts *geo.Boundaries
	// resolves descriptors into per-area values
	Aggregator *indicators.Aggregator
	// optional licensing aggregate cache (nil when prefetching is disabled)
	Store *prefetch.Store

	// tracks the most recently started resolution per indicator, so a
	// request superseded while in flight is not reported as current
	mutex   sync.Mutex
	started map[string]uint64
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *dashboard) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
		},
	}, nil
}

type TopicsOutput struct {
	Body TopicsResponse `doc:"Every browsable indicator topic"`
}

// handler method for listing the browsable topics
func (service *dashboard) getTopics(ctx context.Context,
	input *struct{}) (*TopicsOutput, error) {

	slog.Info("Querying indicator topics...")
	return &TopicsOutput{
		Body: TopicsResponse{
			Topics: service.Catalog.Topics(),
		},
	}, nil
}

type IndicatorOutput struct {
	Body IndicatorResponse `doc:"The indicator's per-area values and resolution state"`
}

type indicatorInput struct {
	Id   string `path:"id" example:"air_pm25" doc:"the indicator identifier"`
	Hour string `query:"hour" example:"8" doc:"(Optional) hour of day (0-23) for time-windowed indicators"`
	Full bool   `query:"full" doc:"(Optional) return raw dataset rows instead of per-area reductions"`
}

// handler method for resolving a single indicator into per-area values
func (service *dashboard) getIndicator(ctx context.Context,
	input *indicatorInput) (*IndicatorOutput, error) {

	result, err := service.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	return &IndicatorOutput{
		Body: IndicatorResponse{
			IndicatorId:     result.IndicatorId,
			State:           result.State.String(),
			Values:          result.Values,
			Failures:        result.Failures,
			AsOfDate:        result.AsOfDate,
			Generation:      result.Generation,
			BucketMismatch:  result.BucketMismatch,
			MatchedPoints:   result.MatchedPoints,
			UnmatchedPoints: result.UnmatchedPoints,
			Records:         result.Records,
		},
	}, nil
}

// handler method for resolving an indicator and merging its values into the
// boundary geometry for its spatial grain
func (service *dashboard) getIndicatorGeoJson(ctx context.Context,
	input *struct {
		Id   string `path:"id" example:"bike_availability" doc:"the indicator identifier"`
		Hour string `query:"hour" example:"8" doc:"(Optional) hour of day (0-23) for time-windowed indicators"`
	}) (*GeoJsonOutput, error) {

	descriptor, err := service.Catalog.Descriptor(input.Id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}

	var boundaries *geo.Boundaries
	switch descriptor.Grain {
	case catalog.GrainBorough:
		boundaries = service.Boroughs
	case catalog.GrainDistrict:
		boundaries = service.Districts
	default:
		return nil, huma.Error422UnprocessableEntity(
			fmt.Sprintf("Indicator %s has no per-area geometry", input.Id))
	}

	result, err := service.resolve(ctx, &indicatorInput{Id: input.Id, Hour: input.Hour})
	if err != nil {
		return nil, err
	}
	values := make([]geo.Value, len(result.Values))
	for i, value := range result.Values {
		values[i] = geo.Value{
			Borough:   value.Borough,
			District:  value.District,
			Value:     value.Value,
			Auxiliary: value.Auxiliary,
		}
	}
	merged := boundaries.Merge(values, result.IndicatorId)
	data, err := merged.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return &GeoJsonOutput{Body: data}, nil
}

// resolves an indicator, mapping domain errors to HTTP ones and dropping
// results superseded by a newer request for the same indicator
func (service *dashboard) resolve(ctx context.Context,
	input *indicatorInput) (indicators.Result, error) {

	descriptor, err := service.Catalog.Descriptor(input.Id)
	if err != nil {
		return indicators.Result{}, huma.Error404NotFound(err.Error())
	}

	options := indicators.Options{Full: input.Full}
	if input.Hour != "" {
		hour, err := strconv.Atoi(input.Hour)
		if err != nil || hour < 0 || hour > 23 {
			return indicators.Result{}, huma.Error422UnprocessableEntity(
				fmt.Sprintf("Invalid hour: %s (must be 0-23)", input.Hour))
		}
		options.Hour = &hour
	}

	slog.Info(fmt.Sprintf("Resolving indicator %s...", input.Id))
	sequence := service.beginResolution(input.Id)
	result, err := service.Aggregator.Resolve(ctx, descriptor, options)
	if err != nil {
		var unsupported indicators.UnsupportedPatternError
		if errors.As(err, &unsupported) {
			return indicators.Result{}, huma.Error422UnprocessableEntity(err.Error())
		}
		return indicators.Result{}, err
	}
	if service.superseded(input.Id, sequence) {
		return indicators.Result{}, huma.Error409Conflict(
			fmt.Sprintf("A newer request for %s superseded this one", input.Id))
	}
	return result, nil
}

// records the start of a resolution run for an indicator and answers its
// sequence number
func (service *dashboard) beginResolution(id string) uint64 {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	service.started[id]++
	return service.started[id]
}

// reports whether a resolution run was superseded by a newer one
func (service *dashboard) superseded(id string, sequence uint64) bool {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	return service.started[id] != sequence
}

// returns the uptime for the service in seconds
func (service *dashboard) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a map dashboard service given our configuration, loading the
// indicator catalog and boundary files it serves
func NewMapService() (MapService, error) {

	service := new(dashboard)
	service.Name = "seoul-map"
	service.Version = version
	service.Port = -1
	service.started = make(map[string]uint64)

	// load the static data the service works from
	var err error
	service.Catalog, err = catalog.Load(config.Data.CatalogDir)
	if err != nil {
		return nil, err
	}
	service.Boroughs, err = geo.Load(config.Data.BoroughBoundaries, geo.Boroughs)
	if err != nil {
		return nil, err
	}
	service.Districts, err = geo.Load(config.Data.DistrictBoundaries, geo.Districts)
	if err != nil {
		return nil, err
	}
	if config.Data.PrefetchDb != "" {
		maxAge := time.Duration(config.Data.PrefetchMaxAge) * time.Hour
		service.Store, err = prefetch.Open(config.Data.PrefetchDb, maxAge)
		if err != nil {
			return nil, err
		}
	}
	if service.Store != nil {
		service.Aggregator = indicators.NewAggregator(service.Districts, service.Store)
	} else {
		service.Aggregator = indicators.NewAggregator(service.Districts, nil)
	}

	// set up routing
	service.Router = mux.NewRouter()
	api := humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(api, "/", service.getRoot)

	// API v1
	huma.Get(api, "/api/v1/topics", service.getTopics)
	huma.Get(api, "/api/v1/indicators/{id}", service.getIndicator)
	huma.Get(api, "/api/v1/indicators/{id}/geojson", service.getIndicatorGeoJson)

	AddDocEndpoints(service.Router)

	return service, nil
}

// starts the map dashboard service
func (service *dashboard) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *dashboard) Shutdown(ctx context.Context) error {
	if service.Store != nil {
		service.Store.Close()
	}
	if service.Server != nil {
		return service.Server.Shutdown(ctx)
	}
	return nil
}

// closes down the service abruptly, freeing all resources
func (service *dashboard) Close() {
	if service.Store != nil {
		service.Store.Close()
	}
	if service.Server != nil {
		service.Server.Close()
	}
}
