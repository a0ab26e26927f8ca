package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/locator"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

var meter = otel.Meter("github.com/royalcat/geoloc/server")

// Run serves the locator API on address until ctx is cancelled.
func Run(ctx context.Context, address string, loc *locator.Locator) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return Serve(ctx, ln, loc)
}

// Serve is Run on an existing listener. The listener is closed on return.
func Serve(ctx context.Context, ln net.Listener, loc *locator.Locator) error {
	log := slog.Default()

	s, err := newServer(loc)
	if err != nil {
		ln.Close()
		return err
	}

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            s.router().Handler,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()
	log.Info("Server listening", "address", ln.Addr().String())

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	<-serveErr
	log.Info("Server stopped")
	return nil
}

type server struct {
	loc *locator.Locator

	metricHttpNearestCallCount      metric.Int64Counter
	metricHttpNearestMultiCallCount metric.Int64Counter
	metricPointsLocated             metric.Int64Counter
	metricPointsUpserted            metric.Int64Counter
}

func newServer(loc *locator.Locator) (*server, error) {
	nearestCalls, err := meter.Int64Counter("http_nearest_call_total")
	if err != nil {
		return nil, err
	}
	nearestMultiCalls, err := meter.Int64Counter("http_nearest_multi_call_total")
	if err != nil {
		return nil, err
	}
	located, err := meter.Int64Counter("points_located_total")
	if err != nil {
		return nil, err
	}
	upserted, err := meter.Int64Counter("points_upserted_total")
	if err != nil {
		return nil, err
	}

	return &server{
		loc: loc,

		metricHttpNearestCallCount:      nearestCalls,
		metricHttpNearestMultiCallCount: nearestMultiCalls,
		metricPointsLocated:             located,
		metricPointsUpserted:            upserted,
	}, nil
}

func (s *server) router() *router.Router {
	r := router.New()
	r.GET("/geoloc/nearest/{lat}/{lon}", s.NearestHandler)
	r.POST("/geoloc/nearest", s.NearestMultiHandler)
	r.PUT("/geoloc/points/{lat}/{lon}", s.UpsertHandler)
	r.GET("/geoloc/points", s.PointsHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	return r
}

var reqPointsPool = sync.Pool{
	New: func() any {
		return &[][2]float64{}
	},
}

func pathCoordinates(ctx *fasthttp.RequestCtx) (lat, lon float64, ok bool) {
	latS, _ := ctx.UserValue("lat").(string)
	lonS, _ := ctx.UserValue("lon").(string)

	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(lonS, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, locator.ValidCoordinate(lat, lon)
}

func (s *server) NearestHandler(ctx *fasthttp.RequestCtx) {
	s.metricHttpNearestCallCount.Add(ctx, 1)

	lat, lon, ok := pathCoordinates(ctx)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}

	s.metricPointsLocated.Add(ctx, 1)
	r, ok := s.loc.Find(lat, lon)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNoContent)
		return
	}

	out, err := json.Marshal(r)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	ctx.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

func (s *server) NearestMultiHandler(ctx *fasthttp.RequestCtx) {
	s.metricHttpNearestMultiCallCount.Add(ctx, 1)

	req := reqPointsPool.Get().(*[][2]float64) // lat, lon
	*req = (*req)[:0]
	defer reqPointsPool.Put(req)

	err := parsePointsList(ctx.Request.Body(), req)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	s.metricPointsLocated.Add(ctx, int64(len(*req)))

	res := make(geomodel.InfoList, 0, len(*req))
	for _, p := range *req {
		r, _ := s.loc.Find(p[0], p[1])
		res = append(res, r.Info)
	}

	data, err := res.MarshalJSON()
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(data)
}

func (s *server) UpsertHandler(ctx *fasthttp.RequestCtx) {
	lat, lon, ok := pathCoordinates(ctx)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}

	var info geomodel.Info
	if err := json.Unmarshal(ctx.Request.Body(), &info); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	inserted, err := s.loc.Upsert(lat, lon, info)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString(err.Error())
		return
	}
	s.metricPointsUpserted.Add(ctx, 1)

	if inserted {
		ctx.Response.SetStatusCode(http.StatusCreated)
	} else {
		ctx.Response.SetStatusCode(http.StatusOK)
	}
}

func (s *server) PointsHandler(ctx *fasthttp.RequestCtx) {
	data, err := s.loc.FeatureCollection().MarshalJSON()
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/geo+json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(data)
}
