package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"

	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
	"github.com/royalcat/geoloc/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/goleak"
)

func testLocator() *locator.Locator {
	return locator.NewFromItems([]i2dtree.Item[geomodel.Info]{
		i2dtree.NewItem(20, 70, geomodel.Info{Name: "parent"}),
		i2dtree.NewItem(10, 70, geomodel.Info{Name: "left"}),
		i2dtree.NewItem(30, 70, geomodel.Info{Name: "right", City: "Somewhere"}),
	}, locator.WithLogger(slog.New(slog.DiscardHandler)))
}

func testServer(t testing.TB, loc *locator.Locator) *server {
	t.Helper()
	s, err := newServer(loc)
	require.NoError(t, err)
	return s
}

func getRequestCtx(body string, userValues ...string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	for i := 0; i+1 < len(userValues); i += 2 {
		ctx.SetUserValue(userValues[i], userValues[i+1])
	}
	return ctx
}

func TestNearestHandler(t *testing.T) {
	s := testServer(t, testLocator())

	ctx := getRequestCtx("", "lat", "33", "lon", "74")
	s.NearestHandler(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var r locator.Result
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &r))
	assert.Equal(t, "right", r.Info.Name)
	assert.Equal(t, "Somewhere", r.Info.City)
	assert.Equal(t, 30.0, r.Latitude)
	assert.InDelta(t, 5.0, r.Distance, 1e-9)
}

func TestNearestHandlerBadRequest(t *testing.T) {
	s := testServer(t, testLocator())

	for _, coords := range [][2]string{{"abc", "1"}, {"1", ""}, {"NaN", "1"}, {"1", "Inf"}} {
		ctx := getRequestCtx("", "lat", coords[0], "lon", coords[1])
		s.NearestHandler(ctx)
		assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode(), coords)
	}
}

func TestNearestHandlerEmpty(t *testing.T) {
	s := testServer(t, locator.New(locator.WithLogger(slog.New(slog.DiscardHandler))))

	ctx := getRequestCtx("", "lat", "1", "lon", "1")
	s.NearestHandler(ctx)
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
}

func TestNearestMultiHandler(t *testing.T) {
	s := testServer(t, testLocator())

	ctx := getRequestCtx(`[[33, 74], [20,70], [9.5, 70.1]]`)
	s.NearestMultiHandler(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var infos []geomodel.Info
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &infos))
	require.Len(t, infos, 3)
	assert.Equal(t, "right", infos[0].Name)
	assert.Equal(t, "parent", infos[1].Name)
	assert.Equal(t, "left", infos[2].Name)

	ctx = getRequestCtx(`[[1, 2`)
	s.NearestMultiHandler(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestUpsertHandler(t *testing.T) {
	loc := testLocator()
	s := testServer(t, loc)

	ctx := getRequestCtx(`{"name":"bar"}`, "lat", "30", "lon", "70")
	s.UpsertHandler(ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 3, loc.Len())

	r, ok := loc.Find(30, 70)
	require.True(t, ok)
	assert.Equal(t, "bar", r.Info.Name)

	ctx = getRequestCtx(`{"name":"new","city":"Elsewhere"}`, "lat", "40", "lon", "70")
	s.UpsertHandler(ctx)
	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	assert.Equal(t, 4, loc.Len())

	ctx = getRequestCtx(`{"name":`, "lat", "40", "lon", "70")
	s.UpsertHandler(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestPointsHandler(t *testing.T) {
	s := testServer(t, testLocator())

	ctx := getRequestCtx("")
	s.PointsHandler(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]string `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "parent", fc.Features[0].Properties["name"])
}

func serveOnce(t *testing.T) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, testLocator())
	}()

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport}
	resp, err := client.Get(fmt.Sprintf("http://%s/geoloc/nearest/20/70", ln.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	transport.CloseIdleConnections()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"parent"`)

	cancel()
	require.NoError(t, <-done)
}

func TestServeShutsDownCleanly(t *testing.T) {
	// the first round starts fasthttp's process-wide helpers
	serveOnce(t)
	ignore := goleak.IgnoreCurrent()

	serveOnce(t)
	goleak.VerifyNone(t, ignore,
		// the worker pool cleaner sleeps out its idle interval after Stop
		goleak.IgnoreAnyFunction("github.com/valyala/fasthttp.(*workerPool).Start.func2"),
	)
}

func BenchmarkHandlers(b *testing.B) {
	s := testServer(b, testLocator())

	for _, n := range []int{10, 1000, 10_000} {
		b.Run(fmt.Sprintf("NearestMultiHandler-%d", n), func(b *testing.B) {
			points := genereatePoints(n)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				ctx := getRequestCtx(points)
				s.NearestMultiHandler(ctx)
			}
		})
	}
}

func genereatePoints(n int) string {
	points := "["
	for i := range n {
		points += fmt.Sprintf("[%d.5, 70.0]", i%40)
		if i != n-1 {
			points += ","
		}
	}
	points += "]"
	return points
}
