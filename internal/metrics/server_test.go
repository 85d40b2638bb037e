package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-lod/internal/lod"
)

func TestHandlerExposesRendererMetrics(t *testing.T) {
	r := lod.NewRenderer("metrics-test")
	defer r.Close()
	opts := lod.DefaultOptions()
	r.SetOptions(opts)
	r.OnSurfaceCreated()
	r.AddDrawData(lod.DrawData{NodeID: 1, LocalMat: mgl64.Ident4()})
	r.RefreshDrawData()
	r.OnDrawFrame(0, lod.ViewState{Projection: mgl64.Ident4(), Modelview: mgl64.Ident4()})
	runtime.KeepAlive(opts)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `lod_nodes_created_total{layer="metrics-test"} 1`)
	require.Contains(t, string(body), `lod_nodes_resident{layer="metrics-test"} 1`)
}

func TestHandlerHealth(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
