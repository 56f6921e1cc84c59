package core

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"elara/pkg/config"
)

func newTestServer(t *testing.T, maxRequests int) (*Server, *Identity) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.NetworkConfig{}
	cfg.Identity.Path = filepath.Join(dir, "identity.json")
	cfg.Identity.EntityType = "AI"
	cfg.Identity.Profile = "A"
	cfg.Server.Port = 0
	cfg.Server.NodeType = "leaf"
	cfg.Storage.DataDir = dir
	cfg.Storage.CacheSize = 64
	cfg.RateLimit.MaxRequests = maxRequests
	cfg.RateLimit.WindowSeconds = 60

	container, err := NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv := NewServer(container, "127.0.0.1:0")
	return srv, container.Identity
}

func TestServerSubmitRecordDuplicateIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, 100)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	creator := testIdentity(t, ProfileStandard)
	rec := CreateRecord([]byte("hello"), creator.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, rec.Sign(creator))
	wire, err := rec.ToBytes()
	require.NoError(t, err)

	resp1, err := http.Post(ts.URL+"/records", "application/octet-stream", bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp1.StatusCode)
	resp1.Body.Close()

	resp2, err := http.Post(ts.URL+"/records", "application/octet-stream", bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	resp2.Body.Close()
}

func TestServerSubmitRecordSecondCallRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	creator := testIdentity(t, ProfileStandard)
	rec := CreateRecord([]byte("hello"), creator.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, rec.Sign(creator))
	wire, err := rec.ToBytes()
	require.NoError(t, err)

	resp1, err := http.Post(ts.URL+"/records", "application/octet-stream", bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp1.StatusCode)
	resp1.Body.Close()

	resp2, err := http.Post(ts.URL+"/records", "application/octet-stream", bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp2.StatusCode)
	resp2.Body.Close()
}

func TestServerWitnessFlow(t *testing.T) {
	srv, witnessIdentity := newTestServer(t, 100)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	creator := testIdentity(t, ProfileStandard)
	rec := CreateRecord([]byte("needs witnessing"), creator.PrimaryPublicKey, nil, Public, nil)
	require.NoError(t, rec.Sign(creator))
	wire, err := rec.ToBytes()
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/witness", "application/octet-stream", bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	attResp, err := http.Get(ts.URL + "/attestations?record_id=" + rec.ID)
	require.NoError(t, err)
	defer attResp.Body.Close()
	require.Equal(t, http.StatusOK, attResp.StatusCode)

	_ = witnessIdentity
}

func TestServerPing(t *testing.T) {
	srv, identity := newTestServer(t, 100)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = identity
}
