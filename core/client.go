package core

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NetworkClient is a thin HTTP facade over the server's endpoints, with a
// shared *http.Client and per-call context timeouts. Every network error is
// caught and reported as a structured {"error": ...} map; nothing ever
// propagates as a Go error to callers that just want the wire-contract
// shape, matching the spec's "no exception escapes" client contract.
type NetworkClient struct {
	httpClient  *http.Client
	pingTimeout time.Duration
}

// NewNetworkClient builds a client with the given request timeout and a
// separate (shorter) ping timeout.
func NewNetworkClient(timeout, pingTimeout time.Duration) *NetworkClient {
	return &NetworkClient{
		httpClient:  &http.Client{Timeout: timeout},
		pingTimeout: pingTimeout,
	}
}

func url(host string, port int, path string) string {
	return fmt.Sprintf("http://%s:%d%s", host, port, path)
}

func (c *NetworkClient) postBinary(ctx context.Context, endpoint string, body []byte) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	defer resp.Body.Close()
	return decodeJSONMap(resp.Body)
}

func (c *NetworkClient) getJSON(ctx context.Context, endpoint string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	defer resp.Body.Close()
	return decodeJSONMap(resp.Body)
}

func decodeJSONMap(r io.Reader) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	return out, nil
}

// SubmitRecord posts a record's wire bytes to host:port/records.
func (c *NetworkClient) SubmitRecord(ctx context.Context, host string, port int, wireBytes []byte) map[string]interface{} {
	out, _ := c.postBinary(ctx, url(host, port, "/records"), wireBytes)
	return out
}

// QueryRecords fetches recent records since the given unix timestamp.
func (c *NetworkClient) QueryRecords(ctx context.Context, host string, port int, since int64, limit int) []map[string]interface{} {
	endpoint := fmt.Sprintf("%s?since=%d&limit=%d", url(host, port, "/records"), since, limit)
	out, _ := c.getJSON(ctx, endpoint)
	records, _ := out["records"].([]interface{})
	result := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		if m, ok := r.(map[string]interface{}); ok {
			result = append(result, m)
		}
	}
	return result
}

// RequestWitness posts a record's wire bytes to host:port/witness. When
// verifyKey and signable are both non-empty, the returned signature is
// verified against the witness's claimed public key before it is returned;
// on verification failure the method substitutes an error map rather than
// the (unverified) raw result.
func (c *NetworkClient) RequestWitness(ctx context.Context, host string, port int, wireBytes, verifyKey, signable []byte) map[string]interface{} {
	out, _ := c.postBinary(ctx, url(host, port, "/witness"), wireBytes)
	if _, isErr := out["error"]; isErr {
		return out
	}
	if len(verifyKey) == 0 || len(signable) == 0 {
		return out
	}

	sigHex, _ := out["signature"].(string)
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return map[string]interface{}{"error": "witness signature verification failed"}
	}
	ok, err := PQVerify(AlgoPrimary, verifyKey, signable, sig)
	if err != nil || !ok {
		return map[string]interface{}{"error": "witness signature verification failed"}
	}
	return out
}

// GetStatus fetches host:port/status.
func (c *NetworkClient) GetStatus(ctx context.Context, host string, port int) map[string]interface{} {
	out, _ := c.getJSON(ctx, url(host, port, "/status"))
	return out
}

// Ping checks host:port/ping with the client's shorter ping timeout. It
// satisfies the Pinger interface peer.go's HeartbeatOnce depends on.
func (c *NetworkClient) Ping(host string, port int) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.pingTimeout)
	defer cancel()

	out, err := c.getJSON(ctx, url(host, port, "/ping"))
	if err != nil {
		return err
	}
	if msg, isErr := out["error"]; isErr {
		return fmt.Errorf("ping failed: %v", msg)
	}
	if pong, _ := out["pong"].(bool); !pong {
		return fmt.Errorf("ping failed: no pong")
	}
	return nil
}

// QueryAttestations fetches host:port/attestations?record_id=....
func (c *NetworkClient) QueryAttestations(ctx context.Context, host string, port int, recordID string) []map[string]interface{} {
	endpoint := fmt.Sprintf("%s?record_id=%s", url(host, port, "/attestations"), recordID)
	out, _ := c.getJSON(ctx, endpoint)
	attestations, _ := out["attestations"].([]interface{})
	result := make([]map[string]interface{}, 0, len(attestations))
	for _, a := range attestations {
		if m, ok := a.(map[string]interface{}); ok {
			result = append(result, m)
		}
	}
	return result
}

// Close is a no-op for the stdlib http.Client (no persistent session to
// tear down), kept to mirror the documented client surface.
func (c *NetworkClient) Close() {}
