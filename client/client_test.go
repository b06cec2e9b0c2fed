package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func rpcServer(t *testing.T, handler func(req jsonRPCRequest) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req jsonRPCRequest
		require.NoError(t, json.Unmarshal(body, &req))
		status, resp := handler(req)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Call(t *testing.T) {
	srv := rpcServer(t, func(req jsonRPCRequest) (int, string) {
		assert.Equal(t, "queryLedgerState/utxo", req.Method)
		return http.StatusOK, `{"jsonrpc":"2.0","result":[{"index":0}],"id":1}`
	})

	cli, err := NewHTTPClient(&Config{Endpoint: srv.URL, Protocol: ProtocolHTTP, Timeout: 5})
	require.NoError(t, err)
	defer cli.Close()

	result, err := cli.Call(context.Background(), "queryLedgerState/utxo", map[string]interface{}{"addresses": []string{"addr1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"index":0}]`, string(result))
}

func TestHTTPClient_ErrorHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     int
		checkErr func(*testing.T, *Error)
	}{
		{
			name:   "rpc error",
			status: http.StatusOK,
			body:   `{"jsonrpc":"2.0","error":{"code":2001,"message":"unknown address","data":{"hint":"x"}},"id":1}`,
			code:   ErrCodeRPCError,
			checkErr: func(t *testing.T, e *Error) {
				assert.Equal(t, 2001, e.RPCCode)
				assert.JSONEq(t, `{"hint":"x"}`, string(e.Data))
			},
		},
		{
			name:   "http status",
			status: http.StatusBadGateway,
			body:   "upstream down",
			code:   ErrCodeHTTPStatus,
			checkErr: func(t *testing.T, e *Error) {
				assert.Equal(t, http.StatusBadGateway, e.HTTPStatus)
				assert.Contains(t, e.Message, "upstream down")
			},
		},
		{
			name:   "invalid json",
			status: http.StatusOK,
			body:   "not json",
			code:   ErrCodeInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rpcServer(t, func(jsonRPCRequest) (int, string) { return tt.status, tt.body })
			cli, err := NewHTTPClient(&Config{Endpoint: srv.URL, Timeout: 5})
			require.NoError(t, err)

			_, err = cli.Call(context.Background(), "m", nil)
			require.Error(t, err)

			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %T", err)
			assert.Equal(t, tt.code, cerr.Code)
			if tt.checkErr != nil {
				tt.checkErr(t, cerr)
			}
		})
	}
}

func TestHTTPClient_RetryIsOptIn(t *testing.T) {
	var calls atomic.Int32
	srv := rpcServer(t, func(jsonRPCRequest) (int, string) {
		if calls.Add(1) < 3 {
			return http.StatusServiceUnavailable, ""
		}
		return http.StatusOK, `{"jsonrpc":"2.0","result":true,"id":1}`
	})

	noRetry, err := NewHTTPClient(&Config{Endpoint: srv.URL, Timeout: 5})
	require.NoError(t, err)
	_, err = noRetry.Call(context.Background(), "m", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	var retried []int
	withRetryCfg, err := NewHTTPClient(&Config{
		Endpoint: srv.URL,
		Timeout:  5,
		Retry: &RetryConfig{
			MaxRetries:        3,
			InitialDelay:      1,
			MaxDelay:          5,
			BackoffMultiplier: 2,
			OnRetry:           func(attempt int, _ error) { retried = append(retried, attempt) },
		},
	})
	require.NoError(t, err)
	result, err := withRetryCfg.Call(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Equal(t, "true", string(result))
	assert.Equal(t, []int{1, 2}, retried)
}

func TestHTTPClient_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("project_id"))
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":null,"id":1}`))
	}))
	defer srv.Close()

	cli, err := NewHTTPClient(&Config{Endpoint: srv.URL, Headers: map[string]string{"project_id": "secret"}})
	require.NoError(t, err)
	_, err = cli.Call(context.Background(), "m", nil)
	require.NoError(t, err)
}

func TestRESTClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/datums/abcd":
			_, _ = w.Write([]byte(`{"datum":"d87980"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rest, err := NewRESTClient(&Config{Endpoint: srv.URL + "/", Timeout: 5})
	require.NoError(t, err)

	var out struct {
		Datum string `json:"datum"`
	}
	require.NoError(t, rest.GetJSON(context.Background(), "datums/abcd", &out))
	assert.Equal(t, "d87980", out.Datum)

	_, err = rest.Get(context.Background(), "/datums/missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	assert.Equal(t, "https://ipfs.example/x", rest.URL("https://ipfs.example/x"))
}

func TestNewClient_UnsupportedProtocol(t *testing.T) {
	_, err := NewClient(&Config{Protocol: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	tests := map[string]string{
		"http://node:1337":  "ws://node:1337",
		"https://node:1337": "wss://node:1337",
		"wss://node":        "wss://node",
		"node:1337":         "ws://node:1337",
	}
	for in, want := range tests {
		assert.Equal(t, want, websocketURL(in), in)
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(NewHTTPStatusError(http.StatusTooManyRequests, nil)))
	assert.True(t, isRetryableError(NewHTTPStatusError(http.StatusInternalServerError, nil)))
	assert.False(t, isRetryableError(NewHTTPStatusError(http.StatusNotFound, nil)))
	assert.True(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryableError(errors.New("bad request")))
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := With(NewZapLogger(zap.New(core)), "component", "client")
	l.Warn("Retrying request", "attempt", 2)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Retrying request", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "client", fields["component"])
	assert.Equal(t, int64(2), fields["attempt"])

	nop := With(NopLogger{}, "k", "v")
	nop.Info("dropped")
}
