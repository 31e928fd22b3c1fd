package apifox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/telemetry"
)

const exportedDoc = `{
  "openapi": "3.0.1",
  "info": {"title": "Shop", "version": "1.0.0"},
  "paths": {
    "/users": {
      "get": {
        "summary": "List users",
        "tags": ["Users"],
        "responses": {"200": {"description": "OK"}}
      }
    }
  },
  "components": {"schemas": {"User": {"type": "object"}}}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:   srv.URL,
		Token:     "afxp_1234567890abcdef",
		ProjectID: "42",
		Timeout:   2 * time.Second,
		Metrics:   telemetry.NewCollector(),
	}), srv
}

func TestRequest_SendsHeaders(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer afxp_1234567890abcdef", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, DefaultAPIVersion, r.Header.Get("X-Apifox-Api-Version"))
		assert.Equal(t, "zh-CN", r.URL.Query().Get("locale"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(`{"ok":true}`))
	})

	res, err := client.Request(context.Background(), http.MethodGet, "/projects/42/thing?locale=zh-CN", nil, url.Values{"page": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, res.Data["ok"])
}

func TestRequest_SuccessBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   map[string]any
	}{
		{"empty body", http.StatusNoContent, "", map[string]any{}},
		{"created json", http.StatusCreated, `{"id":7}`, map[string]any{"id": float64(7)}},
		{"non json", http.StatusOK, "plain text", map[string]any{"raw": "plain text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			res, err := client.Request(context.Background(), http.MethodPost, "/x", map[string]string{"a": "b"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Data)
		})
	}
}

func TestRequest_ErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"forbidden"}`, "HTTP 403: forbidden"},
		{"errorMessage", `{"errorMessage":"bad token"}`, "HTTP 403: bad token"},
		{"error", `{"message":"","error":"denied"}`, "HTTP 403: denied"},
		{"plain text", "nope", "HTTP 403: nope"},
		{"empty", "", "HTTP 403: unknown error"},
		{"long text", strings.Repeat("x", 300), "HTTP 403: " + strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				io.WriteString(w, tt.body)
			})
			_, err := client.Request(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, http.StatusForbidden, errortypes.StatusCode(err))
		})
	}
}

func TestRequest_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Options{BaseURL: srv.URL, Token: "t", ProjectID: "p", Timeout: 50 * time.Millisecond})
	_, err := client.Request(context.Background(), http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.True(t, errortypes.Is(err, errortypes.ErrorTypeTimeout), "got %v", err)
}

func TestRequest_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := NewClient(Options{BaseURL: addr, Token: "t", ProjectID: "p", Timeout: time.Second})
	_, err := client.Request(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.True(t, errortypes.IsNetworkError(err))
}

func TestRequest_MissingConfig(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, ProjectID: "p"})
	_, err := client.Request(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.True(t, errortypes.IsConfigError(err))
	assert.Contains(t, err.Error(), "APIFOX_TOKEN")

	client = NewClient(Options{BaseURL: srv.URL, Token: "t"})
	_, err = client.Export(context.Background(), ExportOptions{})
	assert.True(t, errortypes.IsConfigError(err))
	assert.Contains(t, err.Error(), "APIFOX_PROJECT_ID")

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestExport(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/42/export-openapi", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"type": "ALL"}, body["scope"])
		assert.Equal(t, "3.0", body["oasVersion"])
		assert.Equal(t, "JSON", body["exportFormat"])
		opts := body["options"].(map[string]any)
		assert.Equal(t, true, opts["includeApifoxExtensionProperties"])
		assert.Equal(t, true, opts["addFoldersToTags"])

		io.WriteString(w, exportedDoc)
	})

	doc, err := client.Export(context.Background(), ExportOptions{AddFoldersToTags: true})
	require.NoError(t, err)
	assert.Equal(t, "Shop", doc.Info.Title)
	require.NotNil(t, doc.Paths.Value("/users"))
	assert.Equal(t, "List users", doc.Paths.Value("/users").Get.Summary)
	assert.Contains(t, doc.Components.Schemas, "User")
}

func TestImport(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/42/import-openapi", r.URL.Path)

		var body struct {
			Input   string         `json:"input"`
			Options map[string]any `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "OVERWRITE_EXISTING", body.Options["endpointOverwriteBehavior"])
		assert.Equal(t, "CREATE_NEW", body.Options["schemaOverwriteBehavior"])
		assert.Equal(t, float64(3), body.Options["targetEndpointFolderId"])

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(body.Input), &doc))
		assert.Equal(t, "3.0.0", doc["openapi"])

		io.WriteString(w, `{"success":true,"data":{"counters":{"endpointCreated":0,"endpointUpdated":1,"schemaCreated":2}}}`)
	})

	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info:    &openapi3.Info{Title: "x", Version: "1.0.0"},
		Paths:   openapi3.NewPaths(),
	}
	counters, err := client.Import(context.Background(), doc, ImportOptions{
		EndpointFolderID: 3,
		EndpointBehavior: OverwriteExisting,
	})
	require.NoError(t, err)
	assert.Equal(t, Counters{EndpointUpdated: 1, SchemaCreated: 2}, counters)
	assert.Equal(t, 1, counters.Endpoints())
	assert.Equal(t, 2, counters.Schemas())
}

func TestParseCounters_Missing(t *testing.T) {
	assert.Equal(t, Counters{}, parseCounters(map[string]any{}))
	assert.Equal(t, Counters{}, parseCounters(map[string]any{"data": "x"}))
}

func TestMetricEndpoint(t *testing.T) {
	client := NewClient(Options{ProjectID: "42"})
	assert.Equal(t, "/projects/{id}/export-openapi", client.metricEndpoint("/projects/42/export-openapi?locale=zh-CN"))
}
