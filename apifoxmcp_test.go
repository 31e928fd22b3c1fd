package apifoxmcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/apifoxmcp/internal/apifox"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/journal"
)

const petProject = `{
  "openapi": "3.0.0",
  "info": {"title": "Pets", "version": "1.0"},
  "paths": {
    "/pets": {
      "get": {
        "summary": "List pets",
        "tags": ["Pets"],
        "responses": {"200": {"description": "OK"}}
      }
    }
  }
}`

type stubPlatform struct {
	doc     *openapi3.T
	exports []apifox.ExportOptions
}

func (p *stubPlatform) CheckConfig() error { return nil }

func (p *stubPlatform) Export(ctx context.Context, opts apifox.ExportOptions) (*openapi3.T, error) {
	p.exports = append(p.exports, opts)
	return p.doc, nil
}

func (p *stubPlatform) Import(ctx context.Context, doc *openapi3.T, opts apifox.ImportOptions) (apifox.Counters, error) {
	return apifox.Counters{}, nil
}

func newStubPlatform(t *testing.T) *stubPlatform {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData([]byte(petProject))
	require.NoError(t, err)
	return &stubPlatform{doc: doc}
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Apifox.Token = "APS-0123456789abcdef"
	cfg.Apifox.ProjectID = "4242"
	cfg.Journal.SQLitePath = filepath.Join(t.TempDir(), "journal.db")
	return cfg
}

func TestNewServerWiresComponents(t *testing.T) {
	cfg := testConfig(t)
	srv, err := NewServer(ServerOptions{Config: cfg, Platform: newStubPlatform(t)})
	require.NoError(t, err)
	defer srv.Stop()

	assert.Same(t, cfg, srv.Config())
	assert.NotNil(t, srv.ToolServer())
	assert.NotNil(t, srv.Metrics())
	_, isSQLite := srv.journal.(*journal.SQLiteJournal)
	assert.True(t, isSQLite)
}

func TestNewServerJournalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false

	srv, err := NewServer(ServerOptions{Config: cfg, Platform: newStubPlatform(t)})
	require.NoError(t, err)
	defer srv.Stop()

	assert.IsType(t, journal.Nop{}, srv.journal)
}

func TestNewServerBadJournalPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.SQLitePath = filepath.Join(t.TempDir(), "missing", "dir", "journal.db")

	_, err := NewServer(ServerOptions{Config: cfg})
	require.Error(t, err)
	assert.True(t, errortypes.Is(err, errortypes.ErrorTypeDatabase))
}

func TestSettingsFrom(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules.ExtractSchemas = true

	s := SettingsFrom(cfg)
	assert.Equal(t, "APS-0123...cdef", s.MaskedToken)
	assert.Equal(t, "4242", s.ProjectID)
	assert.True(t, s.ExtractSchemas)

	cfg.Apifox.Token = ""
	assert.Empty(t, SettingsFrom(cfg).MaskedToken)
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false
	platform := newStubPlatform(t)
	srv, err := NewServer(ServerOptions{Config: cfg, Platform: platform})
	require.NoError(t, err)
	defer srv.Stop()

	ctx := context.Background()
	asJSON, jsonPrint, err := srv.Export(ctx, "", true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(asJSON), "{"))
	assert.True(t, platform.exports[0].AddFoldersToTags)

	asYAML, yamlPrint, err := srv.Export(ctx, "yaml", false)
	require.NoError(t, err)
	assert.Contains(t, string(asYAML), "title: Pets")
	assert.Equal(t, jsonPrint, yamlPrint)

	_, _, err = srv.Export(ctx, "xml", false)
	assert.True(t, errortypes.IsValidationError(err))
}

func TestAudit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false
	srv, err := NewServer(ServerOptions{Config: cfg, Platform: newStubPlatform(t)})
	require.NoError(t, err)
	defer srv.Stop()

	out, err := srv.Audit(context.Background(), "", false)
	require.NoError(t, err)
	assert.Contains(t, out, "Incomplete: 1")
}
