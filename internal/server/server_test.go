package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/c4-hoofy/internal/config"
	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Render.Enabled = false
	return cfg
}

func rpc(t *testing.T, handle func(context.Context, json.RawMessage) any, method string) string {
	t.Helper()
	msg := `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":{}}`
	out, err := json.Marshal(handle(context.Background(), json.RawMessage(msg)))
	require.NoError(t, err)
	return string(out)
}

func TestNew_RegistersEverything(t *testing.T) {
	s, cleanup, err := New(testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	handle := func(ctx context.Context, raw json.RawMessage) any { return s.HandleMessage(ctx, raw) }

	toolsList := rpc(t, handle, "tools/list")
	for _, name := range []string{
		"c4_create_project", "c4_list_projects", "c4_create_diagram", "c4_get_diagram",
		"c4_add_element", "c4_update_element", "c4_delete_element",
		"c4_add_relationship", "c4_update_relationship", "c4_delete_relationship",
		"c4_add_sequence_divider", "c4_end_sequence_divider",
		"c4_start_sequence_group", "c4_end_sequence_group",
		"c4_generate_diagram", "c4_export_diagram",
		"c4_workflow_status", "c4_workflow_advance",
	} {
		assert.Contains(t, toolsList, `"`+name+`"`)
	}

	assert.Contains(t, rpc(t, handle, "prompts/list"), `"c4-start"`)
	resourcesList := rpc(t, handle, "resources/list")
	assert.Contains(t, resourcesList, "c4://projects")
	assert.Contains(t, resourcesList, "c4://workflow")
}

func TestBuild(t *testing.T) {
	t.Run("render disabled", func(t *testing.T) {
		c, cleanup, err := Build(testConfig(t), logging.NewNop())
		require.NoError(t, err)
		defer cleanup()
		assert.Nil(t, c.Render)
		assert.NotNil(t, c.Publisher)
	})

	t.Run("render enabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Render.Enabled = true
		cfg.Render.Format = "svg"
		c, cleanup, err := Build(cfg, logging.NewNop())
		require.NoError(t, err)
		defer cleanup()
		require.NotNil(t, c.Render)
		assert.Equal(t, "svg", string(c.Render.Format()))
	})

	t.Run("sqlite store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store = store.BackendSQLite
		c, cleanup, err := Build(cfg, logging.NewNop())
		require.NoError(t, err)
		defer cleanup()
		_, ok := c.Repo.(*store.SQLiteStore)
		assert.True(t, ok, "repo is %T", c.Repo)
	})

	t.Run("unknown store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store = "mongo"
		_, cleanup, err := Build(cfg, logging.NewNop())
		require.Error(t, err)
		cleanup()
	})
}

func TestRetries(t *testing.T) {
	assert.Equal(t, -1, retries(0))
	assert.Equal(t, 3, retries(3))
}

func TestHTTPHandler(t *testing.T) {
	s, cleanup, err := New(testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	srv := httptest.NewServer(HTTPHandler(s))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
}

func TestServerInstructions(t *testing.T) {
	text := serverInstructions()
	for _, want := range []string{"c4_create_project", "c4_workflow_advance", "docs/c4"} {
		assert.Contains(t, text, want)
	}
}
