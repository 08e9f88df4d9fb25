package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/multichat/pkg/multichat"
	"github.com/janhq/multichat/pkg/protocol"
)

func catalogServer(t *testing.T, models ...protocol.CatalogModel) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != multichat.DefaultModelsPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(protocol.CatalogResponse{Object: "list", Data: models})
	}))
	t.Cleanup(srv.Close)
	return srv
}

var cliModels = []protocol.CatalogModel{
	{ID: "groq-a", Name: "Model A", Provider: "groq", ModelID: "model-a"},
	{ID: "cerebras-b", Name: "Model B", Provider: "cerebras", ModelID: "model-b"},
}

func TestSelectModels(t *testing.T) {
	srv := catalogServer(t, cliModels...)
	client := multichat.NewClient(srv.URL)

	tests := []struct {
		name    string
		ids     []string
		want    []string
		wantErr string
	}{
		{name: "all by default", want: []string{"groq-a", "cerebras-b"}},
		{name: "requested order", ids: []string{"cerebras-b", "groq-a"}, want: []string{"cerebras-b", "groq-a"}},
		{name: "unknown id", ids: []string{"groq-a", "nope"}, wantErr: "unknown model id(s): nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectModels(context.Background(), client, tt.ids)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, m := range got {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestWriteModelTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeModelTable(&buf, cliModels))

	out := buf.String()
	assert.Contains(t, out, "groq-a")
	assert.Contains(t, out, "Model B")
	assert.Contains(t, out, "model-b")
}

func TestRenderSnapshot(t *testing.T) {
	snap := multichat.Snapshot{Models: []multichat.ModelState{
		{ID: "a", Name: "Model A", Text: "Hello world", Done: true},
		{ID: "b", Name: "Model B", Error: "upstream returned 503"},
		{ID: "c", Name: "Model C"},
	}}

	out := renderSnapshot(snap, 60)
	assert.Contains(t, out, "Hello world")
	assert.Contains(t, out, "upstream returned 503")
	assert.Contains(t, out, "no response")
	assert.Equal(t, "2/3 finished, 0 streaming, 1 failed", progressLine(snap))

	assert.Contains(t, renderSnapshot(multichat.Snapshot{}, 60), "no models")
}
