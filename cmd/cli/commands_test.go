package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	testCases := []struct {
		args      []string
		wantPath  string
		wantQuery string
	}{
		{args: []string{"players"}, wantPath: "/players"},
		{args: []string{"add", "Alice#NA1"}, wantPath: "/players/add", wantQuery: "riot_id=Alice%23NA1"},
		{args: []string{"update", "Alice#NA1", "Bob#NA1"}, wantPath: "/update", wantQuery: "riot_id=Alice%23NA1&riot_id=Bob%23NA1"},
		{args: []string{"backfill"}, wantPath: "/backfill"},
		{args: []string{"daily", "--day", "2026-02-10"}, wantPath: "/records/daily", wantQuery: "day=2026-02-10"},
		{args: []string{"duos", "--min-games", "4"}, wantPath: "/duos", wantQuery: "min_games=4"},
		{args: []string{"queues", "Alice#NA1"}, wantPath: "/players/queues", wantQuery: "riot_id=Alice%23NA1"},
		{args: []string{"queues"}, wantPath: "/queues"},
		{args: []string{"profile", "Alice#NA1", "--recent", "5"}, wantPath: "/players/profile", wantQuery: "recent=5&riot_id=Alice%23NA1"},
	}
	for _, tc := range testCases {
		t.Run(tc.args[0], func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(append([]string{"--host", srv.URL}, tc.args...))

			require.NoError(t, rootCmd.Execute())
			assert.Equal(t, tc.wantPath, gotPath)
			assert.Equal(t, tc.wantQuery, gotQuery)
			assert.Contains(t, out.String(), "Status Code: 200")
		})
	}
}
