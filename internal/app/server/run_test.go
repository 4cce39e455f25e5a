package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
)

func writeTestPack(t *testing.T, dir string) string {
	t.Helper()
	pack := words.Pack{
		Rules: words.Rules{
			NumRounds:           2,
			RoundSeconds:        60,
			MatchExpirySeconds:  3600,
			GroupChoiceCount:    1,
			MaxTimeExtensions:   1,
			MaxWordReveals:      1,
			TimeExtensionPrices: []int{10},
			RevealPrices:        []int{5},
		},
		Groups: []words.GroupDef{
			{Name: "Food", Categories: []string{"Fruits"}},
		},
		Categories: []words.Definition{
			{Name: "Fruits", Words: []words.WordDef{
				{Word: "apple", Score: 5},
				{Word: "banana", Score: 3},
			}},
		},
	}
	data, err := json.Marshal(pack)
	if err != nil {
		t.Fatalf("marshal pack: %v", err)
	}
	path := filepath.Join(dir, "pack.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	return path
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Addr:          "127.0.0.1:0",
		DataDir:       dir,
		PackPath:      writeTestPack(t, dir),
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		IdleAfter:     time.Minute,
		SweepInterval: time.Minute,
		WakeInterval:  time.Second,
	}
}

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, decoded
}

func TestServerBootstrap(t *testing.T) {
	t.Parallel()

	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer srv.Close()

	ts := httptest.NewServer(srv.API())
	defer ts.Close()

	alice := &apiClient{t: t, server: ts}
	status, body := alice.do(http.MethodPost, "/auth/guest", map[string]string{"name": "alice"})
	if status != http.StatusCreated {
		t.Fatalf("guest status = %d, want %d (%v)", status, http.StatusCreated, body)
	}
	alice.token = body["token"].(string)

	bob := &apiClient{t: t, server: ts}
	status, body = bob.do(http.MethodPost, "/auth/guest", map[string]string{"name": "bob"})
	if status != http.StatusCreated {
		t.Fatalf("guest status = %d, want %d", status, http.StatusCreated)
	}
	bob.token = body["token"].(string)

	status, body = alice.do(http.MethodPost, "/matches", map[string]bool{"vs_bot": false})
	if status != http.StatusCreated {
		t.Fatalf("start match status = %d (%v)", status, body)
	}
	matchID := body["match_id"].(string)
	if body["joined"].(bool) {
		t.Fatalf("first player joined an existing match")
	}

	status, body = bob.do(http.MethodPost, "/matches", map[string]bool{"vs_bot": false})
	if status != http.StatusCreated {
		t.Fatalf("find match status = %d (%v)", status, body)
	}
	if got := body["match_id"].(string); got != matchID {
		t.Fatalf("paired match = %s, want %s", got, matchID)
	}
	if !body["joined"].(bool) {
		t.Fatalf("second player was not paired")
	}

	// Whoever holds the first turn opens the round; the group offer only
	// carries one group, so the choice is forced.
	var mover *apiClient
	for _, client := range []*apiClient{alice, bob} {
		status, body = client.do(http.MethodPost, "/matches/"+matchID+"/round", nil)
		if status == http.StatusOK {
			mover = client
			break
		}
	}
	if mover == nil {
		t.Fatalf("neither player could start the round: %d %v", status, body)
	}
	if body["status"] != "choose_category" {
		t.Fatalf("round status = %v, want choose_category", body["status"])
	}
	groups := body["group_choices"].([]any)
	if len(groups) != 1 {
		t.Fatalf("group choices = %v, want one", groups)
	}

	status, body = mover.do(http.MethodPost, "/matches/"+matchID+"/group", map[string]string{"group": groups[0].(string)})
	if status != http.StatusOK {
		t.Fatalf("choose group status = %d (%v)", status, body)
	}
	if body["status"] != "started" {
		t.Fatalf("round status = %v, want started", body["status"])
	}

	status, body = mover.do(http.MethodPost, "/matches/"+matchID+"/words", map[string]string{"word": "apple"})
	if status != http.StatusOK {
		t.Fatalf("play word status = %d (%v)", status, body)
	}
	// The crowd scorer rates a never-before-played word at the maximum.
	if score := body["score"].(float64); score != 10 {
		t.Fatalf("word score = %v, want 10", score)
	}

	status, body = mover.do(http.MethodGet, "/matches/"+matchID, nil)
	if status != http.StatusOK {
		t.Fatalf("game info status = %d", status)
	}
	if body["state"] != "in_progress" {
		t.Fatalf("state = %v, want in_progress", body["state"])
	}
}

func TestRunStopsOnContext(t *testing.T) {
	t.Parallel()

	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-runErr:
		if err != nil && err != http.ErrServerClosed {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}
