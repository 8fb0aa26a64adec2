package memapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/fruitsalade/explorer/internal/logging"
	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

func TestMain(m *testing.M) {
	logging.InitNop()
	os.Exit(m.Run())
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := NewStore()
	if err := Seed(store); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	ts := httptest.NewServer(New(store))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	var resp protocol.Response[map[string]string]
	if code := doJSON(t, http.MethodGet, ts.URL+"/health", nil, &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !resp.Success || resp.Data["status"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestListFoldersEnvelope(t *testing.T) {
	ts := testServer(t)
	var resp protocol.PaginatedResponse[models.Folder]
	code := doJSON(t, http.MethodGet, ts.URL+"/folders?limit=3&sortBy=name&sortOrder=desc", nil, &resp)
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, success = %v", code, resp.Success)
	}
	if resp.Pagination.Total != 8 || resp.Pagination.Limit != 3 || resp.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
	if len(resp.Data) != 3 || resp.Data[0].Name != "Work" {
		t.Errorf("first page = %+v", resp.Data)
	}
}

func TestFolderContentsAndTree(t *testing.T) {
	ts := testServer(t)

	var contents protocol.Response[protocol.FolderContents]
	if code := doJSON(t, http.MethodGet, ts.URL+"/folders/1/contents", nil, &contents); code != http.StatusOK {
		t.Fatalf("contents status = %d", code)
	}
	if len(contents.Data.Folders) != 4 {
		t.Errorf("root folders = %d, want 4", len(contents.Data.Folders))
	}
	// Unfiled files are not owned by the root folder.
	if len(contents.Data.Files) != 0 {
		t.Errorf("root files = %d, want 0", len(contents.Data.Files))
	}

	var tree protocol.Response[[]*models.Folder]
	if code := doJSON(t, http.MethodGet, ts.URL+"/folders/tree/all", nil, &tree); code != http.StatusOK {
		t.Fatalf("tree status = %d", code)
	}
	if len(tree.Data) != 1 || len(tree.Data[0].Children) != 4 {
		t.Errorf("tree = %+v", tree.Data)
	}
}

func TestErrorEnvelope(t *testing.T) {
	ts := testServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing folder", http.MethodGet, "/folders/999", nil, http.StatusNotFound},
		{"bad folder id", http.MethodGet, "/folders/abc", nil, http.StatusBadRequest},
		{"missing file", http.MethodDelete, "/files/999", nil, http.StatusNotFound},
		{"empty folder name", http.MethodPost, "/folders", protocol.CreateFolderRequest{}, http.StatusBadRequest},
		{"bad item type", http.MethodGet, "/favorites/check/link/1", nil, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp protocol.Response[json.RawMessage]
			code := doJSON(t, tt.method, ts.URL+tt.path, tt.body, &resp)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("envelope = %+v, want success=false with an error", resp)
			}
		})
	}
}

func TestMoveFileToUnfiled(t *testing.T) {
	ts := testServer(t)
	var resp protocol.Response[models.File]
	code := doJSON(t, http.MethodPost, ts.URL+"/files/1/move", protocol.MoveFileRequest{}, &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Data.FolderID != nil || resp.Data.Path != "/report.pdf" {
		t.Errorf("moved = %+v", resp.Data)
	}
}

func TestFavoriteCheckRoute(t *testing.T) {
	ts := testServer(t)
	tests := []struct {
		path string
		want bool
	}{
		{"/favorites/check/folder/2", true},
		{"/favorites/check/file/1", true},
		{"/favorites/check/file/2", false},
		{"/favorites/check/folder/999", false},
	}
	for _, tt := range tests {
		var resp protocol.Response[protocol.FavoriteCheck]
		if code := doJSON(t, http.MethodGet, ts.URL+tt.path, nil, &resp); code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.path, code)
		}
		if resp.Data.IsFavorite != tt.want {
			t.Errorf("%s: is_favorite = %v, want %v", tt.path, resp.Data.IsFavorite, tt.want)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	ts := testServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set(logging.RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(logging.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

