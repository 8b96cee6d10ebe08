package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reaperio/autoitem/internal/catalog"
	"github.com/reaperio/autoitem/internal/db"
	exportpkg "github.com/reaperio/autoitem/internal/export"
	"github.com/reaperio/autoitem/internal/sampler"
	"github.com/reaperio/autoitem/internal/scene"
)

func newExportRequest(t *testing.T, req exportpkg.ExportRequest) *http.Request {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/export/reaper", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	return authed(httpReq)
}

func TestExportReaper_Validation(t *testing.T) {
	router := NewRouter(testConfig(&fakeService{}))

	tests := []struct {
		name string
		req  exportpkg.ExportRequest
		code string
	}{
		{name: "missing scene", req: exportpkg.ExportRequest{Object: "Cube", Boundary: "Bounds"}, code: "BAD_REQUEST"},
		{name: "missing object", req: exportpkg.ExportRequest{SceneID: "s1", Boundary: "Bounds"}, code: "BAD_REQUEST"},
		{name: "missing boundary", req: exportpkg.ExportRequest{SceneID: "s1", Object: "Cube"}, code: "BAD_REQUEST"},
		{name: "tempo too high", req: exportpkg.ExportRequest{SceneID: "s1", Object: "Cube", Boundary: "Bounds", Tempo: 1025}, code: "INVALID_TEMPO"},
		{name: "negative tempo", req: exportpkg.ExportRequest{SceneID: "s1", Object: "Cube", Boundary: "Bounds", Tempo: -1}, code: "INVALID_TEMPO"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, newExportRequest(t, tc.req))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if body := decodeJSONBody(t, rr); body["code"] != tc.code {
				t.Errorf("code = %v, want %s", body["code"], tc.code)
			}
		})
	}
}

func TestExportReaper_UnknownField(t *testing.T) {
	router := NewRouter(testConfig(&fakeService{}))

	req := authed(httptest.NewRequest(http.MethodPost, "/export/reaper",
		strings.NewReader(`{"scene_id":"s1","object":"Cube","boundary":"Bounds","bpm":120}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportReaper_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{catalog.ErrSceneNotFound, http.StatusNotFound, "SCENE_NOT_FOUND"},
		{fmt.Errorf("moving object: %w", scene.ErrObjectNotFound), http.StatusNotFound, "OBJECT_NOT_FOUND"},
		{fmt.Errorf("%w: not a directory", exportpkg.ErrOutputDir), http.StatusBadRequest, "INVALID_OUTPUT_DIR"},
		{sampler.ErrDegenerateExtent, http.StatusUnprocessableEntity, "DEGENERATE_BOUNDARY"},
		{sampler.ErrDegenerateStep, http.StatusUnprocessableEntity, "DEGENERATE_STEP"},
		{sampler.ErrInvalidRange, http.StatusUnprocessableEntity, "INVALID_TIMELINE"},
		{fmt.Errorf("write /out/x: no space left on device"), http.StatusInternalServerError, "EXPORT_FAILED"},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			router := NewRouter(testConfig(&fakeService{exportErr: tc.err}))

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, newExportRequest(t, exportpkg.ExportRequest{
				SceneID: "s1", Object: "Cube", Boundary: "Bounds",
			}))

			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if body := decodeJSONBody(t, rr); body["code"] != tc.code {
				t.Errorf("code = %v, want %s", body["code"], tc.code)
			}
		})
	}
}

func TestExportReaper_PassesRequestThrough(t *testing.T) {
	svc := &fakeService{
		exportJob:     &catalog.Job{ID: "job-1"},
		exportSummary: &exportpkg.Summary{OutputDir: "/out", Ticks: 3},
	}
	router := NewRouter(testConfig(svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newExportRequest(t, exportpkg.ExportRequest{
		SceneID: "s1", Object: "Cube", Boundary: "Bounds", ProjectName: "mix",
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if svc.exportReq.ProjectName != "mix" || svc.exportReq.Tempo != 0 {
		t.Errorf("request = %+v, want project mix and tempo left to defaults", svc.exportReq)
	}

	var resp exportpkg.ExportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response unmarshal error: %v", err)
	}
	if resp.JobID != "job-1" || resp.Message != "files saved to: /out" {
		t.Errorf("response = %+v", resp)
	}
}

const integrationScene = `
name: flyby
fps: 24
frame_start: 1
frame_end: 48
objects:
  - name: Cube
    dimensions: [1, 1, 1]
    keyframes:
      - frame: 1
        location: [0, 0, 0]
        rotation: [0, 0, 0]
      - frame: 48
        location: [2, 4, 1]
        rotation: [0, 0, 1.5707963267948966]
  - name: Bounds
    dimensions: [2, 4, 1]
`

func TestExportReaper_EndToEnd(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	svc := catalog.NewService(repo, nil, catalog.Defaults{})

	scenePath := filepath.Join(t.TempDir(), "flyby.yaml")
	if err := os.WriteFile(scenePath, []byte(integrationScene), 0o644); err != nil {
		t.Fatalf("write scene error = %v", err)
	}

	cfg := testConfig(svc)
	cfg.Tokens = repo
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authed(httptest.NewRequest(http.MethodPost, "/scenes",
		strings.NewReader(`{"path":`+jsonString(scenePath)+`}`))))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add scene status = %d, body %s", rr.Code, rr.Body.String())
	}
	var added AddSceneResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode error = %v", err)
	}

	outDir := t.TempDir()
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, newExportRequest(t, exportpkg.ExportRequest{
		SceneID:     added.SceneID,
		Object:      "Cube",
		Boundary:    "Bounds",
		Tempo:       120,
		OutputDir:   outDir,
		ProjectName: "mix",
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rr.Code, rr.Body.String())
	}

	content, err := os.ReadFile(filepath.Join(outDir, "mix_rot_z.ReaperAutoItem"))
	if err != nil {
		t.Fatalf("failed reading rot_z item: %v", err)
	}
	want := "SRCLEN 4\nLFO 0 0 0 0 0 0 0\nPPT 0 0.5 0\n"
	if !strings.HasPrefix(string(content), want) {
		t.Fatalf("rot_z item = %q, want prefix %q", content, want)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authed(httptest.NewRequest(http.MethodGet, "/jobs", nil)))
	var jobs JobsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(jobs.Jobs) != 1 || jobs.Jobs[0].Status != catalog.JobStatusCompleted || jobs.Jobs[0].Ticks != 5 {
		t.Fatalf("jobs = %+v, want one completed job with 5 ticks", jobs.Jobs)
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
