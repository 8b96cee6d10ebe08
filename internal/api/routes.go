package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reaperio/autoitem/internal/catalog"
)

const defaultJobsLimit = 50

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))
		r.Use(BodyLimitMiddleware(cfg.maxBodyBytes()))

		r.Get("/status", statusHandler(cfg))
		r.Get("/scenes", listScenesHandler(cfg))
		r.Post("/scenes", addSceneHandler(cfg))
		r.Delete("/scenes/{id}", deleteSceneHandler(cfg))
		r.Get("/scenes/{id}/objects", listObjectsHandler(cfg))
		r.Post("/export/reaper", exportReaperHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		scenesCount, err := cfg.CatalogService.CountScenes(ctx)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to count scenes", "INTERNAL_ERROR")
			return
		}
		jobs, err := cfg.CatalogService.ListJobs(ctx, defaultJobsLimit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := StatusResponse{
			State:       "idle",
			ScenesCount: scenesCount,
			JobsCount:   len(jobs),
		}
		if len(jobs) > 0 {
			last := JobToResponse(jobs[0])
			resp.LastJob = &last
			switch jobs[0].Status {
			case catalog.JobStatusRunning:
				resp.State = "exporting"
			case catalog.JobStatusFailed:
				resp.State = "error"
				resp.LastError = jobs[0].Error
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listScenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scenes, err := cfg.CatalogService.GetScenes(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list scenes", "INTERNAL_ERROR")
			return
		}

		resp := ScenesResponse{Scenes: make([]SceneResponse, len(scenes))}
		for i, s := range scenes {
			resp.Scenes[i] = SceneToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func addSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddSceneRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		scene, err := cfg.CatalogService.AddScene(r.Context(), req.Path, req.Name)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, AddSceneResponse{SceneID: scene.ID})
	}
}

func deleteSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "scene id required", "BAD_REQUEST")
			return
		}

		if err := cfg.CatalogService.RemoveScene(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listObjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "scene id required", "BAD_REQUEST")
			return
		}

		sc, err := cfg.CatalogService.LoadScene(r.Context(), id)
		if errors.Is(err, catalog.ErrSceneNotFound) {
			WriteError(w, http.StatusNotFound, "scene not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "SCENE_UNREADABLE")
			return
		}

		objects := sc.Objects()
		resp := ObjectsResponse{SceneID: id, Objects: make([]ObjectResponse, len(objects))}
		for i, o := range objects {
			resp.Objects[i] = ObjectToResponse(o)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultJobsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		jobs, err := cfg.CatalogService.ListJobs(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.CatalogService.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}
