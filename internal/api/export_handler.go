package api

import (
	"errors"
	"net/http"

	"github.com/reaperio/autoitem/internal/catalog"
	"github.com/reaperio/autoitem/internal/export"
	"github.com/reaperio/autoitem/internal/sampler"
	"github.com/reaperio/autoitem/internal/scene"
)

func exportReaperHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if !decodeJSON(w, r, &req, true) {
			return
		}

		if req.SceneID == "" {
			WriteError(w, http.StatusBadRequest, "scene_id is required", "BAD_REQUEST")
			return
		}
		if req.Object == "" || req.Boundary == "" {
			WriteError(w, http.StatusBadRequest, "object and boundary are required", "BAD_REQUEST")
			return
		}
		if req.Tempo != 0 && (req.Tempo < export.MinTempo || req.Tempo > export.MaxTempo) {
			WriteError(w, http.StatusBadRequest, export.ErrInvalidTempo.Error(), "INVALID_TEMPO")
			return
		}

		job, summary, err := cfg.CatalogService.Export(r.Context(), req)
		if err != nil {
			status, code := exportErrorStatus(err)
			WriteError(w, status, err.Error(), code)
			return
		}

		WriteJSON(w, http.StatusOK, ExportToResponse(job, summary))
	}
}

// exportErrorStatus maps export failures to HTTP status and error code.
func exportErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrSceneNotFound):
		return http.StatusNotFound, "SCENE_NOT_FOUND"
	case errors.Is(err, scene.ErrObjectNotFound):
		return http.StatusNotFound, "OBJECT_NOT_FOUND"
	case errors.Is(err, export.ErrInvalidTempo), errors.Is(err, sampler.ErrInvalidTempo):
		return http.StatusBadRequest, "INVALID_TEMPO"
	case errors.Is(err, export.ErrOutputDir):
		return http.StatusBadRequest, "INVALID_OUTPUT_DIR"
	case errors.Is(err, export.ErrProjectName), errors.Is(err, export.ErrMissingObject):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, sampler.ErrDegenerateExtent):
		return http.StatusUnprocessableEntity, "DEGENERATE_BOUNDARY"
	case errors.Is(err, sampler.ErrDegenerateStep):
		return http.StatusUnprocessableEntity, "DEGENERATE_STEP"
	case errors.Is(err, sampler.ErrInvalidFrameRate), errors.Is(err, sampler.ErrInvalidRange):
		return http.StatusUnprocessableEntity, "INVALID_TIMELINE"
	default:
		return http.StatusInternalServerError, "EXPORT_FAILED"
	}
}
