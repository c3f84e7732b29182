package designs

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Henry5410858/design-sub000/codec"
	"github.com/Henry5410858/design-sub000/compositor"
	"github.com/Henry5410858/design-sub000/core"
	"github.com/Henry5410858/design-sub000/resolver"
)

const thumbnailEdge = 256

// compositeThumbnail renders the document's thumbnail as a PNG data URI.
// Returns "" when compositing fails; the design still saves without one.
func compositeThumbnail(r *http.Request, comp *compositor.Compositor, key string, doc *core.Document) string {
	img, err := comp.Thumbnail(r.Context(), doc, thumbnailEdge)
	if err != nil {
		logrus.WithField("design_key", key).WithError(err).Warn("Thumbnail composite failed, saving without one")
		return ""
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		logrus.WithField("design_key", key).WithError(err).Warn("Thumbnail encode failed, saving without one")
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type (
	CreateDesignRequest struct {
		Kind         string  `json:"kind"`
		CanvasWidth  float64 `json:"canvasWidth"`
		CanvasHeight float64 `json:"canvasHeight"`
		Background   string  `json:"background"`
	}

	CreateDesignResponse struct {
		Key string `json:"key"`
	}

	SaveDesignResponse struct {
		Pointer  string      `json:"pointer"`
		Revision int64       `json:"revision"`
		Flags    codec.Flags `json:"flags"`
	}
)

// HandleCreate mints a key for a fresh, empty design and persists it.
func HandleCreate(res *resolver.Resolver, comp *compositor.Compositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDesignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.CanvasWidth <= 0 {
			req.CanvasWidth = 800
		}
		if req.CanvasHeight <= 0 {
			req.CanvasHeight = 600
		}
		kind := core.DocumentKind(req.Kind)
		if kind == "" {
			kind = core.KindCustom
		}

		doc, err := core.NewDocument(kind, req.CanvasWidth, req.CanvasHeight)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		if req.Background != "" {
			doc.SetBackground(req.Background)
		}

		key := uuid.NewString()
		if _, err := res.Save(r.Context(), key, doc, compositeThumbnail(r, comp, key, doc)); err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Failed to create design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create design"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateDesignResponse{Key: key})
	}
}

// HandleList returns design metadata only; full scene graphs stay in the
// blob store.
func HandleList(res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := res.List(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list designs")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list designs"})
			return
		}
		if records == nil {
			records = []*core.DesignRecord{}
		}
		render.JSON(w, r, records)
	}
}

// HandleGet loads a design and returns its full payload encoding.
func HandleGet(res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		result, err := res.Load(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrRecordNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Design not found"})
				return
			}
			logrus.WithField("design_key", key).WithError(err).Error("Failed to load design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load design"})
			return
		}

		payload, err := codec.Encode(result.Document)
		if err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Failed to encode design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to encode design"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Design-Source", string(result.Source))
		w.Write(payload)
	}
}

// HandleSave stores the posted document payload under the key. The body is
// the same payload format HandleGet returns. A thumbnail is composited as
// part of every save.
func HandleSave(res *resolver.Resolver, comp *compositor.Compositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		doc, err := codec.Decode(body)
		if err != nil {
			logrus.WithField("design_key", key).WithError(err).Warn("Rejecting undecodable design payload")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid design payload"})
			return
		}

		// End-of-gesture discipline: whatever the client sent is re-clamped
		// and the background re-pinned before it is persisted.
		core.NormalizeBackground(doc)
		core.ClampAll(doc)

		saved, err := res.Save(r.Context(), key, doc, compositeThumbnail(r, comp, key, doc))
		if err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Failed to save design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save design"})
			return
		}

		render.JSON(w, r, SaveDesignResponse{
			Pointer:  saved.Pointer,
			Revision: saved.Revision,
			Flags:    saved.Flags,
		})
	}
}

// HandleExport composites the design at an explicit size and returns PNG.
func HandleExport(res *resolver.Resolver, comp *compositor.Compositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		result, err := res.Load(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrRecordNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Design not found"})
				return
			}
			logrus.WithField("design_key", key).WithError(err).Error("Failed to load design for export")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load design"})
			return
		}

		doc := result.Document
		img, err := comp.Composite(r.Context(), doc, int(doc.CanvasWidth), int(doc.CanvasHeight))
		if err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Composite failed")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to composite design"})
			return
		}

		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Failed to encode export")
		}
	}
}

// HandleThumbnail composites the design's preview at thumbnail scale and
// returns PNG. Unlike the stored data-URI thumbnail, this always reflects
// the current payload.
func HandleThumbnail(res *resolver.Resolver, comp *compositor.Compositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		result, err := res.Load(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrRecordNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Design not found"})
				return
			}
			logrus.WithField("design_key", key).WithError(err).Error("Failed to load design for thumbnail")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load design"})
			return
		}

		img, err := comp.Thumbnail(r.Context(), result.Document, thumbnailEdge)
		if err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Thumbnail composite failed")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to composite thumbnail"})
			return
		}

		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Failed to encode thumbnail")
		}
	}
}

// HandleDelete removes a design and its payload.
func HandleDelete(res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if err := res.Delete(r.Context(), key); err != nil {
			logrus.WithField("design_key", key).WithError(err).Error("Failed to delete design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete design"})
			return
		}
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]string{"status": "deleted"})
	}
}
