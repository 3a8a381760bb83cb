package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/framecut/framecut-engine/internal/config"
	"github.com/framecut/framecut-engine/internal/export"
	"github.com/framecut/framecut-engine/internal/keymap"
	"github.com/framecut/framecut-engine/internal/media"
	"github.com/framecut/framecut-engine/internal/session"
	"github.com/framecut/framecut-engine/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Post("/sessions", createSessionHandler(cfg))
		r.Get("/sessions", listSessionsHandler(cfg))
		r.Get("/sessions/{id}", getSessionHandler(cfg))
		r.Delete("/sessions/{id}", closeSessionHandler(cfg))

		r.Post("/sessions/{id}/edits", editHandler(cfg))
		r.Post("/sessions/{id}/undo", undoHandler(cfg))
		r.Post("/sessions/{id}/redo", redoHandler(cfg))
		r.Post("/sessions/{id}/keys", keyHandler(cfg))

		r.Post("/sessions/{id}/export", startExportHandler(cfg))
		r.Get("/sessions/{id}/export", exportStatusHandler(cfg))
		r.Delete("/sessions/{id}/export", cancelExportHandler(cfg))
		r.Get("/sessions/{id}/export/edl", exportEDLHandler(cfg))

		r.Post("/assets", registerAssetHandler(cfg))
		r.Get("/assets", listAssetsHandler(cfg))
		r.Get("/assets/{id}", getAssetHandler(cfg))
		r.Put("/assets/{id}/probe", probeAssetHandler(cfg))
		r.Delete("/assets/{id}", deleteAssetHandler(cfg))
		r.Get("/assets/{id}/stream", streamAssetHandler(cfg))

		r.Post("/projects", saveProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects/{id}/load", loadProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
	})

	if cfg.Hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			cfg.Hub.HandleWS(w, r)
		})
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			Sessions: cfg.Sessions.Count(),
		})
	}
}

func sessionFromRequest(cfg ServerConfig, w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "session id required", "BAD_REQUEST")
		return nil
	}
	sess, ok := cfg.Sessions.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return nil
	}
	return sess
}

func createSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := cfg.Sessions.Create()

		// Fan export lifecycle events out to websocket clients and the
		// metrics collector.
		sessionID := sess.ID
		sess.Exporter.OnEvent(func(ev export.Event) {
			if cfg.Hub != nil {
				cfg.Hub.BroadcastExportEvent(sessionID, ev)
			}
			if cfg.Metrics != nil {
				cfg.Metrics.SetExportProgress(ev.Task.Progress)
				switch ev.Type {
				case export.EventCompleted, export.EventFailed, export.EventCancelled:
					cfg.Metrics.RecordExportOutcome(ev.Type)
				}
			}
		})

		if cfg.Metrics != nil {
			cfg.Metrics.SetActiveSessions(cfg.Sessions.Count())
		}
		WriteJSON(w, http.StatusCreated, SessionToResponse(sess))
	}
}

func listSessionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := cfg.Sessions.List()
		resp := SessionsResponse{Sessions: make([]SessionResponse, len(sessions))}
		for i, s := range sessions {
			resp.Sessions[i] = SessionToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}
		WriteJSON(w, http.StatusOK, SessionStateResponse{
			Session: SessionToResponse(sess),
			State:   sess.Editor.State(),
		})
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !cfg.Sessions.Close(id) {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}
		if cfg.Metrics != nil {
			cfg.Metrics.SetActiveSessions(cfg.Sessions.Count())
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func editHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}

		var req EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Op == "" {
			WriteError(w, http.StatusBadRequest, "op is required", "BAD_REQUEST")
			return
		}

		resp, err := applyEdit(sess.Editor, req)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		if cfg.Metrics != nil {
			cfg.Metrics.RecordEdit(req.Op)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// applyEdit routes one edit request to the editor. Unknown ops are an
// error; known ops that change nothing report applied=false.
func applyEdit(ed *timeline.Editor, req EditRequest) (EditResponse, error) {
	resp := EditResponse{Op: req.Op}

	floatOf := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	intOf := func(p *int, def int) int {
		if p == nil {
			return def
		}
		return *p
	}

	switch req.Op {
	case "add_layer":
		resp.LayerID = ed.AddLayer(timeline.LayerKind(req.LayerKind), req.LayerName)
		resp.Applied = resp.LayerID != ""

	case "add_clip":
		if req.Clip == nil {
			return resp, fmt.Errorf("clip is required")
		}
		clip := req.Clip.ToClip()
		resp.Applied = ed.AddClip(clip, intOf(req.LayerIndex, 0))
		if resp.Applied {
			resp.ClipID = clip.ID
		}

	case "add_layer_with_clip":
		if req.Clip == nil {
			return resp, fmt.Errorf("clip is required")
		}
		clip := req.Clip.ToClip()
		layerID, ok := ed.AddLayerWithClip(timeline.LayerKind(req.LayerKind), req.LayerName, clip)
		resp.Applied = ok
		if ok {
			resp.LayerID = layerID
			resp.ClipID = clip.ID
		}

	case "remove_clip":
		resp.Applied = ed.RemoveClip(req.ClipID)

	case "move_clip":
		resp.Applied = ed.MoveClip(req.ClipID, floatOf(req.StartTime), intOf(req.LayerIndex, -1))

	case "split_clip":
		if req.At == nil {
			return resp, fmt.Errorf("at is required")
		}
		resp.LeftID, resp.RightID, resp.Applied = ed.SplitClip(req.ClipID, *req.At)

	case "cut_at_playhead":
		resp.LeftID, resp.RightID, resp.Applied = ed.CutAtPlayhead()

	case "duplicate_clip":
		resp.ClipID, resp.Applied = ed.DuplicateClip(req.ClipID)

	case "trim_clip":
		if req.TrimStart == nil || req.TrimEnd == nil {
			return resp, fmt.Errorf("trim_start and trim_end are required")
		}
		resp.Applied = ed.TrimClip(req.ClipID, *req.TrimStart, *req.TrimEnd)

	case "set_transition":
		edge := timeline.TransitionEdge(req.Edge)
		if edge != timeline.EdgeIn && edge != timeline.EdgeOut {
			return resp, fmt.Errorf("edge must be in or out")
		}
		resp.Applied = ed.SetTransition(req.ClipID, edge, req.Transition)

	case "upsert_keyframe":
		if req.Keyframe == nil {
			return resp, fmt.Errorf("keyframe is required")
		}
		resp.Applied = ed.UpsertKeyframe(req.ClipID, *req.Keyframe)

	case "remove_keyframe":
		if req.Time == nil {
			return resp, fmt.Errorf("time is required")
		}
		resp.Applied = ed.RemoveKeyframe(req.ClipID, *req.Time)

	case "set_transform":
		resp.Applied = ed.SetTransform(req.ClipID, req.Transform)

	case "add_effect":
		if req.Effect == nil {
			return resp, fmt.Errorf("effect is required")
		}
		effectID, ok := ed.AddEffect(req.ClipID, *req.Effect)
		resp.Applied = ok
		if ok {
			resp.EffectID = effectID
		}

	case "remove_effect":
		resp.Applied = ed.RemoveEffect(req.ClipID, req.EffectID)

	case "select_clip":
		ed.SetSelectedClip(req.ClipID)
		resp.Applied = true

	case "set_current_time":
		if req.Value == nil {
			return resp, fmt.Errorf("value is required")
		}
		ed.SetCurrentTime(*req.Value)
		resp.Applied = true

	case "seek":
		if req.Value == nil {
			return resp, fmt.Errorf("value is required")
		}
		ed.Seek(*req.Value)
		resp.Applied = true

	case "set_zoom":
		if req.Value == nil {
			return resp, fmt.Errorf("value is required")
		}
		ed.SetZoom(*req.Value)
		resp.Applied = true

	case "play":
		ed.Play()
		resp.Applied = true

	case "pause":
		ed.Pause()
		resp.Applied = true

	case "toggle_playback":
		ed.TogglePlayback()
		resp.Applied = true

	case "set_canvas_size":
		if req.Width == nil || req.Height == nil {
			return resp, fmt.Errorf("width and height are required")
		}
		ed.SetCanvasSize(*req.Width, *req.Height)
		resp.Applied = true

	case "reset":
		ed.Reset()
		resp.Applied = true

	default:
		return resp, fmt.Errorf("unknown op %q", req.Op)
	}

	resp.CanUndo = ed.CanUndo()
	resp.CanRedo = ed.CanRedo()
	resp.State = ed.State()
	return resp, nil
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}
		applied := sess.Editor.Undo()
		if applied && cfg.Metrics != nil {
			cfg.Metrics.RecordUndo()
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{
			Applied: applied,
			CanUndo: sess.Editor.CanUndo(),
			CanRedo: sess.Editor.CanRedo(),
			State:   sess.Editor.State(),
		})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}
		applied := sess.Editor.Redo()
		if applied && cfg.Metrics != nil {
			cfg.Metrics.RecordRedo()
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{
			Applied: applied,
			CanUndo: sess.Editor.CanUndo(),
			CanRedo: sess.Editor.CanRedo(),
			State:   sess.Editor.State(),
		})
	}
}

func keyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}

		var req KeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Chord == "" {
			WriteError(w, http.StatusBadRequest, "chord is required", "BAD_REQUEST")
			return
		}

		dispatcher := keymap.NewDispatcher(sess.Editor, cfg.Logger)
		action, handled := dispatcher.Dispatch(req.Chord)
		if handled && cfg.Metrics != nil {
			cfg.Metrics.RecordEdit("key_" + string(action))
		}
		WriteJSON(w, http.StatusOK, KeyResponse{
			Action:  string(action),
			Handled: handled,
			State:   sess.Editor.State(),
		})
	}
}

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}

		var req ExportStartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		task, err := sess.Exporter.Start(r.Context(), sess.Editor.Serialize(), req.Settings)
		if err != nil {
			if errors.Is(err, export.ErrExportActive) {
				WriteError(w, http.StatusConflict, err.Error(), "EXPORT_ACTIVE")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, TaskToResponse(task))
	}
}

func exportStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}

		task, ok := sess.Exporter.Task()
		if !ok {
			WriteError(w, http.StatusNotFound, "no export task", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, TaskToResponse(task))
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}

		if err := sess.Exporter.Cancel(r.Context()); err != nil {
			if errors.Is(err, export.ErrNoActiveExport) {
				WriteError(w, http.StatusConflict, err.Error(), "NO_ACTIVE_EXPORT")
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "RENDER_SERVICE_ERROR")
			return
		}

		task, _ := sess.Exporter.Task()
		WriteJSON(w, http.StatusOK, TaskToResponse(task))
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(cfg, w, r)
		if sess == nil {
			return
		}

		title := r.URL.Query().Get("title")
		if title == "" {
			title = "framecut_export"
		}
		frameRate := 30.0
		if fr := r.URL.Query().Get("frame_rate"); fr != "" {
			parsed, err := strconv.ParseFloat(fr, 64)
			if err != nil || parsed <= 0 {
				WriteError(w, http.StatusBadRequest, "invalid frame_rate", "BAD_REQUEST")
				return
			}
			frameRate = parsed
		}

		edl := export.GenerateEDL(sess.Editor.Serialize(), title, frameRate)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func registerAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req media.RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		asset, err := cfg.Catalog.Register(r.Context(), req)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, AssetToResponse(asset))
	}
}

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := cfg.Catalog.ListAssets(r.Context(), r.URL.Query().Get("kind"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list assets", "INTERNAL_ERROR")
			return
		}
		resp := AssetsResponse{Assets: make([]AssetResponse, len(assets))}
		for i, a := range assets {
			resp.Assets[i] = AssetToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := cfg.Catalog.GetAsset(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, AssetToResponse(asset))
	}
}

func probeAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProbeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		asset, err := cfg.Catalog.UpdateProbe(r.Context(), chi.URLParam(r, "id"), req.Duration, req.Width, req.Height)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, AssetToResponse(asset))
	}
}

func deleteAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Catalog.RemoveAsset(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func streamAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		asset, err := cfg.Catalog.GetAsset(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		if err := cfg.Streamer.ServeAsset(w, r, asset); err != nil {
			cfg.Logger.Error("stream error", "error", err, "asset_id", id)
		}
	}
}

func saveProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" || req.SessionID == "" {
			WriteError(w, http.StatusBadRequest, "name and session_id are required", "BAD_REQUEST")
			return
		}

		sess, ok := cfg.Sessions.Get(req.SessionID)
		if !ok {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}

		saved, err := cfg.Projects.Save(r.Context(), req.Name, sess.Editor.Serialize())
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, ProjectToResponse(saved))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Projects.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}
		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// loadProjectHandler restores a saved snapshot into a session. The load
// itself is undoable: the session's previous timeline goes onto its
// undo stack.
func loadProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoadProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sess, ok := cfg.Sessions.Get(req.SessionID)
		if !ok {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}

		proj, snap, err := cfg.Projects.Load(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if proj == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		sess.Editor.Restore(*snap)
		WriteJSON(w, http.StatusOK, SessionStateResponse{
			Session: SessionToResponse(sess),
			State:   sess.Editor.State(),
		})
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
