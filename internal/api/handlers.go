package api

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/BrandDiscovery/internal/flow"
	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

func (s *Server) startSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.startSessionHandler: processing request", "path", r.URL.Path)
	var req models.StartSessionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		slog.Warn("Server.startSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "startSessionHandler", err)
		return
	}

	resp, err := s.svc.Start(r.Context(), req)
	if err != nil {
		writeServiceError(w, "startSessionHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(resp))
}

func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.MessageRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.messageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "messageHandler", err)
		return
	}
	slog.Debug("Server.messageHandler: processing message", "sessionID", req.SessionID, "length", len(req.UserMessage))

	resp, err := s.svc.SubmitMessage(r.Context(), req)
	if err != nil {
		writeServiceError(w, "messageHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) rapidFireHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RapidFireRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.rapidFireHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "rapidFireHandler", err)
		return
	}

	rec, err := s.svc.RecordRapidFire(req)
	if err != nil {
		writeServiceError(w, "rapidFireHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.RecordedWithResult(rec))
}

func (s *Server) amendValueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AmendValueRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.amendValueHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "amendValueHandler", err)
		return
	}

	v, err := s.svc.AmendValue(req)
	if err != nil {
		writeServiceError(w, "amendValueHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(v))
}

func (s *Server) completeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.completeHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "completeHandler", err)
		return
	}

	resp, err := s.svc.Complete(req)
	if err != nil {
		writeServiceError(w, "completeHandler", err)
		return
	}
	slog.Info("Server.completeHandler: session completed", "sessionID", req.SessionID, "shareURL", resp.ShareURL)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetSession(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "getSessionHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(view))
}

func (s *Server) getDeliverableHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GetDeliverable(r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, "getDeliverableHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(d))
}

var deliverablePage = template.Must(template.New("deliverable").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<main>
{{.Body}}
</main>
</body>
</html>
`))

func (s *Server) deliverablePageHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.GetDeliverable(r.PathValue("slug"))
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			slog.Error("Server.deliverablePageHandler: lookup failed", "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	body, err := flow.RenderHTML(d.Content)
	if err != nil {
		slog.Error("Server.deliverablePageHandler: render failed", "slug", d.ShareSlug, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = deliverablePage.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: d.Content.CompanyName + ": Core Values",
		Body:  template.HTML(body),
	})
	if err != nil {
		slog.Error("Server.deliverablePageHandler: failed to write page", "slug", d.ShareSlug, "error", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}
