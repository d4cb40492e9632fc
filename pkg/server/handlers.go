package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/binderlink/binderlink/pkg/events"
	"github.com/binderlink/binderlink/pkg/launch"
	"github.com/binderlink/binderlink/pkg/provider"
)

// labelCache holds the encoded _config body for one registry generation.
type labelCache struct {
	mu         sync.Mutex
	generation uint64
	body       []byte
}

func (c *labelCache) get(store *provider.Store) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := store.Generation()
	if c.body != nil && c.generation == gen {
		return c.body, nil
	}
	body, err := json.Marshal(provider.Labels(store.Registry()))
	if err != nil {
		return nil, err
	}
	c.body, c.generation = body, gen
	return body, nil
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	body, err := s.labels.get(s.config.Store)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Store.Registry().All())
}

// linkResponse is a derived Link plus whether the repository input passed
// the provider's detect pattern.
type linkResponse struct {
	launch.Link
	Accepted bool `json:"accepted"`
}

// handleLink derives a link from query parameters. An empty or missing repo
// counts as not typed yet: accepted stays true, no detection reject is
// recorded, and the link carries no launch URL.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sel, err := launch.NewSelection(s.config.Store.Registry())
	if err != nil {
		writeError(w, err)
		return
	}
	if id := q.Get("provider"); id != "" {
		if err := sel.SelectProvider(id); err != nil {
			writeError(w, err)
			return
		}
	}
	kind, err := launch.ParsePathKind(q.Get("kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	badge, err := launch.ParseBadgeKind(q.Get("badge"))
	if err != nil {
		writeError(w, err)
		return
	}

	accepted := true
	if repo := q.Get("repo"); repo != "" {
		accepted = sel.InputRepo(repo)
	}
	sel.SetRef(q.Get("ref"))
	sel.SetPathKind(kind)
	sel.SetPath(q.Get("path"))

	link := sel.Link(badge, s.config.PublicBase)
	if !accepted {
		s.metrics.RecordDetectionReject(link.Provider)
	}
	if link.LaunchURL != "" {
		s.metrics.RecordLink(link.Provider)
	}
	writeJSON(w, http.StatusOK, linkResponse{Link: link, Accepted: accepted})
}

// launchResponse describes a parsed launch URL.
type launchResponse struct {
	Provider string      `json:"provider"`
	Repo     string      `json:"repo"`
	Ref      string      `json:"ref"`
	Spec     launch.Spec `json:"spec"`
	URLPath  string      `json:"urlPath"`

	// ServerPath is where URLPath opens under the server prefix.
	ServerPath string `json:"serverPath"`
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")

	req, err := launch.ParseLaunchPath(s.config.Store.Registry(), id, s.launchRest(r, id), r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	spec := req.Spec()

	if err := s.config.Events.EmitLaunch(r.Context(), id, spec.BuildSpec, events.StatusRequested); err != nil {
		s.logger.Warn("launch event not recorded", "provider", id, "spec", spec.BuildSpec, "error", err)
	}
	s.metrics.RecordLaunch(id, string(events.StatusRequested))
	s.logger.Info("launch requested", "provider", id, "spec", spec.BuildSpec)

	writeJSON(w, http.StatusOK, launchResponse{
		Provider: id,
		Repo:     req.Repo,
		Ref:      req.Ref,
		Spec:     spec,
		URLPath:    spec.Launch.URLPath,
		ServerPath: spec.Launch.ServerPath(),
	})
}

// launchRest returns the still-escaped path after "/v2/<id>/". chi matches
// on the decoded path when the request has no reserved escapes, which would
// lose a literal "%" in the repository.
func (s *Server) launchRest(r *http.Request, id string) string {
	prefix := s.config.BaseURL + "v2/" + id + "/"
	if rest, ok := strings.CutPrefix(r.URL.EscapedPath(), prefix); ok {
		return rest
	}
	return chi.URLParam(r, "*")
}
