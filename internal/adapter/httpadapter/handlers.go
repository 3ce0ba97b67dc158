package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/couchcryptid/rockfall-risk-service/internal/display"
	"github.com/couchcryptid/rockfall-risk-service/internal/poller"
)

const maxRequestBytes = 64 << 10

// axis accepts a JSON string or number and keeps its raw text, so that the
// coordinate gate sees exactly what the client sent.
type axis string

func (a *axis) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = axis(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("must be a string or number")
	}
	*a = axis(n.String())
	return nil
}

type locationRequest struct {
	Lat axis `json:"lat"`
	Lon axis `json:"lon"`
}

type stateResponse struct {
	Session poller.Session `json:"session"`
	Display display.State  `json:"display"`
}

// handleLocation accepts a JSON body or an HTML form post.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req locationRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		req.Lat = axis(r.PostFormValue("lat"))
		req.Lon = axis(r.PostFormValue("lon"))
	default:
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	out := s.api.Monitor.Submit(r.Context(), string(req.Lat), string(req.Lon))
	if !out.Accepted {
		writeJSON(w, http.StatusUnprocessableEntity, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	stopped := s.api.Monitor.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Session: s.api.Session.Snapshot(),
		Display: s.api.Board.Snapshot(),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
