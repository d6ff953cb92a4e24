package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mindmash-ai/mindmash/internal/app"
	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
)

// sessionSummary is the list-view projection of a session.
type sessionSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ThreadCount int    `json:"thread_count"`
	Target      string `json:"target"`
	Mode        string `json:"mode"`
	Focus       string `json:"focus,omitempty"`
}

func summarize(s *conversation.Session) sessionSummary {
	return sessionSummary{
		ID:          s.ID,
		Title:       s.Title,
		ThreadCount: len(s.Threads()),
		Target:      string(s.Target()),
		Mode:        string(s.Mode()),
		Focus:       s.Focus(),
	}
}

// lookupSession resolves the {id} path variable, writing a 404 on miss.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*conversation.Session, bool) {
	session, err := s.app.Session(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, app.ErrSessionNotFound) {
			s.writeError(w, "session not found", http.StatusNotFound)
		} else {
			s.writeError(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return session, true
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions := s.app.Sessions()
		out := make([]sessionSummary, 0, len(sessions))
		for _, sess := range sessions {
			out = append(out, summarize(sess))
		}
		s.writeJSON(w, map[string]interface{}{"sessions": out})

	case http.MethodPost:
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			req.Title = "New Conversation"
		}
		session := s.app.CreateSession(req.Title)
		w.WriteHeader(http.StatusCreated)
		s.writeJSON(w, summarize(session))
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodDelete {
		if err := s.app.DeleteSession(session.ID); err != nil {
			s.writeError(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, session.Snapshot())
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getMessages(w, r, session)
	case http.MethodPost:
		s.postMessage(w, r, session)
	}
}

// getMessages lists a thread's messages, or searches the active thread when
// a query is present. fuzzy=1 switches substring search to fuzzy matching.
func (s *Server) getMessages(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	q := r.URL.Query()

	var msgs []conversation.Message
	if query, present := q["q"]; present {
		if q.Get("fuzzy") == "1" {
			msgs = session.SearchMessagesFuzzy(query[0])
		} else {
			msgs = session.SearchMessages(query[0])
		}
	} else {
		threadID := q.Get("thread")
		if threadID == "" {
			threadID = session.ActiveThreadID()
		}
		var err error
		msgs, err = session.MessagesForThread(threadID)
		if err != nil {
			s.writeError(w, "thread not found", http.StatusNotFound)
			return
		}
	}

	resp := map[string]interface{}{"messages": msgs, "count": len(msgs)}
	if format := q.Get("format"); format != "" {
		rendered := make([]string, len(msgs))
		for i := range msgs {
			rendered[i] = s.processor.Formats(&msgs[i])[format]
		}
		resp["rendered"] = rendered
		resp["format"] = format
	}
	s.writeJSON(w, resp)
}

// postMessage runs one input through the pipeline and waits for the fan-out
// so the response carries the completed thread state.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		s.writeError(w, "missing message content", http.StatusBadRequest)
		return
	}

	res, err := s.app.ProcessUserMessage(r.Context(), session.ID, req.Content)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if res.Dispatch != nil {
		res.Dispatch.Wait()
	}

	resp := map[string]interface{}{
		"command":  string(res.Commands[0].Type),
		"category": string(res.Category),
	}
	if res.Message != nil {
		resp["message"] = res.Message
	}
	if res.Suggested != "" {
		resp["suggested"] = string(res.Suggested)
	}
	if res.Comparison != nil {
		resp["comparison"] = res.Comparison
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleReaction(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		s.writeError(w, "missing emoji", http.StatusBadRequest)
		return
	}
	messageID := mux.Vars(r)["messageID"]
	if err := session.SetReaction(messageID, req.Emoji); err != nil {
		s.writeError(w, "message not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]string{"message_id": messageID, "emoji": req.Emoji})
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]interface{}{
			"threads": session.Threads(),
			"active":  session.ActiveThreadID(),
		})

	case http.MethodPost:
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			req.Title = "New Thread"
		}
		thread := session.CreateThread(req.Title)
		w.WriteHeader(http.StatusCreated)
		s.writeJSON(w, thread)
	}
}

func (s *Server) handleActivateThread(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	threadID := mux.Vars(r)["threadID"]
	if err := session.SetActiveThread(threadID); err != nil {
		s.writeError(w, "thread not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]string{"active": threadID})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]interface{}{
			"items":      session.ContextItems(),
			"projection": session.ProjectContext(),
		})

	case http.MethodPost:
		var req struct {
			Content string `json:"content"`
			Source  string `json:"source"`
			Pinned  bool   `json:"pinned"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			s.writeError(w, "missing content", http.StatusBadRequest)
			return
		}
		if req.Source == "" {
			req.Source = "user"
		}
		item := session.AddContextItem(req.Content, req.Source, req.Pinned)
		w.WriteHeader(http.StatusCreated)
		s.writeJSON(w, item)
	}
}

func (s *Server) handlePinContext(w http.ResponseWriter, r *http.Request) {
	s.toggleContext(w, r, true)
}

func (s *Server) handleUnpinContext(w http.ResponseWriter, r *http.Request) {
	s.toggleContext(w, r, false)
}

func (s *Server) toggleContext(w http.ResponseWriter, r *http.Request, pin bool) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	itemID := mux.Vars(r)["itemID"]
	var err error
	if pin {
		err = session.PinContextItem(itemID)
	} else {
		err = session.UnpinContextItem(itemID)
	}
	if err != nil {
		s.writeError(w, "context item not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, map[string]interface{}{"id": itemID, "pinned": pin})
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]string{"target": string(session.Target())})

	case http.MethodPut:
		var req struct {
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := session.SetTarget(models.ModelID(req.Target)); err != nil {
			s.writeError(w, "unknown target model", http.StatusBadRequest)
			return
		}
		s.writeJSON(w, map[string]string{"target": req.Target})
	}
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		s.writeError(w, "missing prompt", http.StatusBadRequest)
		return
	}

	results, err := s.app.Orchestrator.Compare(r.Context(), session, req.Prompt)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]interface{}{"results": results})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, session.Snapshot())
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	type modelInfo struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		ReplyDelay  int64  `json:"reply_delay_ms"`
	}
	out := make([]modelInfo, 0, len(models.Responders()))
	for _, id := range models.Responders() {
		out = append(out, modelInfo{
			ID:          string(id),
			DisplayName: models.DisplayName(id),
			ReplyDelay:  models.Delay(id).Milliseconds(),
		})
	}
	s.writeJSON(w, map[string]interface{}{"models": out})
}
