package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"musicqr-server/internal/domain"
	"musicqr-server/internal/domain/model"
	"musicqr-server/internal/domain/ports/repository"
	"musicqr-server/internal/infra/metrics"
)

type errorBody struct {
	Error string `json:"error"`
}

// codeView is the wire shape of a stored code.
type codeView struct {
	Code                string     `json:"code"`
	CreatedDate         time.Time  `json:"created_date"`
	Activated           bool       `json:"activated"`
	ActivationDate      *time.Time `json:"activation_date,omitempty"`
	ActivationIP        *string    `json:"activation_ip,omitempty"`
	ActivationUserAgent *string    `json:"activation_user_agent,omitempty"`
	QueryCount          int64      `json:"query_count"`
	LastQueryDate       *time.Time `json:"last_query_date,omitempty"`
}

func toCodeView(ac *model.AuthCode) codeView {
	return codeView{
		Code:                ac.Code,
		CreatedDate:         ac.CreatedDate,
		Activated:           ac.Activated,
		ActivationDate:      ac.ActivationDate,
		ActivationIP:        ac.ActivationIP,
		ActivationUserAgent: ac.ActivationUserAgent,
		QueryCount:          ac.QueryCount,
		LastQueryDate:       ac.LastQueryDate,
	}
}

type queryLogView struct {
	ID        string    `json:"id"`
	ClientIP  string    `json:"client_ip"`
	UserAgent string    `json:"user_agent"`
	QueryTime time.Time `json:"query_time"`
	Result    string    `json:"result"`
}

// ---- sync ----

type syncRequest struct {
	APIKey string            `json:"api_key"`
	Codes  []model.SyncEntry `json:"codes"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if !CheckAPIKey(req.APIKey, s.apiKey) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid api key"})
		return
	}

	report, err := s.syncUC.Sync(r.Context(), req.Codes)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "no codes provided"})
			return
		}
		s.log.Error().Err(err).Msg("code sync failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	metrics.AddSyncOutcome("added", report.Added)
	metrics.AddSyncOutcome("skipped", report.Skipped)
	metrics.AddSyncOutcome("invalid", report.Invalid)

	writeJSON(w, http.StatusOK, struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Stats   *model.SyncReport `json:"stats"`
	}{
		Success: true,
		Message: fmt.Sprintf("synced %d codes", report.Added),
		Stats:   report,
	})
}

// ---- session ----

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if !s.auth.CheckCredentials(req.Username, req.Password) {
		s.log.Warn().Str("username", req.Username).Msg("admin login rejected")
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}
	token, err := s.auth.Mint(w, req.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("token mint failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---- admin console ----

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.statsUC.Overview(r.Context())
	if err != nil {
		s.writeError(w, err, "dashboard stats failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	f := repository.ListFilter{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(q.Get("search")),
		Status:  repository.StatusFilter(q.Get("status")),
		Sort:    repository.SortField(q.Get("sort")),
		Order:   repository.SortOrder(q.Get("order")),
	}
	pageRes, err := s.adminUC.List(r.Context(), f)
	if err != nil {
		s.writeError(w, err, "code listing failed")
		return
	}

	data := make([]codeView, 0, len(pageRes.Items))
	for _, ac := range pageRes.Items {
		data = append(data, toCodeView(ac))
	}
	writeJSON(w, http.StatusOK, struct {
		Data      []codeView `json:"data"`
		Total     int64      `json:"total"`
		Activated int64      `json:"activated"`
		Page      int        `json:"page"`
		PerPage   int        `json:"per_page"`
	}{
		Data:      data,
		Total:     pageRes.Total,
		Activated: pageRes.Activated,
		Page:      pageRes.Page,
		PerPage:   pageRes.PerPage,
	})
}

type createCodesRequest struct {
	// Either a single explicit code or a count of generated ones.
	Code        string    `json:"code,omitempty"`
	CreatedDate time.Time `json:"created_date,omitempty"`
	Count       int       `json:"count,omitempty"`
}

func (s *Server) handleCreateCodes(w http.ResponseWriter, r *http.Request) {
	var req createCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if req.Code != "" {
		ac, err := s.adminUC.Add(r.Context(), req.Code, req.CreatedDate)
		if err != nil {
			s.writeError(w, err, "code add failed")
			return
		}
		writeJSON(w, http.StatusCreated, toCodeView(ac))
		return
	}

	created, err := s.adminUC.Generate(r.Context(), req.Count)
	if err != nil {
		s.writeError(w, err, "code generation failed")
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Created []string `json:"created"`
		Count   int      `json:"count"`
	}{Created: created, Count: len(created)})
}

func (s *Server) handleCodeDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.adminUC.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, err, "code detail failed")
		return
	}

	history := make([]queryLogView, 0, len(detail.History))
	for _, rec := range detail.History {
		history = append(history, queryLogView{
			ID:        rec.ID,
			ClientIP:  rec.ClientIP,
			UserAgent: rec.UserAgent,
			QueryTime: rec.QueryTime,
			Result:    string(rec.Result),
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Code    codeView       `json:"code"`
		History []queryLogView `json:"history"`
	}{Code: toCodeView(detail.Code), History: history})
}

func (s *Server) handleDeleteCode(w http.ResponseWriter, r *http.Request) {
	n, err := s.adminUC.Delete(r.Context(), []string{chi.URLParam(r, "code")})
	if err != nil {
		s.writeError(w, err, "code delete failed")
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "code not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	Codes []string `json:"codes"`
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	n, err := s.adminUC.Delete(r.Context(), req.Codes)
	if err != nil {
		s.writeError(w, err, "bulk delete failed")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Deleted int64 `json:"deleted"`
	}{Deleted: n})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var codes []string
	if raw := strings.TrimSpace(r.URL.Query().Get("codes")); raw != "" {
		codes = strings.Split(raw, ",")
	}
	items, err := s.adminUC.Export(r.Context(), codes)
	if err != nil {
		s.writeError(w, err, "export failed")
		return
	}

	filename := "auth_codes_" + time.Now().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"code", "created_date", "activated", "activation_date", "query_count"})
	for _, ac := range items {
		activated := "no"
		if ac.Activated {
			activated = "yes"
		}
		activationDate := ""
		if ac.ActivationDate != nil {
			activationDate = ac.ActivationDate.Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			ac.Code,
			ac.CreatedDate.Format(time.RFC3339),
			activated,
			activationDate,
			strconv.FormatInt(ac.QueryCount, 10),
		})
	}
	cw.Flush()
}

func (s *Server) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		s.log.Error().Err(err).Msg(logMsg)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
