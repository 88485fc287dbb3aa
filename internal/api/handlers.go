package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/catalogd/catalogd/internal/diff"
)

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tenant == "" || req.Type == "" || req.Host == "" || req.Schema == "" {
		errorResponse(w, http.StatusBadRequest, "tenant, type, host and schema are required")
		return
	}

	tc := req.toTenantConfig()
	if err := s.engine.Onboard(r.Context(), req.Tenant, &tc); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, StatusResponse{Status: "onboarded"})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := s.engine.ListDatabases(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, dbs)
}

func (s *Server) handleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.DatabaseStats(r.Context(), r.PathValue("tenant"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	tables, err := s.engine.Snapshot(r.Context(), r.PathValue("tenant"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, tables)
}

func (s *Server) handleTableCatalog(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	db, err := s.engine.DatabaseStats(r.Context(), tenant)
	if err != nil {
		engineError(w, err)
		return
	}
	table, err := s.engine.TableCatalog(r.Context(), tenant, db.Schema, r.PathValue("table"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, table)
}

func (s *Server) handleTableStats(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	db, err := s.engine.DatabaseStats(r.Context(), tenant)
	if err != nil {
		engineError(w, err)
		return
	}
	rec, err := s.engine.TableStats(r.Context(), tenant, db.Schema, r.PathValue("table"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleAnnotateTable(w http.ResponseWriter, r *http.Request) {
	var req AnnotateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant := r.PathValue("tenant")
	db, err := s.engine.DatabaseStats(r.Context(), tenant)
	if err != nil {
		engineError(w, err)
		return
	}
	if err := s.engine.AnnotateTable(r.Context(), tenant, db.Schema, r.PathValue("table"), req.Description); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StatusResponse{Status: "updated"})
}

func (s *Server) handleAnnotateColumn(w http.ResponseWriter, r *http.Request) {
	var req AnnotateColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant := r.PathValue("tenant")
	db, err := s.engine.DatabaseStats(r.Context(), tenant)
	if err != nil {
		engineError(w, err)
		return
	}
	err = s.engine.AnnotateColumn(r.Context(), tenant, db.Schema, r.PathValue("table"), r.PathValue("column"), req.Note)
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StatusResponse{Status: "updated"})
}

func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.DetectDrift(r.Context(), r.PathValue("tenant"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// handleSync re-syncs the catalog. The body may carry a drift report whose
// deletions are applied first; an empty body refreshes in place.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var report *diff.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.ApplyUpdate(r.Context(), r.PathValue("tenant"), report); err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StatusResponse{Status: "synced"})
}

func (s *Server) handleERD(w http.ResponseWriter, r *http.Request) {
	erd, err := s.engine.ERD(r.Context(), r.PathValue("tenant"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, erd)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tc := req.toTenantConfig()
	if err := s.engine.TestConnection(r.Context(), &tc); err != nil {
		jsonResponse(w, http.StatusOK, ConnectionTestResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	jsonResponse(w, http.StatusOK, ConnectionTestResponse{
		Success: true,
		Message: "Connection successful",
	})
}
