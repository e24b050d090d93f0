package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/use-of-proceeds/internal/dialog"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/loans"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	session     *Session
}

// NewHandler constructs the HTTP handler that serves the grid API for session.
func NewHandler(logger *zap.Logger, session *Session, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: maxBodySize, version: trimmedVersion, session: session}

	router := mux.NewRouter()

	// Grid state and edit lifecycle
	router.HandleFunc("/api/grid", h.handleGrid).Methods(http.MethodGet)
	router.HandleFunc("/api/grid/edit", h.handleEnterEdit).Methods(http.MethodPost)
	router.HandleFunc("/api/grid/cancel", h.handleCancelEdit).Methods(http.MethodPost)
	router.HandleFunc("/api/grid/save", h.handleSave).Methods(http.MethodPost)
	router.HandleFunc("/api/grid/cells", h.handleSetCell).Methods(http.MethodPut)

	// Columns
	router.HandleFunc("/api/columns", h.handleAddColumn).Methods(http.MethodPost)
	router.HandleFunc("/api/columns/{id}/terms", h.handleUpdateTerms).Methods(http.MethodPut)
	router.HandleFunc("/api/columns/{id}/schedule", h.handleSchedule).Methods(http.MethodGet)
	router.HandleFunc("/api/columns/{id}", h.handleDeleteColumn).Methods(http.MethodDelete)

	// Rows
	router.HandleFunc("/api/rows", h.handleAddRows).Methods(http.MethodPost)
	router.HandleFunc("/api/rows/{id}", h.handleDeleteRow).Methods(http.MethodDelete)

	router.HandleFunc("/api/catalog", h.handleCatalog).Methods(http.MethodGet)
	router.HandleFunc("/api/loans", h.handleGetLoans).Methods(http.MethodGet)
	router.HandleFunc("/api/loans", h.handlePutLoans).Methods(http.MethodPut)
	router.HandleFunc("/api/loan-payment", h.handleLoanPayment).Methods(http.MethodPost)

	// Version endpoint for UI metadata
	router.HandleFunc("/api/version", h.handleVersion).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusMethodNotAllowed, "method not allowed", "server.route")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusNotFound, "not found", "server.route")
	})

	return router
}

func (h *handler) handleGrid(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *handler) handleEnterEdit(w http.ResponseWriter, r *http.Request) {
	_ = h.session.Do(func(g *proceeds.Grid) error {
		g.EnterEditMode()
		return nil
	})
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *handler) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	_ = h.session.Do(func(g *proceeds.Grid) error {
		g.CancelEdit()
		return nil
	})
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSave"
	start := time.Now()

	if err := h.session.Save(r.Context()); err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		h.respondErrorWithOp(w, status, fmt.Sprintf("save failed: %v", err), op)
		return
	}

	h.logger.Info("grid saved",
		zap.String("op", op),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type cellRequest struct {
	RowID    string     `json:"row_id"`
	ColumnID string     `json:"column_id"`
	Value    flexString `json:"value"`
}

func (h *handler) handleSetCell(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSetCell"
	var req cellRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	err := h.session.Do(func(g *proceeds.Grid) error {
		return g.SetCellValue(req.RowID, req.ColumnID, string(req.Value))
	})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// columnForm mirrors the Add-Column dialog fields. Numeric fields accept
// either JSON numbers or the raw strings a user typed.
type columnForm struct {
	Name               string     `json:"column_name"`
	IsLoan             bool       `json:"is_loan"`
	Mode               string     `json:"mode"`
	LoanID             string     `json:"loan_id"`
	InterestRate       flexString `json:"interest_rate"`
	TermYears          flexString `json:"term_years"`
	AmortizationMonths flexString `json:"amortization_months"`
}

func (f columnForm) input() dialog.ColumnInput {
	return dialog.ColumnInput{
		Name:               f.Name,
		IsLoan:             f.IsLoan,
		Mode:               f.Mode,
		LoanID:             f.LoanID,
		InterestRate:       string(f.InterestRate),
		TermYears:          string(f.TermYears),
		AmortizationMonths: string(f.AmortizationMonths),
	}
}

func (h *handler) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddColumn"
	var form columnForm
	if !h.decodeBody(w, r, &form, op) {
		return
	}

	column, err := h.session.AddColumn(form.input())
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusCreated, column)
}

func (h *handler) handleUpdateTerms(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateTerms"
	var terms proceeds.LoanTerms
	if !h.decodeBody(w, r, &terms, op) {
		return
	}

	var column proceeds.Column
	err := h.session.Do(func(g *proceeds.Grid) error {
		var err error
		column, err = g.UpdateLoanTerms(mux.Vars(r)["id"], terms)
		return err
	})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, column)
}

type scheduleResponse struct {
	ColumnID      string          `json:"column_id"`
	Payments      []loans.Payment `json:"payments"`
	TotalInterest float64         `json:"total_interest"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	id := mux.Vars(r)["id"]

	var schedule []loans.Payment
	err := h.session.Do(func(g *proceeds.Grid) error {
		var err error
		schedule, err = g.Schedule(id)
		return err
	})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, scheduleResponse{
		ColumnID:      id,
		Payments:      schedule,
		TotalInterest: loans.TotalInterest(schedule),
	})
}

func (h *handler) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteColumn"
	err := h.session.Do(func(g *proceeds.Grid) error {
		return g.DeleteColumn(mux.Vars(r)["id"])
	})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type rowsRequest struct {
	Categories      []string `json:"categories"`
	RowName         string   `json:"row_name"`
	OverallCategory string   `json:"overall_category"`
}

func (h *handler) handleAddRows(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddRows"
	var req rowsRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	var (
		added []proceeds.Row
		err   error
	)
	if len(req.Categories) > 0 {
		added, err = h.session.AddRows(req.Categories)
	} else {
		err = h.session.Do(func(g *proceeds.Grid) error {
			row, err := g.AddRow(req.OverallCategory, req.RowName)
			if err == nil {
				added = append(added, row)
			}
			return err
		})
	}
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"rows": added})
}

func (h *handler) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteRow"
	err := h.session.Do(func(g *proceeds.Grid) error {
		return g.DeleteRow(mux.Vars(r)["id"])
	})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	groups := h.session.CatalogGroups(r.URL.Query().Get("q"))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func (h *handler) handleGetLoans(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"loans": h.session.ProjectLoans()})
}

type loansRequest struct {
	Loans []proceeds.ProjectLoan `json:"loans"`
}

func (h *handler) handlePutLoans(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePutLoans"
	var req loansRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	warnings := h.session.SetProjectLoans(req.Loans)
	for _, warning := range warnings {
		h.logger.Warn("project loan warning",
			zap.String("op", op),
			zap.String("warning", warning),
		)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"loans":    h.session.ProjectLoans(),
		"warnings": normalizeNotes(warnings),
	})
}

type paymentRequest struct {
	Principal          float64 `json:"principal"`
	InterestRate       float64 `json:"interest_rate"`
	TermYears          int     `json:"term_years"`
	AmortizationMonths int     `json:"amortization_months"`
}

func (h *handler) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLoanPayment"
	var req paymentRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	months := req.AmortizationMonths
	if months <= 0 {
		months = req.TermYears * constants.MonthsPerYear
	}
	if months <= 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "term_years or amortization_months must be positive", op)
		return
	}
	if req.InterestRate < 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "interest_rate must not be negative", op)
		return
	}

	payment := loans.CalculateLoanPayment(req.Principal, req.InterestRate, months)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"principal":           req.Principal,
		"interest_rate":       req.InterestRate,
		"amortization_months": months,
		"monthly_payment":     payment.MonthlyPayment,
		"annual_payment":      payment.AnnualPayment,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// decodeBody reads a size-limited JSON body into dst, responding with 400 on
// failure.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, "failed to read request body", op)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "request body is empty", op)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON payload: %v", err), op)
		return false
	}
	return true
}

// statusFor maps grid and dialog errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, proceeds.ErrUnknownRow), errors.Is(err, proceeds.ErrUnknownColumn):
		return http.StatusNotFound
	case errors.Is(err, proceeds.ErrNotEditing),
		errors.Is(err, proceeds.ErrTotalRowProtected),
		errors.Is(err, proceeds.ErrDuplicateColumn),
		errors.Is(err, proceeds.ErrDuplicateRow),
		errors.Is(err, dialog.ErrAlreadyPresent):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if h.logger != nil {
		h.logger.Error("grid request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func normalizeNotes(notes []string) []string {
	if len(notes) == 0 {
		return []string{}
	}
	return notes
}

// flexString decodes a JSON string, number or null into its raw text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", trimmed)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
