package http

import (
	"net/http"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/export"
	"github.com/anisur046/accounting/internal/ledger"
	"github.com/anisur046/accounting/internal/log"
)

type balanceResponse struct {
	Balance core.Money `json:"balance"`
}

// handleBalance serves GET /transactions/balance?toDate=YYYY-MM-DD. The cutoff
// is a whole day; timestamps are rejected with invalid_date.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	toDate := queryValue(r.URL.Query(), "toDate", "to")
	bal, err := s.svc.Reports.Balance(r.Context(), toDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(balanceResponse{Balance: bal}).Write(w)
}

// handleReport serves GET /transactions/report?fromDate=&toDate=[&mode=daybook][&format=csv].
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := queryValue(q, "fromDate", "from")
	to := queryValue(q, "toDate", "to")
	mode, ok := ledger.ParseMode(queryValue(q, "mode"))
	if !ok {
		writeError(w, r, core.ValidationError("report", core.ErrInvalidMode))
		return
	}

	rep, err := s.svc.Reports.Report(r.Context(), from, to, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if queryValue(q, "format") != "csv" {
		NewJSONResponse().Body(rep).Write(w)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeCSV)
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+export.Filename(string(rep.Mode), rep.From.String(), rep.To.String())+`"`)
	if err := export.WriteCSV(w, export.Render(rep)); err != nil {
		// Headers are already sent; all that is left is to log.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write CSV report",
			log.FieldOperation, log.OpExport, log.FieldError, err)
	}
}
