package http

import (
	"net/http"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/services"
)

func respond[T any](w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(status).Body(v).Write(w)
}

func respondDeleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.Ledger.List(r.Context())
	respond(w, r, http.StatusOK, txs, err)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "get transaction")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Ledger.Get(r.Context(), id)
	respond(w, r, http.StatusOK, tx, err)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	const op = "create transaction"
	var in transactionInput
	if err := decodeJSON(w, r, op, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := in.transaction(op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Ledger.Create(r.Context(), tx)
	respond(w, r, http.StatusCreated, created, err)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	const op = "update transaction"
	id, err := pathID(r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in transactionInput
	if err := decodeJSON(w, r, op, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := in.transaction(op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.svc.Ledger.Update(r.Context(), id, tx)
	respond(w, r, http.StatusOK, updated, err)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "delete transaction")
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w, r, s.svc.Ledger.Delete(r.Context(), id))
}

// Customers

type customerInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (in customerInput) customer() core.Customer {
	return core.Customer{
		Name:    sanitizeInput(in.Name),
		Email:   sanitizeInput(in.Email),
		Phone:   sanitizeInput(in.Phone),
		Address: sanitizeInput(in.Address),
	}
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Directory.ListCustomers(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "get customer")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Directory.GetCustomer(r.Context(), id)
	respond(w, r, http.StatusOK, c, err)
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in customerInput
	if err := decodeJSON(w, r, "create customer", &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Directory.CreateCustomer(r.Context(), in.customer())
	respond(w, r, http.StatusCreated, c, err)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "update customer")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in customerInput
	if err := decodeJSON(w, r, "update customer", &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Directory.UpdateCustomer(r.Context(), id, in.customer())
	respond(w, r, http.StatusOK, c, err)
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "delete customer")
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w, r, s.svc.Directory.DeleteCustomer(r.Context(), id))
}

// Users

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Directory.ListUsers(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "get user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Directory.GetUser(r.Context(), id)
	respond(w, r, http.StatusOK, u, err)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in services.UserInput
	if err := decodeJSON(w, r, "create user", &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Directory.CreateUser(r.Context(), in)
	respond(w, r, http.StatusCreated, u, err)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "update user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.UserInput
	if err := decodeJSON(w, r, "update user", &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Directory.UpdateUser(r.Context(), id, in)
	respond(w, r, http.StatusOK, u, err)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "delete user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w, r, s.svc.Directory.DeleteUser(r.Context(), id))
}

// Saved reports

type reportInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Directory.ListReports(r.Context())
	respond(w, r, http.StatusOK, out, err)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "get report")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Directory.GetReport(r.Context(), id)
	respond(w, r, http.StatusOK, rep, err)
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var in reportInput
	if err := decodeJSON(w, r, "create report", &in); err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Directory.CreateReport(r.Context(), core.Report{Title: sanitizeInput(in.Title), Content: in.Content})
	respond(w, r, http.StatusCreated, rep, err)
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "update report")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in reportInput
	if err := decodeJSON(w, r, "update report", &in); err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.Directory.UpdateReport(r.Context(), id, core.Report{Title: sanitizeInput(in.Title), Content: in.Content})
	respond(w, r, http.StatusOK, rep, err)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "delete report")
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondDeleted(w, r, s.svc.Directory.DeleteReport(r.Context(), id))
}
