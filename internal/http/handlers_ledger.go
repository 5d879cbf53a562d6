package http

import (
	"net/http"

	"tresorier/internal/core"
)

func (s *Server) handleFiscalYearList(w http.ResponseWriter, r *http.Request) {
	order, err := yearOrderFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	years, err := s.ledger.ListFiscalYears(r.Context(), order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil {
		years = []core.FiscalYearRow{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleFiscalYearGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fy, err := s.ledger.GetFiscalYear(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fy)
}

func (s *Server) handleFiscalYearSave(w http.ResponseWriter, r *http.Request) {
	var fy core.FiscalYear
	if err := decodeBody(r, &fy); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SaveFiscalYear(r.Context(), &fy); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, fy.ID)
}

func (s *Server) handleFiscalYearDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteFiscalYear(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.AccountRow{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccountSave(w http.ResponseWriter, r *http.Request) {
	var account core.Account
	if err := decodeBody(r, &account); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SaveAccount(r.Context(), &account); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, account.ID)
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.CategoryRow{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.ledger.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleCategorySave(w http.ResponseWriter, r *http.Request) {
	var category core.OperationCategory
	if err := decodeBody(r, &category); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SaveCategory(r.Context(), &category); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, category.ID)
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleOperationList(w http.ResponseWriter, r *http.Request) {
	filter, err := operationFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.ledger.ListOperations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.OperationRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleOperationGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	op, err := s.ledger.GetOperation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleOperationSave(w http.ResponseWriter, r *http.Request) {
	var op core.Operation
	if err := decodeBody(r, &op); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SaveOperation(r.Context(), &op); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, op.ID)
}

func (s *Server) handleOperationDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteOperation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleOperationReport(w http.ResponseWriter, r *http.Request) {
	filter, err := operationFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.ledger.Report(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
