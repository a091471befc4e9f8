// This file implements the transaction and transfer endpoints.

package http

import "net/http"

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := bindAndValidate[transactionCreateRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Create(r.Context(), req.transaction())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(w, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := bindAndValidate[transactionPatchRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.Transactions.Delete)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransferFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	transfers, err := s.svc.Transfers.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, transfers)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tr, err := s.svc.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tr)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	req, err := bindAndValidate[transferCreateRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tr, err := s.svc.Transfers.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(w, tr)
}

func (s *Server) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := bindAndValidate[transferPatchRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tr, err := s.svc.Transfers.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tr)
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.Transfers.Delete)
}
