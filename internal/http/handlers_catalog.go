// This file implements the account, category and tag endpoints.

package http

import (
	"context"
	"net/http"

	"platito/internal/core"
	"platito/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.List(r.Context(), services.AccountScope(trimmedQuery(r, "scope")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, account)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := bindAndValidate[accountCreateRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.svc.Accounts.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(w, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := bindAndValidate[accountPatchRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.svc.Accounts.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, account)
}

func (s *Server) handleArchiveAccount(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, s.svc.Accounts.Archive)
}

func (s *Server) handleUnarchiveAccount(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, s.svc.Accounts.Unarchive)
}

func (s *Server) setArchived(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64) (core.Account, error)) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := apply(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.Accounts.Delete)
}

// deleteByID answers 204 once del succeeds.
func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id int64) error) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Categories.List(r.Context(), core.TransactionType(trimmedQuery(r, "type")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.svc.Categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	req, err := bindAndValidate[categoryCreateRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.svc.Categories.Create(r.Context(), services.CategoryInput{
		Name:  req.Name,
		Type:  req.Type,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(w, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := bindAndValidate[categoryPatchRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.svc.Categories.Update(r.Context(), id, services.CategoryPatch{
		Name:  req.Name,
		Type:  req.Type,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.Categories.Delete)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Tags.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tags)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tag, err := s.svc.Tags.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tag)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	req, err := bindAndValidate[tagRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tag, err := s.svc.Tags.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(w, tag)
}

func (s *Server) handleRenameTag(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := bindAndValidate[tagRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tag, err := s.svc.Tags.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.svc.Tags.Delete)
}
