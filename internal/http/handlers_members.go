package http

import (
	"net/http"

	"tresorier/internal/core"
)

func (s *Server) handleCotisationList(w http.ResponseWriter, r *http.Request) {
	cotisations, err := s.members.ListCotisations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cotisations == nil {
		cotisations = []core.CotisationRow{}
	}
	writeJSON(w, http.StatusOK, cotisations)
}

func (s *Server) handleCotisationGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cotisation, err := s.members.GetCotisation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cotisation)
}

func (s *Server) handleCotisationSave(w http.ResponseWriter, r *http.Request) {
	var cotisation core.Cotisation
	if err := decodeBody(r, &cotisation); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.members.SaveCotisation(r.Context(), &cotisation); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, cotisation.ID)
}

func (s *Server) handleCotisationDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.members.DeleteCotisation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleMemberList(w http.ResponseWriter, r *http.Request) {
	filter, err := memberFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	persons, err := s.members.ListPersons(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if persons == nil {
		persons = []core.PersonRow{}
	}
	writeJSON(w, http.StatusOK, persons)
}

func (s *Server) handleMemberGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	person, err := s.members.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleMemberSave(w http.ResponseWriter, r *http.Request) {
	var person core.Person
	if err := decodeBody(r, &person); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.members.SavePerson(r.Context(), &person); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, person.ID)
}

func (s *Server) handleMemberDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.members.DeletePerson(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleMembershipList(w http.ResponseWriter, r *http.Request) {
	filter, err := membershipFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	memberships, err := s.members.ListMemberships(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if memberships == nil {
		memberships = []core.MembershipRow{}
	}
	writeJSON(w, http.StatusOK, memberships)
}

func (s *Server) handleMembershipGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.members.GetMembership(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleMembershipSave(w http.ResponseWriter, r *http.Request) {
	var payload membershipPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	input := payload.toInput()
	if err := s.members.SaveMembership(r.Context(), input); err != nil {
		writeError(w, r, err)
		return
	}
	writeSaved(w, input.ID)
}

func (s *Server) handleMembershipDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.members.DeleteMembership(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}
