package httpapi

import (
	"net/http"

	"github.com/librarydesk/lms/internal/library"
)

func profileInput(fields map[string]string) library.ProfileInput {
	return library.ProfileInput{
		Username:  fields["username"],
		FirstName: fields["first_name"],
		LastName:  fields["last_name"],
		Email:     fields["email"],
		Phone:     fields["phone"],
		Address:   fields["address"],
	}
}

// handleRegister creates a user account. Librarians are only created from the CLI.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	user, err := s.profiles.Register(r.Context(), library.RegisterInput{
		ProfileInput: profileInput(fields),
		Password:     fields["password"],
		Role:         library.RoleUser,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.created(w, user)
}

// profileTarget resolves the profile id and checks the actor may access it
func (s *Server) profileTarget(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return 0, false
	}
	actor, _ := actorFrom(r)
	if actor.ID != id && !actor.IsLibrarian() {
		s.fail(w, http.StatusForbidden, "cannot access another user's profile", nil)
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.profileTarget(w, r)
	if !ok {
		return
	}

	user, err := s.profiles.GetProfile(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.profileTarget(w, r)
	if !ok {
		return
	}
	fields, err := formFields(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.profiles.UpdateProfile(r.Context(), id, profileInput(fields)); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": id})
}
