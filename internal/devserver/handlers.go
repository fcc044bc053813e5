package devserver

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/florianilch/taskconsole/internal/api"
	"github.com/florianilch/taskconsole/internal/resources"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var creds api.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, ok := s.data.authenticate(creds.Username, creds.Password)
	if !ok {
		writeError(ctx, w, "wrong username or password", http.StatusUnauthorized)
		return
	}

	s.writeTokenPair(w, r, user.ID)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.tokens.verify(bearerToken(r), kindRefresh)
	if err != nil {
		writeError(ctx, w, "refresh token invalid or expired", http.StatusUnauthorized)
		return
	}
	if _, ok := s.data.user(userID); !ok {
		writeError(ctx, w, "account no longer exists", http.StatusUnauthorized)
		return
	}

	s.writeTokenPair(w, r, userID)
}

func (s *Server) writeTokenPair(w http.ResponseWriter, r *http.Request, userID int64) {
	ctx := r.Context()

	pair, err := s.tokens.issue(userID)
	if err != nil {
		writeError(ctx, w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeData(ctx, w, pair, http.StatusOK)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := s.data.user(callerID(ctx))
	if !ok {
		writeError(ctx, w, "account no longer exists", http.StatusUnauthorized)
		return
	}
	writeData(ctx, w, user, http.StatusOK)
}

func (s *Server) allUsers(w http.ResponseWriter, r *http.Request) {
	writeData(r.Context(), w, s.data.listUsers(""), http.StatusOK)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := resources.ListUsersParams{}
	query := r.URL.Query()
	if err := bindPaging(query, &params.Page, &params.PageSize); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "nickname", query, &params.Nickname); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	var nickname string
	if params.Nickname != nil {
		nickname = *params.Nickname
	}
	writePage(w, r, s.data.listUsers(nickname), params.Page, params.PageSize)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in resources.CreateUserRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.data.createUser(in, s.now())
	if errors.Is(err, errUsernameTaken) {
		writeError(ctx, w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		writeError(ctx, w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeData(ctx, w, user, http.StatusCreated)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in := resources.UpdateUserRequest{ID: id}
	if err := decodeBody(r, &in); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.ID != id {
		writeError(ctx, w, "id in body does not match path", http.StatusBadRequest)
		return
	}

	user, err := s.data.updateUser(in, s.now())
	if err != nil {
		writeError(ctx, w, "user not found", http.StatusNotFound)
		return
	}
	writeData(ctx, w, user, http.StatusOK)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.data.deleteUser(id); err != nil {
		writeError(ctx, w, "user not found", http.StatusNotFound)
		return
	}
	writeData(ctx, w, nil, http.StatusOK)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := resources.ListTasksParams{}
	query := r.URL.Query()
	if err := bindPaging(query, &params.Page, &params.PageSize); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	for name, dest := range map[string]any{
		"user_id":    &params.UserID,
		"task_name":  &params.TaskName,
		"started_at": &params.StartedAt,
		"ended_at":   &params.EndedAt,
		"status":     &params.Status,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			writeError(ctx, w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := validate.Struct(params); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	writePage(w, r, s.data.listTasks(params), params.Page, params.PageSize)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in resources.CreateTaskRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := s.data.createTask(in, s.now())
	if err != nil {
		writeError(ctx, w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeData(ctx, w, task, http.StatusCreated)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// A body without an id inherits the one from the path.
	in := resources.UpdateTaskRequest{ID: id}
	if err := decodeBody(r, &in); err != nil {
		writeError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.ID != id {
		writeError(ctx, w, "id in body does not match path", http.StatusBadRequest)
		return
	}

	task, err := s.data.updateTask(in, s.now())
	if errors.Is(err, errNotFound) {
		writeError(ctx, w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(ctx, w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeData(ctx, w, task, http.StatusOK)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := s.data.deleteTask(id, s.now())
	if err != nil {
		writeError(ctx, w, "task not found", http.StatusNotFound)
		return
	}
	writeData(ctx, w, task, http.StatusOK)
}

// bindPaging reads page and page_size, applying defaults and bounds.
func bindPaging(query url.Values, page, pageSize *int) error {
	if err := runtime.BindQueryParameter("form", true, false, "page", query, page); err != nil {
		return err
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_size", query, pageSize); err != nil {
		return err
	}
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = defaultPageSize
	}
	*pageSize = min(*pageSize, maxPageSize)
	return nil
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, page, pageSize int) {
	total := len(items)
	writeJSON(r.Context(), w, envelope{
		Data:     paginate(items, page, pageSize),
		Msg:      "ok",
		Page:     &page,
		PageSize: &pageSize,
		Total:    &total,
	}, http.StatusOK)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(r.Context(), w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
