package devserver

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/florianilch/taskconsole/internal/resources"
)

var (
	errNotFound      = errors.New("not found")
	errUsernameTaken = errors.New("username already taken")
)

type newUserInput = resources.CreateUserRequest

type userRecord struct {
	resources.User
	passwordHash []byte
}

// store holds users and tasks in memory.
type store struct {
	mu         sync.RWMutex
	users      map[int64]*userRecord
	tasks      map[int64]*resources.Task
	nextUserID int64
	nextTaskID int64
}

func newStore() *store {
	return &store{
		users: make(map[int64]*userRecord),
		tasks: make(map[int64]*resources.Task),
	}
}

func (s *store) createUser(in newUserInput, now time.Time) (resources.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return resources.User{}, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == in.Username {
			return resources.User{}, errUsernameTaken
		}
	}

	s.nextUserID++
	rec := &userRecord{
		User: resources.User{
			ID:        s.nextUserID,
			Username:  in.Username,
			Nickname:  in.Nickname,
			Email:     in.Email,
			Avatar:    in.Avatar,
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: hash,
	}
	s.users[rec.ID] = rec
	return rec.User, nil
}

// authenticate returns the user matching username and password.
func (s *store) authenticate(username, password string) (resources.User, bool) {
	s.mu.RLock()
	var found *userRecord
	for _, u := range s.users {
		if u.Username == username {
			found = u
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return resources.User{}, false
	}
	if bcrypt.CompareHashAndPassword(found.passwordHash, []byte(password)) != nil {
		return resources.User{}, false
	}
	return found.User, true
}

func (s *store) user(id int64) (resources.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return resources.User{}, false
	}
	return rec.User, true
}

// listUsers returns users ordered by id, filtered by a nickname substring.
func (s *store) listUsers(nickname string) []resources.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]resources.User, 0, len(s.users))
	for _, rec := range s.users {
		if nickname != "" && !strings.Contains(rec.Nickname, nickname) {
			continue
		}
		users = append(users, rec.User)
	}
	slices.SortFunc(users, func(a, b resources.User) int { return cmp.Compare(a.ID, b.ID) })
	return users
}

func (s *store) updateUser(in resources.UpdateUserRequest, now time.Time) (resources.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[in.ID]
	if !ok {
		return resources.User{}, errNotFound
	}
	rec.Nickname = in.Nickname
	rec.Avatar = in.Avatar
	rec.UpdatedAt = now
	return rec.User, nil
}

func (s *store) deleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return errNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *store) createTask(in resources.CreateTaskRequest, now time.Time) (resources.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.UserID]; !ok {
		return resources.Task{}, fmt.Errorf("user %d: %w", in.UserID, errNotFound)
	}

	s.nextTaskID++
	task := &resources.Task{
		ID:        s.nextTaskID,
		UserID:    in.UserID,
		TaskName:  in.TaskName,
		StartedAt: in.StartedAt,
		EndedAt:   in.EndedAt,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[task.ID] = task
	return *task, nil
}

// listTasks returns live tasks ordered by id that match every set filter.
func (s *store) listTasks(f resources.ListTasksParams) []resources.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]resources.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		switch {
		case t.DeletedAt != nil:
		case f.UserID != nil && t.UserID != *f.UserID:
		case f.TaskName != nil && !strings.Contains(t.TaskName, *f.TaskName):
		case f.Status != nil && t.Status != *f.Status:
		case f.StartedAt != nil && t.StartedAt.Before(*f.StartedAt):
		case f.EndedAt != nil && t.EndedAt.After(*f.EndedAt):
		default:
			tasks = append(tasks, *t)
		}
	}
	slices.SortFunc(tasks, func(a, b resources.Task) int { return cmp.Compare(a.ID, b.ID) })
	return tasks
}

func (s *store) updateTask(in resources.UpdateTaskRequest, now time.Time) (resources.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[in.ID]
	if !ok || task.DeletedAt != nil {
		return resources.Task{}, errNotFound
	}
	if _, ok := s.users[in.UserID]; !ok {
		return resources.Task{}, fmt.Errorf("user %d: %w", in.UserID, errNotFound)
	}
	task.UserID = in.UserID
	task.TaskName = in.TaskName
	task.StartedAt = in.StartedAt
	task.EndedAt = in.EndedAt
	task.Status = in.Status
	task.UpdatedAt = now
	return *task, nil
}

// deleteTask marks a task deleted; it disappears from listings.
func (s *store) deleteTask(id int64, now time.Time) (resources.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.DeletedAt != nil {
		return resources.Task{}, errNotFound
	}
	task.DeletedAt = &now
	return *task, nil
}

// paginate returns the items of 1-based page.
func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
