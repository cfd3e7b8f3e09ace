// Copyright (C) 2025 The Blazeledger Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package apiserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/blazefam/blazeledger/internal/userservice"
	"github.com/blazefam/blazeledger/userdb"
)

// userResponse carries the externally visible snapshot fields. The
// invited_by linkage stays internal.
type userResponse struct {
	UserID       int64   `json:"user_id"`
	Username     *string `json:"username"`
	Coins        int64   `json:"coins"`
	Level        string  `json:"level"`
	InvitedFrens int64   `json:"invited_frens"`
}

func toUserResponse(u userdb.User) userResponse {
	return userResponse{
		UserID:       u.UserID,
		Username:     u.Username,
		Coins:        u.Coins,
		Level:        u.Level,
		InvitedFrens: u.InvitedFrens,
	}
}

type taskResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	ImageURL    string `json:"imageUrl"`
	Header      string `json:"header"`
	Link        string `json:"link"`
	Type        string `json:"type"`
}

func toTaskResponse(t userdb.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Description: t.Description,
		Reward:      t.Reward,
		ImageURL:    t.ImageURL,
		Header:      t.Header,
		Link:        t.Link,
		Type:        t.Type,
	}
}

func (s *Server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := s.users.FetchUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type updateUserRequest struct {
	UserID       *int64  `json:"user_id"`
	Username     *string `json:"username"`
	InvitedFrens *int64  `json:"invited_frens"`
	Coins        *int64  `json:"coins"`
	Level        *string `json:"level"`
}

func (s *Server) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	// Absent fields stay nil and are skipped by the upsert; a field
	// present with an empty value is applied verbatim.
	_, err := s.users.ApplyUpdate(r.Context(), userdb.UpsertUserParams{
		UserID:       *req.UserID,
		Username:     req.Username,
		Coins:        req.Coins,
		Level:        req.Level,
		InvitedFrens: req.InvitedFrens,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User data updated successfully",
	})
}

type updateCoinsRequest struct {
	UserID *int64 `json:"user_id"`
	Coins  *int64 `json:"coins"`
}

func (s *Server) updateCoinsHandler(w http.ResponseWriter, r *http.Request) {
	var req updateCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == nil || req.Coins == nil {
		writeError(w, http.StatusBadRequest, "user_id and coins are required")
		return
	}

	user, err := s.users.ApplyUpdate(r.Context(), userdb.UpsertUserParams{
		UserID: *req.UserID,
		Coins:  req.Coins,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type inviteFriendRequest struct {
	InviterID *int64 `json:"inviter_id"`
	InvitedID *int64 `json:"invited_id"`
}

func (s *Server) inviteFriendHandler(w http.ResponseWriter, r *http.Request) {
	var req inviteFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InviterID == nil || req.InvitedID == nil {
		writeError(w, http.StatusBadRequest, "inviter_id and invited_id are required")
		return
	}

	if err := s.referrals.InviteFriend(r.Context(), *req.InviterID, *req.InvitedID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Friend invited successfully",
	})
}

func (s *Server) getFrensHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	frens, err := s.users.ListFrens(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]userResponse, 0, len(frens))
	for _, fren := range frens {
		out = append(out, toUserResponse(fren))
	}
	writeJSON(w, http.StatusOK, out)
}

type levelUpRequest struct {
	UserID   *int64  `json:"user_id"`
	NewLevel *string `json:"new_level"`
	Cost     int64   `json:"cost"`
	Prize    int64   `json:"prize"`
}

func (s *Server) levelUpHandler(w http.ResponseWriter, r *http.Request) {
	var req levelUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == nil || req.NewLevel == nil {
		writeError(w, http.StatusBadRequest, "user_id and new_level are required")
		return
	}

	user, err := s.users.LevelUp(r.Context(), userservice.LevelUpParams{
		UserID: *req.UserID,
		Level:  *req.NewLevel,
		Cost:   req.Cost,
		Prize:  req.Prize,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) adminStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.AggregateStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"totalUsers":      stats.TotalUsers,
		"totalBlazeCoins": stats.TotalCoins,
	})
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.users.Tasks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	writeJSON(w, http.StatusOK, out)
}

type addTaskRequest struct {
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	ImageURL    string `json:"imageUrl"`
	Header      string `json:"header"`
	Link        string `json:"link"`
	Type        string `json:"type"`
}

func (s *Server) addTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	task, err := s.users.AddTask(r.Context(), userdb.AddTaskParams{
		Description: req.Description,
		Reward:      req.Reward,
		ImageURL:    req.ImageURL,
		Header:      req.Header,
		Link:        req.Link,
		Type:        req.Type,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

type deleteTaskRequest struct {
	TaskID *int64 `json:"task_id"`
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req deleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == nil {
		writeError(w, http.StatusBadRequest, "task_id is required")
		return
	}

	if err := s.users.DeleteTask(r.Context(), *req.TaskID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type completeTaskRequest struct {
	UserID *int64 `json:"user_id"`
	TaskID *int64 `json:"task_id"`
}

func (s *Server) completeTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == nil || req.TaskID == nil {
		writeError(w, http.StatusBadRequest, "user_id and task_id are required")
		return
	}

	user, err := s.users.CompleteTask(r.Context(), *req.UserID, *req.TaskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// writeServiceError maps error kinds to transport responses. Only the
// stable message leaks to the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userdb.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, userdb.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, userdb.ErrInviterNotFound):
		writeError(w, http.StatusNotFound, "Inviter not found")
	case errors.Is(err, userdb.ErrAlreadyInvited):
		writeError(w, http.StatusBadRequest, "User already invited")
	case errors.Is(err, userservice.ErrInsufficientCoins):
		writeError(w, http.StatusBadRequest, "Insufficient coins")
	case userdb.IsIntegrityViolation(err):
		writeError(w, http.StatusInternalServerError, "Database integrity error")
	default:
		slog.Error("Request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
