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

// Package apiserver is the HTTP boundary: it decodes requests, calls the
// user service and referral coordinator, and maps error kinds to
// transport responses. No business rule lives here.
package apiserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/blazefam/blazeledger/internal/userservice"
	"github.com/blazefam/blazeledger/userdb"
)

// UserService is the service surface the handlers call.
type UserService interface {
	FetchUser(ctx context.Context, userID int64) (userdb.User, error)
	ApplyUpdate(ctx context.Context, arg userdb.UpsertUserParams) (userdb.User, error)
	AggregateStats(ctx context.Context) (userdb.UserStatsRow, error)
	ListFrens(ctx context.Context, userID int64) ([]userdb.User, error)
	CompleteTask(ctx context.Context, userID, taskID int64) (userdb.User, error)
	LevelUp(ctx context.Context, arg userservice.LevelUpParams) (userdb.User, error)
	Tasks(ctx context.Context) ([]userdb.Task, error)
	AddTask(ctx context.Context, arg userdb.AddTaskParams) (userdb.Task, error)
	DeleteTask(ctx context.Context, taskID int64) error
}

// ReferralService is the coordinator surface the handlers call.
type ReferralService interface {
	InviteFriend(ctx context.Context, inviterID, inviteeID int64) error
}

type Config struct {
	Addr           string
	RequestTimeout time.Duration
}

type Server struct {
	users     UserService
	referrals ReferralService
	cfg       Config
	server    *http.Server
}

func NewServer(cfg Config, users UserService, referrals ReferralService) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Server{
		users:     users,
		referrals: referrals,
		cfg:       cfg,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	r.Use(requestLogger)

	r.Get("/user/{userID}", s.getUserHandler)
	r.Post("/update_user", s.updateUserHandler)
	r.Post("/update_coins", s.updateCoinsHandler)
	r.Post("/invite_friend", s.inviteFriendHandler)
	r.Get("/get_frens/{userID}", s.getFrensHandler)
	r.Post("/level_up", s.levelUpHandler)
	r.Get("/admin_stats", s.adminStatsHandler)

	r.Get("/tasks", s.listTasksHandler)
	r.Post("/add_task", s.addTaskHandler)
	r.Post("/delete_task", s.deleteTaskHandler)
	r.Post("/complete_task", s.completeTaskHandler)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	slog.Info("Starting API server", slog.String("addr", s.cfg.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Stopping API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)))
	})
}
