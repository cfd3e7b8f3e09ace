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

package userdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const listTasksQuery = `
SELECT id, description, reward, image_url, header, link, type
FROM tasks
ORDER BY id`

func (q *Queries) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := q.db.Query(ctx, listTasksQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Description, &t.Reward, &t.ImageURL, &t.Header, &t.Link, &t.Type); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

const getTaskQuery = `
SELECT id, description, reward, image_url, header, link, type
FROM tasks
WHERE id = $1`

func (q *Queries) GetTask(ctx context.Context, taskID int64) (Task, error) {
	var t Task
	err := q.db.QueryRow(ctx, getTaskQuery, taskID).Scan(
		&t.ID, &t.Description, &t.Reward, &t.ImageURL, &t.Header, &t.Link, &t.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return t, err
}

type AddTaskParams struct {
	Description string
	Reward      int64
	ImageURL    string
	Header      string
	Link        string
	Type        string
}

const addTaskQuery = `
INSERT INTO tasks (description, reward, image_url, header, link, type)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, description, reward, image_url, header, link, type`

func (q *Queries) AddTask(ctx context.Context, arg AddTaskParams) (Task, error) {
	var t Task
	err := q.db.QueryRow(ctx, addTaskQuery,
		arg.Description, arg.Reward, arg.ImageURL, arg.Header, arg.Link, arg.Type).Scan(
		&t.ID, &t.Description, &t.Reward, &t.ImageURL, &t.Header, &t.Link, &t.Type)
	return t, err
}

const deleteTaskQuery = `
DELETE FROM tasks WHERE id = $1`

func (q *Queries) DeleteTask(ctx context.Context, taskID int64) error {
	tag, err := q.db.Exec(ctx, deleteTaskQuery, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CompleteTaskCredit credits the task's catalog reward to the user as a
// single transaction: the reward amount always comes from the catalog
// row, never from the caller.
func (store *Store) CompleteTaskCredit(ctx context.Context, userID, taskID int64) (User, error) {
	var credited User
	err := store.execTx(ctx, func(s *Store) error {
		task, err := s.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		credited, err = s.AddUserCoins(ctx, AddUserCoinsParams{UserID: userID, Delta: task.Reward})
		if err != nil {
			return fmt.Errorf("failed to credit task reward: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return credited, nil
}
