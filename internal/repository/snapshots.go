package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Snapshot: запись таблицы state_snapshots.
type Snapshot struct {
	// Пространство имён снимков (фиксировано для приложения)
	Namespace string
	Owner     string
	// Состояние в JSON
	State     json.RawMessage
	UpdatedAt time.Time
}

// SnapshotRepository: интерфейс для таблицы state_snapshots.
type SnapshotRepository interface {
	// Get возвращает снимок. Если не найден: ErrNotFound.
	Get(ctx context.Context, namespace, owner string) (*Snapshot, error)
	// Save создаёт или заменяет снимок (upsert).
	Save(ctx context.Context, s *Snapshot) error
}

type snapshotRepo struct {
	db DBTX
}

// NewSnapshotRepository создаёт репозиторий снимков состояния.
func NewSnapshotRepository(db DBTX) SnapshotRepository {
	return &snapshotRepo{db: db}
}

// Get возвращает снимок по пространству имён и владельцу.
func (r *snapshotRepo) Get(ctx context.Context, namespace, owner string) (*Snapshot, error) {
	query := `
		SELECT namespace, owner, state, updated_at
		FROM state_snapshots
		WHERE namespace = $1 AND owner = $2`

	s := &Snapshot{}
	err := r.db.QueryRow(ctx, query, namespace, owner).Scan(&s.Namespace, &s.Owner, &s.State, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения снимка %s/%s: %w", namespace, owner, err)
	}
	return s, nil
}

// Save создаёт или заменяет снимок (INSERT ... ON CONFLICT DO UPDATE).
func (r *snapshotRepo) Save(ctx context.Context, s *Snapshot) error {
	query := `
		INSERT INTO state_snapshots (namespace, owner, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, owner) DO UPDATE
		SET state = EXCLUDED.state,
			updated_at = NOW()
		RETURNING updated_at`

	if err := r.db.QueryRow(ctx, query, s.Namespace, s.Owner, s.State).Scan(&s.UpdatedAt); err != nil {
		return fmt.Errorf("ошибка сохранения снимка %s/%s: %w", s.Namespace, s.Owner, err)
	}
	return nil
}

// SessionData: сохраняемая часть сессии: профили и снимок состояния.
type SessionData struct {
	Profiles []FilterProfile
	// State: снимок состояния (nil, если снимка нет)
	State json.RawMessage
}

// SessionRepository сохраняет и загружает данные сессии целиком.
type SessionRepository struct {
	db DBTX
	tx *TxRunner
}

// NewSessionRepository создаёт репозиторий данных сессий.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool, tx: NewTxRunner(pool)}
}

// Load возвращает профили и снимок владельца. Отсутствие снимка не ошибка.
func (r *SessionRepository) Load(ctx context.Context, namespace, owner string) (*SessionData, error) {
	profiles, err := NewProfileRepository(r.db).List(ctx, owner)
	if err != nil {
		return nil, err
	}
	data := &SessionData{Profiles: profiles}

	snap, err := NewSnapshotRepository(r.db).Get(ctx, namespace, owner)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	default:
		data.State = snap.State
	}
	return data, nil
}

// Save в одной транзакции заменяет профили владельца и сохраняет снимок.
func (r *SessionRepository) Save(ctx context.Context, namespace, owner string, data SessionData) error {
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		profiles := NewProfileRepository(tx)
		if err := profiles.DeleteAll(ctx, owner); err != nil {
			return err
		}
		for i := range data.Profiles {
			p := data.Profiles[i]
			p.Owner = owner
			if err := profiles.Create(ctx, &p); err != nil {
				return err
			}
		}
		if data.State == nil {
			return nil
		}
		return NewSnapshotRepository(tx).Save(ctx, &Snapshot{
			Namespace: namespace,
			Owner:     owner,
			State:     data.State,
		})
	})
}
