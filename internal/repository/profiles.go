package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FilterProfile: запись таблицы filter_profiles.
type FilterProfile struct {
	// Владелец профиля (пользователь или сессия)
	Owner string
	// Ресурс таблицы (events, series, ...)
	Resource    string
	Name        string
	Description string
	// Фильтры профиля в JSON
	FilterMap json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository: интерфейс для таблицы filter_profiles.
type ProfileRepository interface {
	// List возвращает профили владельца, отсортированные по ресурсу и имени.
	List(ctx context.Context, owner string) ([]FilterProfile, error)
	// Create добавляет профиль. Дубликат имени в ресурсе: ErrConflict.
	Create(ctx context.Context, p *FilterProfile) error
	// Delete удаляет профиль. Если не найден: ErrNotFound.
	Delete(ctx context.Context, owner, resource, name string) error
	// DeleteAll удаляет все профили владельца.
	DeleteAll(ctx context.Context, owner string) error
}

type profileRepo struct {
	db DBTX
}

// NewProfileRepository создаёт репозиторий профилей фильтров.
func NewProfileRepository(db DBTX) ProfileRepository {
	return &profileRepo{db: db}
}

// List возвращает профили владельца.
func (r *profileRepo) List(ctx context.Context, owner string) ([]FilterProfile, error) {
	query := `
		SELECT owner, resource, name, description, filter_map, created_at, updated_at
		FROM filter_profiles
		WHERE owner = $1
		ORDER BY resource, name`

	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профилей %s: %w", owner, err)
	}
	defer rows.Close()

	var profiles []FilterProfile
	for rows.Next() {
		var p FilterProfile
		if err := rows.Scan(&p.Owner, &p.Resource, &p.Name, &p.Description,
			&p.FilterMap, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования filter_profiles: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Create добавляет профиль и заполняет CreatedAt/UpdatedAt.
func (r *profileRepo) Create(ctx context.Context, p *FilterProfile) error {
	query := `
		INSERT INTO filter_profiles (owner, resource, name, description, filter_map)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	filterMap := p.FilterMap
	if len(filterMap) == 0 {
		filterMap = json.RawMessage("[]")
	}
	err := r.db.QueryRow(ctx, query, p.Owner, p.Resource, p.Name, p.Description, filterMap).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("профиль %s/%s: %w", p.Resource, p.Name, ErrConflict)
		}
		return fmt.Errorf("ошибка создания профиля %s/%s: %w", p.Resource, p.Name, err)
	}
	return nil
}

// Delete удаляет профиль.
func (r *profileRepo) Delete(ctx context.Context, owner, resource, name string) error {
	query := `DELETE FROM filter_profiles WHERE owner = $1 AND resource = $2 AND name = $3`
	tag, err := r.db.Exec(ctx, query, owner, resource, name)
	if err != nil {
		return fmt.Errorf("ошибка удаления профиля %s/%s: %w", resource, name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll удаляет все профили владельца.
func (r *profileRepo) DeleteAll(ctx context.Context, owner string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM filter_profiles WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("ошибка удаления профилей %s: %w", owner, err)
	}
	return nil
}
