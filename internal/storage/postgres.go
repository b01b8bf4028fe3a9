package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const defaultConnectTimeout = 5 * time.Second

// PostgresStore persists users, characters and items.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects using a lib/pq connection string and checks the
// database is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return NewPostgresStore(db), nil
}

// Migrate creates any missing tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// FindUserByEmail returns ErrUserNotFound when no account matches.
func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password
		FROM users
		WHERE email = $1
	`, email)

	var u User
	err := row.Scan(&u.Id, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// LoadActiveCharacter returns the character the user last selected, or
// ErrNoActiveCharacter.
func (s *PostgresStore) LoadActiveCharacter(ctx context.Context, userId int64) (*Character, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, class, level, xp, hp, max_hp, attack_power, defense,
		       attack_range, attack_speed, move_speed, pos_x, pos_y
		FROM characters
		WHERE user_id = $1 AND is_active
		ORDER BY last_login DESC NULLS LAST
		LIMIT 1
	`, userId)

	var c Character
	err := row.Scan(&c.Id, &c.UserId, &c.Name, &c.Class, &c.Level, &c.Xp, &c.Hp, &c.MaxHp,
		&c.AttackPower, &c.Defense, &c.AttackRange, &c.AttackSpeed, &c.MoveSpeed, &c.X, &c.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveCharacter
	}
	if err != nil {
		return nil, fmt.Errorf("querying active character: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE characters SET last_login = NOW() WHERE id = $1`, c.Id)
	if err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}

	return &c, nil
}

// UpsertCharacterStats overwrites the live stats of a character.
func (s *PostgresStore) UpsertCharacterStats(ctx context.Context, id int64, st CharacterStats) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE characters
		SET level = $2, xp = $3, hp = $4, max_hp = $5, attack_power = $6, defense = $7,
		    pos_x = $8, pos_y = $9
		WHERE id = $1
	`, id, st.Level, st.Xp, st.Hp, st.MaxHp, st.AttackPower, st.Defense, st.X, st.Y)
	if err != nil {
		return fmt.Errorf("updating character %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating character %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("updating character %d: no such character", id)
	}
	return nil
}

// LookupItem returns ErrItemNotFound for unknown ids.
func (s *PostgresStore) LookupItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, rarity, COALESCE(data, 'null'::jsonb)
		FROM items
		WHERE id = $1
	`, id)

	var it Item
	var data []byte
	err := row.Scan(&it.Id, &it.Name, &it.Type, &it.Rarity, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying item %d: %w", id, err)
	}
	if string(data) != "null" {
		it.Data = json.RawMessage(data)
	}
	return &it, nil
}

// AppendInventoryItem adds item to the end of the character's inventory.
func (s *PostgresStore) AppendInventoryItem(ctx context.Context, characterId int64, item *Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshalling item: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE characters
		SET inventory = inventory || jsonb_build_array($2::jsonb)
		WHERE id = $1
	`, characterId, string(data))
	if err != nil {
		return fmt.Errorf("appending item to character %d: %w", characterId, err)
	}
	return nil
}
