package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at path and applies migrations.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a single writer avoids SQLITE_BUSY between handler goroutines
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Opened sqlite database %s", path)
	return r, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	migrations, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}

	q := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL);`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to ensure migration table: %v", err)
	}

	for _, m := range migrations {
		var found int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM `+migrationTable+` WHERE name = ?`, m.name).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check migration %s: %v", m.name, err)
		}

		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %v", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %v", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`, m.name, time.Now().UnixMilli()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %v", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %v", m.name, err)
		}
		log.Debug("Applied migration %s", m.name)
	}

	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *SQLiteRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	q := `
	INSERT INTO rooms (id, code, host_name, status, created_at)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, room.ID, room.Code, room.HostName, room.Status, room.CreatedAt.UnixMilli())
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return &ErrAlreadyExists{Entity: "room"}
		}
		return fmt.Errorf("failed to insert room: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) getRoom(ctx context.Context, column, value string) (*models.Room, error) {
	q := `SELECT id, code, host_name, status, created_at FROM rooms WHERE ` + column + ` = ?;`
	room := &models.Room{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, q, value).Scan(&room.ID, &room.Code, &room.HostName, &room.Status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "room"}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}
	room.CreatedAt = time.UnixMilli(createdAt).UTC()
	return room, nil
}

func (r *SQLiteRepository) GetRoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	return r.getRoom(ctx, "id", roomID)
}

func (r *SQLiteRepository) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	return r.getRoom(ctx, "code", code)
}

func (r *SQLiteRepository) UpdateRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid room status transition %s -> %s", from, to)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ? AND status = ?;`, to, roomID, from)
	if err != nil {
		return fmt.Errorf("failed to update room status: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %v", err)
	}
	if n == 0 {
		return &ErrNotFound{Entity: fmt.Sprintf("%s room", from)}
	}
	return nil
}

func (r *SQLiteRepository) CreatePlayer(ctx context.Context, player *models.Player) error {
	q := `
	INSERT INTO players (id, room_id, name, connection_id, auth_token, position, ballots,
		completed_circle, is_alive, is_host, join_order, joined_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q,
		player.ID, player.RoomID, player.Name, nullString(player.ConnectionID), player.AuthToken,
		player.Position, player.Ballots, player.HasCompletedCircle, player.IsAlive, player.IsHost,
		player.JoinOrder, player.JoinedAt.UnixMilli(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return &ErrAlreadyExists{Entity: "player"}
		}
		return fmt.Errorf("failed to insert player: %v", err)
	}
	return nil
}

const sqlitePlayerColumns = `id, room_id, name, connection_id, auth_token, position, ballots,
	completed_circle, is_alive, is_host, join_order, joined_at`

func scanSQLitePlayer(row interface{ Scan(...any) error }) (*models.Player, error) {
	p := &models.Player{}
	var connectionID sql.NullString
	var joinedAt int64
	err := row.Scan(&p.ID, &p.RoomID, &p.Name, &connectionID, &p.AuthToken, &p.Position, &p.Ballots,
		&p.HasCompletedCircle, &p.IsAlive, &p.IsHost, &p.JoinOrder, &joinedAt)
	if err != nil {
		return nil, err
	}
	p.ConnectionID = connectionID.String
	p.JoinedAt = time.UnixMilli(joinedAt).UTC()
	return p, nil
}

func (r *SQLiteRepository) ListPlayers(ctx context.Context, roomID string) ([]*models.Player, error) {
	q := `SELECT ` + sqlitePlayerColumns + ` FROM players WHERE room_id = ? ORDER BY join_order, joined_at;`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %v", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanSQLitePlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %v", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %v", err)
	}
	return players, nil
}

func (r *SQLiteRepository) GetPlayerByConnection(ctx context.Context, connectionID string) (*models.Player, error) {
	if connectionID == "" {
		return nil, &ErrNotFound{Entity: "player"}
	}
	q := `SELECT ` + sqlitePlayerColumns + ` FROM players WHERE connection_id = ? LIMIT 1;`
	p, err := scanSQLitePlayer(r.db.QueryRowContext(ctx, q, connectionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "player"}
		}
		return nil, fmt.Errorf("failed to scan player: %v", err)
	}
	return p, nil
}

func (r *SQLiteRepository) UpdatePlayerConnection(ctx context.Context, playerID, connectionID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE players SET connection_id = ? WHERE id = ?;`, nullString(connectionID), playerID)
	if err != nil {
		return fmt.Errorf("failed to update player connection: %v", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrNotFound{Entity: "player"}
	}
	return nil
}

func (r *SQLiteRepository) ClearPlayerConnection(ctx context.Context, playerID, connectionID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE players SET connection_id = NULL WHERE id = ? AND connection_id = ?;`, playerID, connectionID)
	if err != nil {
		return fmt.Errorf("failed to clear player connection: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearAllConnections(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE players SET connection_id = NULL WHERE connection_id IS NOT NULL;`); err != nil {
		return fmt.Errorf("failed to clear connections: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveGameState(ctx context.Context, gameState *gametypes.GameState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	q := `
	UPDATE players SET position = ?, ballots = ?, completed_circle = ?, is_alive = ?
	WHERE id = ? AND room_id = ?;
	`
	for _, playerState := range gameState.OrderedPlayers() {
		res, err := tx.ExecContext(ctx, q, playerState.Position, playerState.Ballots,
			playerState.HasCompletedCircle, playerState.IsAlive, playerState.ID, gameState.RoomID)
		if err != nil {
			return fmt.Errorf("failed to update player %s: %v", playerState.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return &ErrNotFound{Entity: "player " + playerState.ID}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) SaveCheckpoint(ctx context.Context, checkpoint *models.GameCheckpoint) error {
	q := `
	INSERT INTO game_states (room_id, current_turn_player_id, current_turn_index, action_log, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (room_id) DO UPDATE SET
		current_turn_player_id = excluded.current_turn_player_id,
		current_turn_index = excluded.current_turn_index,
		action_log = excluded.action_log,
		updated_at = excluded.updated_at;
	`
	actionLog := checkpoint.ActionLog
	if len(actionLog) == 0 {
		actionLog = []byte("[]")
	}
	_, err := r.db.ExecContext(ctx, q, checkpoint.RoomID, nullString(checkpoint.CurrentTurnPlayerID),
		checkpoint.CurrentTurnIndex, string(actionLog), checkpoint.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadCheckpoint(ctx context.Context, roomID string) (*models.GameCheckpoint, error) {
	q := `
	SELECT room_id, current_turn_player_id, current_turn_index, action_log, updated_at
	FROM game_states WHERE room_id = ?;
	`
	cp := &models.GameCheckpoint{}
	var currentPlayer sql.NullString
	var actionLog string
	var updatedAt int64
	err := r.db.QueryRowContext(ctx, q, roomID).Scan(&cp.RoomID, &currentPlayer, &cp.CurrentTurnIndex, &actionLog, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "checkpoint"}
		}
		return nil, fmt.Errorf("failed to scan checkpoint: %v", err)
	}
	cp.CurrentTurnPlayerID = currentPlayer.String
	cp.ActionLog = []byte(actionLog)
	cp.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return cp, nil
}
