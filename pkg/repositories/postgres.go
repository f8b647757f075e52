package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	gametypes "github.com/cbodonnell/panchali/pkg/game/types"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to connStr and applies migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	r := &PostgresRepository{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepository) migrate(ctx context.Context) error {
	migrations, err := loadMigrations("postgres")
	if err != nil {
		return err
	}

	q := `CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (name TEXT PRIMARY KEY, applied_at BIGINT NOT NULL);`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to ensure migration table: %v", err)
	}

	for _, m := range migrations {
		err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `INSERT INTO `+migrationTable+` (name, applied_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
				m.name, time.Now().UnixMilli())
			if err != nil {
				return fmt.Errorf("failed to record migration %s: %v", m.name, err)
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx, m.up); err != nil {
				return fmt.Errorf("failed to execute migration %s: %v", m.name, err)
			}
			log.Debug("Applied migration %s", m.name)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullablePgString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PostgresRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	q := `
	INSERT INTO rooms (id, code, host_name, status, created_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.pool.Exec(ctx, q, room.ID, room.Code, room.HostName, string(room.Status), room.CreatedAt.UnixMilli())
	if err != nil {
		if isPgUniqueViolation(err) {
			return &ErrAlreadyExists{Entity: "room"}
		}
		return fmt.Errorf("failed to insert room: %v", err)
	}
	return nil
}

func (r *PostgresRepository) getRoom(ctx context.Context, column, value string) (*models.Room, error) {
	q := `SELECT id, code, host_name, status, created_at FROM rooms WHERE ` + column + ` = $1;`
	room := &models.Room{}
	var status string
	var createdAt int64
	err := r.pool.QueryRow(ctx, q, value).Scan(&room.ID, &room.Code, &room.HostName, &status, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "room"}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}
	room.Status = models.RoomStatus(status)
	room.CreatedAt = time.UnixMilli(createdAt).UTC()
	return room, nil
}

func (r *PostgresRepository) GetRoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	return r.getRoom(ctx, "id", roomID)
}

func (r *PostgresRepository) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	return r.getRoom(ctx, "code", code)
}

func (r *PostgresRepository) UpdateRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid room status transition %s -> %s", from, to)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE rooms SET status = $1 WHERE id = $2 AND status = $3;`, string(to), roomID, string(from))
	if err != nil {
		return fmt.Errorf("failed to update room status: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: fmt.Sprintf("%s room", from)}
	}
	return nil
}

func (r *PostgresRepository) CreatePlayer(ctx context.Context, player *models.Player) error {
	q := `
	INSERT INTO players (id, room_id, name, connection_id, auth_token, position, ballots,
		completed_circle, is_alive, is_host, join_order, joined_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.pool.Exec(ctx, q,
		player.ID, player.RoomID, player.Name, nullablePgString(player.ConnectionID), player.AuthToken,
		player.Position, player.Ballots, player.HasCompletedCircle, player.IsAlive, player.IsHost,
		player.JoinOrder, player.JoinedAt.UnixMilli(),
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return &ErrAlreadyExists{Entity: "player"}
		}
		return fmt.Errorf("failed to insert player: %v", err)
	}
	return nil
}

const pgPlayerColumns = `id, room_id, name, connection_id, auth_token, position, ballots,
	completed_circle, is_alive, is_host, join_order, joined_at`

func scanPgPlayer(row pgx.Row) (*models.Player, error) {
	p := &models.Player{}
	var connectionID *string
	var joinedAt int64
	err := row.Scan(&p.ID, &p.RoomID, &p.Name, &connectionID, &p.AuthToken, &p.Position, &p.Ballots,
		&p.HasCompletedCircle, &p.IsAlive, &p.IsHost, &p.JoinOrder, &joinedAt)
	if err != nil {
		return nil, err
	}
	if connectionID != nil {
		p.ConnectionID = *connectionID
	}
	p.JoinedAt = time.UnixMilli(joinedAt).UTC()
	return p, nil
}

func (r *PostgresRepository) ListPlayers(ctx context.Context, roomID string) ([]*models.Player, error) {
	q := `SELECT ` + pgPlayerColumns + ` FROM players WHERE room_id = $1 ORDER BY join_order, joined_at;`
	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %v", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPgPlayer(rows)
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

func (r *PostgresRepository) GetPlayerByConnection(ctx context.Context, connectionID string) (*models.Player, error) {
	if connectionID == "" {
		return nil, &ErrNotFound{Entity: "player"}
	}
	q := `SELECT ` + pgPlayerColumns + ` FROM players WHERE connection_id = $1 LIMIT 1;`
	p, err := scanPgPlayer(r.pool.QueryRow(ctx, q, connectionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "player"}
		}
		return nil, fmt.Errorf("failed to scan player: %v", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdatePlayerConnection(ctx context.Context, playerID, connectionID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE players SET connection_id = $1 WHERE id = $2;`, nullablePgString(connectionID), playerID)
	if err != nil {
		return fmt.Errorf("failed to update player connection: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "player"}
	}
	return nil
}

func (r *PostgresRepository) ClearPlayerConnection(ctx context.Context, playerID, connectionID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE players SET connection_id = NULL WHERE id = $1 AND connection_id = $2;`, playerID, connectionID)
	if err != nil {
		return fmt.Errorf("failed to clear player connection: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ClearAllConnections(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `UPDATE players SET connection_id = NULL WHERE connection_id IS NOT NULL;`); err != nil {
		return fmt.Errorf("failed to clear connections: %v", err)
	}
	return nil
}

func (r *PostgresRepository) SaveGameState(ctx context.Context, gameState *gametypes.GameState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := `
	UPDATE players SET position = $1, ballots = $2, completed_circle = $3, is_alive = $4
	WHERE id = $5 AND room_id = $6;
	`
	for _, playerState := range gameState.OrderedPlayers() {
		tag, err := tx.Exec(ctx, q, playerState.Position, playerState.Ballots,
			playerState.HasCompletedCircle, playerState.IsAlive, playerState.ID, gameState.RoomID)
		if err != nil {
			return fmt.Errorf("failed to update player %s: %v", playerState.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return &ErrNotFound{Entity: "player " + playerState.ID}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) SaveCheckpoint(ctx context.Context, checkpoint *models.GameCheckpoint) error {
	q := `
	INSERT INTO game_states (room_id, current_turn_player_id, current_turn_index, action_log, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (room_id) DO UPDATE SET
		current_turn_player_id = EXCLUDED.current_turn_player_id,
		current_turn_index = EXCLUDED.current_turn_index,
		action_log = EXCLUDED.action_log,
		updated_at = EXCLUDED.updated_at;
	`
	actionLog := checkpoint.ActionLog
	if len(actionLog) == 0 {
		actionLog = []byte("[]")
	}
	_, err := r.pool.Exec(ctx, q, checkpoint.RoomID, nullablePgString(checkpoint.CurrentTurnPlayerID),
		checkpoint.CurrentTurnIndex, string(actionLog), checkpoint.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadCheckpoint(ctx context.Context, roomID string) (*models.GameCheckpoint, error) {
	q := `
	SELECT room_id, current_turn_player_id, current_turn_index, action_log, updated_at
	FROM game_states WHERE room_id = $1;
	`
	cp := &models.GameCheckpoint{}
	var currentPlayer *string
	var actionLog string
	var updatedAt int64
	err := r.pool.QueryRow(ctx, q, roomID).Scan(&cp.RoomID, &currentPlayer, &cp.CurrentTurnIndex, &actionLog, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{Entity: "checkpoint"}
		}
		return nil, fmt.Errorf("failed to scan checkpoint: %v", err)
	}
	if currentPlayer != nil {
		cp.CurrentTurnPlayerID = *currentPlayer
	}
	cp.ActionLog = []byte(actionLog)
	cp.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return cp, nil
}
