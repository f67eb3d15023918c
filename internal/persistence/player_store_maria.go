package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaPlayerRepo is a PlayerRepo backed by MariaDB/MySQL, generalized
// from internal/storage/maria_position_repo.go's MariaPositionRepo:
// the same explicit-columns-for-position, INSERT ... ON DUPLICATE KEY
// UPDATE approach, extended with rotation columns and a JSON inventory
// blob (a 10-slot array doesn't warrant its own table).
type MariaPlayerRepo struct {
	db *sql.DB
}

// NewMariaPlayerRepo opens dsn (user:pass@tcp(host:port)/dbname) and
// creates the player_records table if it doesn't exist.
func NewMariaPlayerRepo(dsn string) (*MariaPlayerRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open mariadb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: ping mariadb: %w", err)
	}

	repo := &MariaPlayerRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *MariaPlayerRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS player_records (
			user_id    BIGINT       PRIMARY KEY,
			pos_x      DOUBLE       NOT NULL,
			pos_y      DOUBLE       NOT NULL,
			pos_z      DOUBLE       NOT NULL,
			rot_w      DOUBLE       NOT NULL DEFAULT 1,
			rot_x      DOUBLE       NOT NULL DEFAULT 0,
			rot_y      DOUBLE       NOT NULL DEFAULT 0,
			rot_z      DOUBLE       NOT NULL DEFAULT 0,
			inventory  TEXT         NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("persistence: create player_records table: %w", err)
	}
	return nil
}

func (r *MariaPlayerRepo) Save(ctx context.Context, userID uint64, rec PlayerRecord) error {
	inv, err := json.Marshal(rec.Inventory)
	if err != nil {
		return fmt.Errorf("persistence: encode inventory for player %d: %w", userID, err)
	}

	query := `
		INSERT INTO player_records (user_id, pos_x, pos_y, pos_z, rot_w, rot_x, rot_y, rot_z, inventory)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			pos_x = VALUES(pos_x), pos_y = VALUES(pos_y), pos_z = VALUES(pos_z),
			rot_w = VALUES(rot_w), rot_x = VALUES(rot_x), rot_y = VALUES(rot_y), rot_z = VALUES(rot_z),
			inventory = VALUES(inventory)
	`
	_, err = r.db.ExecContext(ctx, query, userID,
		rec.Pos.X, rec.Pos.Y, rec.Pos.Z,
		rec.Rot.W, rec.Rot.X, rec.Rot.Y, rec.Rot.Z,
		string(inv))
	if err != nil {
		return fmt.Errorf("persistence: save player %d: %w", userID, err)
	}
	return nil
}

func (r *MariaPlayerRepo) Load(ctx context.Context, userID uint64) (PlayerRecord, bool, error) {
	var rec PlayerRecord
	var inv string
	query := `SELECT pos_x, pos_y, pos_z, rot_w, rot_x, rot_y, rot_z, inventory FROM player_records WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	err := row.Scan(&rec.Pos.X, &rec.Pos.Y, &rec.Pos.Z, &rec.Rot.W, &rec.Rot.X, &rec.Rot.Y, &rec.Rot.Z, &inv)
	if err == sql.ErrNoRows {
		return PlayerRecord{}, false, nil
	}
	if err != nil {
		return PlayerRecord{}, false, fmt.Errorf("persistence: load player %d: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(inv), &rec.Inventory); err != nil {
		return PlayerRecord{}, false, fmt.Errorf("persistence: decode inventory for player %d: %w", userID, err)
	}
	return rec, true, nil
}

func (r *MariaPlayerRepo) Delete(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM player_records WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("persistence: delete player %d: %w", userID, err)
	}
	return nil
}

func (r *MariaPlayerRepo) Close() error { return r.db.Close() }
