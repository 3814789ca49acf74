package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetRoom retrieves a room by id.
func (r *Impl) GetRoom(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*Room, error) {
	db = r.resolveDB(db)
	room := new(Room)
	err := db.NewSelect().
		Model(room).
		Where("r.id = ?", roomID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetRoom: %w", err)
	}
	return room, nil
}

// GetRoomByCode retrieves a room by its join code.
func (r *Impl) GetRoomByCode(ctx context.Context, db bun.IDB, code string) (*Room, error) {
	db = r.resolveDB(db)
	room := new(Room)
	err := db.NewSelect().
		Model(room).
		Where("r.code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetRoomByCode: %w", err)
	}
	return room, nil
}

// GetRoomForUpdate retrieves a room and locks its row until the transaction ends.
// Every phase transition goes through this lock so concurrent triggers serialize.
func (r *Impl) GetRoomForUpdate(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*Room, error) {
	db = r.resolveDB(db)
	room := new(Room)
	err := db.NewSelect().
		Model(room).
		Where("r.id = ?", roomID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetRoomForUpdate: %w", err)
	}
	return room, nil
}

// UpdateRoomState persists a room's phase and current game pointer.
func (r *Impl) UpdateRoomState(ctx context.Context, db bun.IDB, room *Room) error {
	db = r.resolveDB(db)
	room.UpdatedAt = time.Now()
	res, err := db.NewUpdate().
		Model(room).
		Column("phase", "current_game_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gamedb.UpdateRoomState: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// GetMember retrieves a user's membership in a room.
func (r *Impl) GetMember(ctx context.Context, db bun.IDB, roomID, userID uuid.UUID) (*RoomMember, error) {
	db = r.resolveDB(db)
	member := new(RoomMember)
	err := db.NewSelect().
		Model(member).
		Where("rm.room_id = ?", roomID).
		Where("rm.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetMember: %w", err)
	}
	return member, nil
}

// CountMembers counts the room's members holding role.
func (r *Impl) CountMembers(ctx context.Context, db bun.IDB, roomID uuid.UUID, role MemberRole) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*RoomMember)(nil)).
		Where("rm.room_id = ?", roomID).
		Where("rm.role = ?", role).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gamedb.CountMembers: %w", err)
	}
	return count, nil
}

// ListBlanks returns a story's blanks ordered by position.
func (r *Impl) ListBlanks(ctx context.Context, db bun.IDB, storyID uuid.UUID) ([]Blank, error) {
	db = r.resolveDB(db)
	var blanks []Blank
	err := db.NewSelect().
		Model(&blanks).
		Where("b.story_id = ?", storyID).
		Order("b.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListBlanks: %w", err)
	}
	return blanks, nil
}

// ListPromptsByTags returns every prompt carrying one of tags.
func (r *Impl) ListPromptsByTags(ctx context.Context, db bun.IDB, tags []string) ([]Prompt, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var prompts []Prompt
	err := db.NewSelect().
		Model(&prompts).
		Where("p.tag IN (?)", bun.In(tags)).
		Order("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListPromptsByTags: %w", err)
	}
	return prompts, nil
}
