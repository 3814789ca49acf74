package gamemigrations

import (
	"context"
	"fmt"

	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating game tables...")

		models := []any{
			(*gamedb.Room)(nil),
			(*gamedb.RoomMember)(nil),
			(*gamedb.Story)(nil),
			(*gamedb.Blank)(nil),
			(*gamedb.Prompt)(nil),
			(*gamedb.Game)(nil),
			(*gamedb.GamePrompt)(nil),
			(*gamedb.Answer)(nil),
			(*gamedb.Vote)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		constraints := []string{
			`ALTER TABLE room_members ADD CONSTRAINT fk_room_members_room
				FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE`,
			`ALTER TABLE blanks ADD CONSTRAINT fk_blanks_story
				FOREIGN KEY (story_id) REFERENCES stories (id) ON DELETE CASCADE`,
			`ALTER TABLE games ADD CONSTRAINT fk_games_room
				FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE`,
			`ALTER TABLE games ADD CONSTRAINT fk_games_story
				FOREIGN KEY (story_id) REFERENCES stories (id)`,
			`ALTER TABLE rooms ADD CONSTRAINT fk_rooms_current_game
				FOREIGN KEY (current_game_id) REFERENCES games (id) ON DELETE SET NULL`,
			`ALTER TABLE game_prompts ADD CONSTRAINT fk_game_prompts_game
				FOREIGN KEY (game_id) REFERENCES games (id) ON DELETE CASCADE`,
			`ALTER TABLE game_prompts ADD CONSTRAINT fk_game_prompts_prompt
				FOREIGN KEY (prompt_id) REFERENCES prompts (id)`,
			`ALTER TABLE game_prompts ADD CONSTRAINT fk_game_prompts_blank
				FOREIGN KEY (blank_id) REFERENCES blanks (id)`,
			`ALTER TABLE answers ADD CONSTRAINT fk_answers_game
				FOREIGN KEY (game_id) REFERENCES games (id) ON DELETE CASCADE`,
			`ALTER TABLE answers ADD CONSTRAINT fk_answers_game_prompt
				FOREIGN KEY (game_prompt_id) REFERENCES game_prompts (id) ON DELETE CASCADE`,
			`ALTER TABLE votes ADD CONSTRAINT fk_votes_game
				FOREIGN KEY (game_id) REFERENCES games (id) ON DELETE CASCADE`,
			`ALTER TABLE votes ADD CONSTRAINT fk_votes_answer
				FOREIGN KEY (answer_id) REFERENCES answers (id) ON DELETE CASCADE`,
		}
		for _, stmt := range constraints {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add constraint: %w", err)
			}
		}

		indexes := []string{
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_blanks_story_position ON blanks (story_id, position)",
			"CREATE INDEX IF NOT EXISTS idx_prompts_tag ON prompts (tag)",
			"CREATE INDEX IF NOT EXISTS idx_room_members_room_role ON room_members (room_id, role)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_game_prompts_game_blank ON game_prompts (game_id, blank_id)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_game_prompts_game_order ON game_prompts (game_id, round_order)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_user_game_prompt ON answers (user_id, game_prompt_id)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_one_winner ON answers (game_prompt_id) WHERE won",
			"CREATE INDEX IF NOT EXISTS idx_answers_game ON answers (game_id)",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_single_player_vote ON votes (user_id, game_prompt_id)
				WHERE vote_type = 'player' AND rank IS NULL`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_ranked_player_vote ON votes (user_id, game_prompt_id, rank)
				WHERE vote_type = 'player' AND rank IS NOT NULL`,
			"CREATE INDEX IF NOT EXISTS idx_votes_game_prompt ON votes (game_prompt_id)",
			"CREATE INDEX IF NOT EXISTS idx_votes_game ON votes (game_id)",
		}
		for _, stmt := range indexes {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}

		fmt.Println("Game tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping game tables...")

		models := []any{
			(*gamedb.Vote)(nil),
			(*gamedb.Answer)(nil),
			(*gamedb.GamePrompt)(nil),
			(*gamedb.Game)(nil),
			(*gamedb.Prompt)(nil),
			(*gamedb.Blank)(nil),
			(*gamedb.Story)(nil),
			(*gamedb.RoomMember)(nil),
			(*gamedb.Room)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		fmt.Println("Game tables dropped successfully!")
		return nil
	})
}
