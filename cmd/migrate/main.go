package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"fest-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed]"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedEvents(ctx, conn, os.Getenv("DANCE_EVENT_SLUG")); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	for _, query := range database.DropStatements {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	for _, query := range database.SchemaStatements {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

type seedEvent struct {
	EventID  string
	Title    string
	Category string
	TeamSize string
	Prize    string
	Rules    []string
	Fees     int
	Min, Max int
}

var catalog = []seedEvent{
	{
		Title:    "Robo Wars",
		Category: "Robotics",
		TeamSize: "3-5 Members",
		Prize:    "₹20,000",
		Rules:    []string{"Bot must fit within 45cm x 45cm.", "Max weight 6kg.", "No explosives or flammable liquids."},
		Fees:     500,
		Min:      3,
		Max:      5,
	},
	{
		EventID:  "line-following",
		Title:    "Line Following Bot",
		Category: "Robotics",
		TeamSize: "3-5 Members",
		Prize:    "₹15,000",
		Rules:    []string{"Autonomous robots only.", "Onboard batteries only."},
		Fees:     300,
		Min:      3,
		Max:      5,
	},
	{
		Title:    "Project Expo",
		Category: "Innovation",
		TeamSize: "1-4 Members",
		Prize:    "₹10,000",
		Rules:    []string{"Working prototype required.", "Live Q&A with the judges."},
		Fees:     250,
		Min:      1,
		Max:      4,
	},
	{
		Title:    "Defence Talk",
		Category: "Seminar",
		TeamSize: "Open to All",
		Prize:    "Certificate",
		Rules:    []string{"Q&A in the designated time only."},
		Min:      1,
		Max:      100,
	},
	{
		EventID:  "e-sports",
		Title:    "E-Sports",
		Category: "Gaming",
		TeamSize: "4 Members (Squad)",
		Prize:    "₹10,000",
		Rules:    []string{"Squad of four.", "Mobile devices only."},
		Fees:     200,
		Min:      4,
		Max:      4,
	},
	{
		Title:    "Dance Performance",
		Category: "Cultural",
		TeamSize: "Solo / Group",
		Prize:    "Trophy",
		Rules:    []string{"Performance time 4-5 minutes.", "Submit a video link when registering."},
		Min:      1,
		Max:      20,
	},
}

func seedEvents(ctx context.Context, conn *pgx.Conn, danceSlug string) error {
	if danceSlug == "" {
		danceSlug = "dance-performance"
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range catalog {
		eventID := e.EventID
		if eventID == "" {
			eventID = slug.Make(e.Title)
		}
		if strings.HasPrefix(e.Title, "Dance") {
			eventID = danceSlug
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO events (id, event_id, title, category, team_size, prize, rules, fees, min_team_size, max_team_size, is_live)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true)
			ON CONFLICT (event_id) DO UPDATE SET
				title = EXCLUDED.title,
				category = EXCLUDED.category,
				team_size = EXCLUDED.team_size,
				prize = EXCLUDED.prize,
				rules = EXCLUDED.rules,
				fees = EXCLUDED.fees,
				min_team_size = EXCLUDED.min_team_size,
				max_team_size = EXCLUDED.max_team_size,
				updated_at = NOW()`,
			uuid.New().String(), eventID, e.Title, e.Category, e.TeamSize, e.Prize, e.Rules, e.Fees, e.Min, e.Max)
		if err != nil {
			return fmt.Errorf("failed to seed event %s: %w", eventID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO channels (id, event_id, name, is_active, post_count)
			VALUES ($1, $2, $3, true, 0)
			ON CONFLICT (event_id) DO NOTHING`,
			uuid.New().String(), eventID, e.Title)
		if err != nil {
			return fmt.Errorf("failed to seed channel %s: %w", eventID, err)
		}

		fmt.Printf("  Seeded event: %s\n", eventID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	fmt.Printf("  Seeded %d events\n", len(catalog))
	return nil
}

func getTableName(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
