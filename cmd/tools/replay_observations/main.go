// replay_observations rebuilds per-activity progress state from the
// append-only observation audit log and verifies it against the live state.
// The log records every observation, rejected ones included, so the accepted
// subset replayed in order must reproduce the authoritative aggregate.
//
// Usage: replay_observations <project-uuid> [<project-uuid> ...]
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/obraflow/site-progress/internal/db"
	"github.com/obraflow/site-progress/internal/progress"
	"github.com/obraflow/site-progress/internal/types"
	"golang.org/x/sync/errgroup"
)

// tolerance for comparing replayed and live weighted percentages.
const tolerance = 1e-9

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: replay_observations <project-uuid> [<project-uuid> ...]")
		os.Exit(1)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close()

	g, gCtx := errgroup.WithContext(ctx)
	for _, arg := range os.Args[1:] {
		projectID, err := uuid.Parse(arg)
		if err != nil {
			log.Fatalf("Invalid project UUID %q: %v", arg, err)
		}
		g.Go(func() error {
			return verifyProject(gCtx, database, projectID)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Replay verification failed: %v", err)
	}
	log.Println("All projects verified: replayed state matches live state")
}

// verifyProject replays the accepted audit records into a fresh store and
// compares the resulting weighted actual against the live one.
func verifyProject(ctx context.Context, database *db.DB, projectID uuid.UUID) error {
	sched, err := database.GetSchedule(ctx, projectID)
	if err != nil {
		return err
	}
	if sched == nil {
		return fmt.Errorf("no schedule registered for project %s", projectID)
	}

	records, err := database.ListObservations(ctx, projectID, types.OutcomeAccepted)
	if err != nil {
		return err
	}

	replayed := make(map[string]types.ActivityProgressState, len(sched.Activities))
	for _, record := range records {
		prior := replayed[record.MatchedActivity]
		replayed[record.MatchedActivity] = types.ActivityProgressState{
			ProjectID:                 projectID,
			ActivityName:              record.MatchedActivity,
			LastActualProgressPercent: record.Observation.ObservedProgressPercent,
			ObservedAt:                record.Observation.ObservedAt,
			Revision:                  prior.Revision + 1,
		}
	}

	live, err := database.ListStates(ctx, projectID)
	if err != nil {
		return err
	}

	replayedActual, _ := progress.ComputeWeightedActual(sched, replayed)
	liveActual, _ := progress.ComputeWeightedActual(sched, live)

	if math.Abs(replayedActual-liveActual) > tolerance {
		return fmt.Errorf("project %s: replayed actual %.6f%% != live actual %.6f%%",
			projectID, replayedActual, liveActual)
	}

	log.Printf("Project %s: %d accepted observations replayed, actual %.2f%% confirmed",
		projectID, len(records), liveActual)
	return nil
}
