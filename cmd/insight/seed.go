package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/creatorhub/insight/adapters/idgen"
	"github.com/creatorhub/insight/adapters/sqlite"
	"github.com/creatorhub/insight/config"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/domain/user"
	"github.com/creatorhub/insight/ports"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a deterministic demo dataset",
	Long: `Generate a demo dataset of users, events and campaign sends.

The generator is deterministic for a given --seed, so two runs with the
same flags produce the same database. With --random-ids, record IDs are
UUIDs instead and runs are no longer reproducible. Useful for demos and local
development against realistic cohort shapes: activity decays with account
age, a share of users goes dormant, and win-back campaigns reactivate
some of them.

Examples:
  insight seed
  insight seed --users 2000 --days 365
  insight seed --config /etc/insight/config.yaml --seed 7`,
	RunE: runSeed,
}

var (
	seedUsers     int
	seedDays      int
	seedValue     int64
	seedRandomIDs bool
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedUsers, "users", 500, "number of users to generate")
	seedCmd.Flags().IntVar(&seedDays, "days", 180, "length of the event history in days")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed")
	seedCmd.Flags().BoolVar(&seedRandomIDs, "random-ids", false, "use UUIDs for record IDs instead of deterministic sequential IDs")
}

var seedChannels = []string{"email", "push", "organic", "paid"}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("seed requires the sqlite driver, got %q", cfg.Database.Driver)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(seedValue))
	var ids ports.IDGenerator = idgen.NewSequential("seed-")
	if seedRandomIDs {
		ids = idgen.UUID{}
	}
	now := time.Now().UTC().Truncate(time.Hour)
	start := now.AddDate(0, 0, -seedDays)

	fmt.Printf("Seeding %d users over %d days into %s\n", seedUsers, seedDays, cfg.Database.DSN)

	userStore := sqlite.NewUserStore(db)
	eventStore := sqlite.NewEventStore(db)
	campaignStore := sqlite.NewCampaignStore(db)

	bar := progressbar.Default(int64(seedUsers))
	totalEvents := 0
	for i := 0; i < seedUsers; i++ {
		u, events := generateUser(rng, ids, start, now, cfg.Analytics.DormancyThreshold)
		if err := userStore.Put(ctx, []user.Record{u}); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
		if err := eventStore.Append(ctx, events); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		totalEvents += len(events)
		bar.Add(1)
	}

	sends := generateSends(ids, start, now)
	if err := campaignStore.RecordSends(ctx, sends); err != nil {
		return fmt.Errorf("store campaign sends: %w", err)
	}

	fmt.Printf("Done: %d users, %d events, %d campaign sends\n", seedUsers, totalEvents, len(sends))
	return nil
}

// generateUser produces one user and their full event timeline. Activity
// probability decays with account age; a slice of the population drops off
// entirely and becomes win-back material.
func generateUser(rng *rand.Rand, ids ports.IDGenerator, start, now time.Time, dormancy time.Duration) (user.Record, []event.Record) {
	horizon := int(now.Sub(start).Hours() / 24)
	if horizon < 1 {
		horizon = 1
	}
	signup := start.AddDate(0, 0, rng.Intn(horizon)).Add(time.Duration(rng.Intn(24)) * time.Hour)

	u := user.Record{
		ID:       ids.New(),
		SignupAt: signup,
		Role:     pickRole(rng),
		Plan:     user.PlanFree,
	}
	channel := seedChannels[rng.Intn(len(seedChannels))]

	// Per-user engagement propensity; churners stop cold partway through.
	propensity := 0.15 + rng.Float64()*0.6
	churned := rng.Float64() < 0.35
	churnDay := 7 + rng.Intn(60)

	var events []event.Record
	emit := func(t event.Type, at time.Time, value float64) {
		events = append(events, event.Record{
			ID:         ids.New(),
			UserID:     u.ID,
			Type:       t,
			OccurredAt: at,
			Value:      value,
			Channel:    channel,
		})
	}

	// Signup-day session for everyone.
	emit(event.TypeSession, signup.Add(5*time.Minute), 0)

	days := int(now.Sub(signup).Hours() / 24)
	for d := 1; d <= days; d++ {
		if churned && d > churnDay {
			break
		}
		// Decay: day-1 activity at full propensity, tailing off toward a floor.
		p := propensity * (0.3 + 0.7/float64(1+d/14))
		if rng.Float64() >= p {
			continue
		}
		at := signup.AddDate(0, 0, d).Add(time.Duration(rng.Intn(12)) * time.Hour)
		emit(event.TypeSession, at, 0)

		switch {
		case rng.Float64() < 0.4:
			emit(event.TypeClick, at.Add(2*time.Minute), float64(rng.Intn(500))/100)
		case rng.Float64() < 0.3:
			emit(event.TypeFavorite, at.Add(3*time.Minute), 0)
		case rng.Float64() < 0.2:
			emit(event.TypeFollow, at.Add(4*time.Minute), 0)
		}

		if u.Role == user.RoleCreator {
			if u.FirstProductAt == nil && rng.Float64() < 0.1 {
				first := at.Add(10 * time.Minute)
				u.FirstProductAt = &first
				emit(event.TypeProductCreated, first, 0)
			} else if rng.Float64() < 0.08 {
				emit(event.TypePostCreated, at.Add(8*time.Minute), 0)
			}
		}

		if u.UpgradeAt == nil && u.Plan == user.PlanFree && d > 3 && rng.Float64() < 0.01 {
			up := at.Add(15 * time.Minute)
			u.UpgradeAt = &up
			u.Plan = user.PlanPro
			if u.Role == user.RoleBrand {
				u.Plan = user.PlanBrand
			}
			emit(event.TypeSubscriptionStarted, up, 999)
		}
	}

	// Some churned subscribers also cancel.
	if churned && u.UpgradeAt != nil && rng.Float64() < 0.5 {
		emit(event.TypeSubscriptionCanceled, signup.AddDate(0, 0, churnDay+1), 999)
	}

	// A slice of dormant users comes back after a win-back window.
	if churned && rng.Float64() < 0.25 {
		back := signup.AddDate(0, 0, churnDay).Add(dormancy + 48*time.Hour)
		if back.Before(now) {
			emit(event.TypeSession, back, 0)
		}
	}

	last := events[len(events)-1].OccurredAt
	u.ActiveUntil = last.Add(dormancy)

	return u, events
}

func pickRole(rng *rand.Rand) user.Role {
	switch v := rng.Float64(); {
	case v < 0.6:
		return user.RoleFollower
	case v < 0.9:
		return user.RoleCreator
	default:
		return user.RoleBrand
	}
}

// generateSends emits biweekly win-back sends on the reachable channels.
func generateSends(ids ports.IDGenerator, start, now time.Time) []resurrection.CampaignSend {
	var sends []resurrection.CampaignSend
	for _, ch := range []string{"email", "push"} {
		for at := start.AddDate(0, 0, 14); at.Before(now); at = at.AddDate(0, 0, 14) {
			sends = append(sends, resurrection.CampaignSend{
				ID:      ids.New(),
				Channel: ch,
				SentAt:  at,
			})
		}
	}
	return sends
}
