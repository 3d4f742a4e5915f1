package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/internal/services"
	"github.com/fastygo/boardwatch/pkg/logger"
	kanboardRepo "github.com/fastygo/boardwatch/repository/kanboard"
	calendarUC "github.com/fastygo/boardwatch/usecase/calendar"
	sensorUC "github.com/fastygo/boardwatch/usecase/sensor"
)

type snapshotOutput struct {
	FetchedAt     time.Time                `json:"fetched_at"`
	Sensors       []sensorUC.View          `json:"sensors"`
	Breakdown     []sensorUC.ProjectCounts `json:"breakdown"`
	Calendar      []calendarUC.Event       `json:"calendar,omitempty"`
	Notifications []domain.Notification    `json:"notifications"`
}

// collector keeps the notifications of a single cycle instead of dispatching them.
type collector struct {
	mu     sync.Mutex
	events []domain.Notification
}

func (c *collector) Emit(batch []domain.Notification) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, batch...)
	return len(batch)
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run one refresh cycle and print sensors as JSON",
		Long: `Fetch users, projects and tasks once, then print the sensor states,
the per-project breakdown and the notifications the cycle would fire.
Exits with status 1 when the cycle fails.`,
		RunE: runSnapshot,
	}
	cmd.Flags().Bool("calendar", false, "Include calendar events")
	cmd.Flags().Int("days", 7, "Calendar window in days from now")
	cmd.Flags().Bool("pretty", false, "Indent the JSON output")
	return cmd
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, zapLogger, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	events := &collector{}
	board := kanboardRepo.NewBoardRepository(newBoardClient(cfg, zapLogger))
	coordinator := services.NewCoordinator(board, events, logger.Component(zapLogger, "coordinator"), services.CoordinatorConfig{
		Interval:      cfg.Refresh.Interval,
		DueSoonDays:   cfg.Refresh.DueSoonDays,
		IncludeClosed: cfg.Kanboard.IncludeClosed,
	})

	ctx := cmd.Context()
	if _, err := coordinator.Refresh(ctx); err != nil {
		return err
	}

	sensors := sensorUC.New(coordinator, cfg.Refresh.DueSoonDays, zapLogger)
	views, err := sensors.Views(ctx)
	if err != nil {
		return err
	}
	breakdown, err := sensors.Breakdown(ctx)
	if err != nil {
		return err
	}

	snap := coordinator.Snapshot()
	out := snapshotOutput{
		FetchedAt:     snap.FetchedAt,
		Sensors:       views,
		Breakdown:     breakdown,
		Notifications: append([]domain.Notification{}, events.events...),
	}
	if withCalendar, _ := cmd.Flags().GetBool("calendar"); withCalendar {
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		now := time.Now()
		out.Calendar = calendarUC.Events(snap, now, now.Add(time.Duration(days)*24*time.Hour))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
