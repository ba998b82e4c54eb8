package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/export"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/status"
	"github.com/dusk-indust/learnwatch/internal/storage"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mastery per pattern for the current learner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), a, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func runStatus(ctx context.Context, a *app, asJSON bool) error {
	studentID, err := config.ResolveStudentID(a.cfg)
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStore(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	profile, err := proficiency.LoadOrNew(ctx, store, studentID, func() proficiency.StudentProfile {
		return proficiency.NewProfile(studentID, time.Now())
	}).Get()
	if err != nil {
		return err
	}
	sessions, err := store.Sessions(ctx, studentID)
	if err != nil {
		return err
	}

	report := status.Build(proficiency.SimpleCalculator{}, profile, sessions)
	if asJSON {
		return export.WriteJSON(a.out, report)
	}
	_, err = fmt.Fprint(a.out, status.Format(report))
	return err
}
