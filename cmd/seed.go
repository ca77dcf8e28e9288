package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyroomhq/studyroom-server/internal/config"
	"github.com/studyroomhq/studyroom-server/internal/log"
	"github.com/studyroomhq/studyroom-server/internal/store"
	"github.com/studyroomhq/studyroom-server/internal/store/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply the schema and load the predefined message catalog",
	RunE:  runSeed,
}

func strPtr(s string) *string { return &s }

// defaultCatalog is the chat vocabulary clients can send. Keys are stable;
// content may be edited in the database afterwards.
var defaultCatalog = []store.PredefinedMessage{
	{Key: "hello", Content: "Hello everyone!", Type: strPtr("greeting")},
	{Key: "good_luck", Content: "Good luck with your studies!", Type: strPtr("greeting")},
	{Key: "keep_going", Content: "Keep going, you can do it!", Type: strPtr("encouragement")},
	{Key: "well_done", Content: "Well done!", Type: strPtr("encouragement")},
	{Key: "almost_there", Content: "Almost there, stay focused!", Type: strPtr("encouragement")},
	{Key: "break_time", Content: "Taking a short break.", Type: strPtr("status")},
	{Key: "back_to_work", Content: "Back to work!", Type: strPtr("status")},
	{Key: "focus_mode", Content: "Entering focus mode, see you later.", Type: strPtr("status")},
	{Key: "thanks", Content: "Thanks!", Type: nil},
	{Key: "bye", Content: "Goodbye, see you next time!", Type: strPtr("greeting")},
}

func runSeed(cmd *cobra.Command, args []string) error {
	logger := log.New("info")

	cfg, _, err := config.Load(logger, configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	if err := st.SeedPredefinedMessages(context.Background(), defaultCatalog); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	logger.Info().Int("entries", len(defaultCatalog)).Str("db_path", cfg.DatabasePath).Msg("predefined message catalog seeded")
	return nil
}
