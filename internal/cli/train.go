package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/trogers1052/portfolio-advisor/internal/scoring"
)

func runTrain(log zerolog.Logger, dataPath, outPath, version string) error {
	f, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("failed to open training data: %w", err)
	}
	defer f.Close()

	set, err := scoring.ReadTrainingCSV(f)
	if err != nil {
		return err
	}

	artifact, err := scoring.TrainLinear(set, version)
	if err != nil {
		return err
	}

	data, err := artifact.Encode()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	log.Info().
		Int("rows", len(set.Scores)).
		Str("version", artifact.Version).
		Str("out", outPath).
		Float64("intercept", artifact.Intercept).
		Msg("Score model trained")
	return nil
}
