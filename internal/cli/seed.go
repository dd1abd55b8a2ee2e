package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/config"
	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

// seedFile is the YAML layout of a question bank export.
type seedFile struct {
	Questions []struct {
		Type        string   `yaml:"type"`
		Level       string   `yaml:"level"`
		Question    string   `yaml:"question"`
		Kanji       string   `yaml:"kanji"`
		Options     []string `yaml:"options"`
		Correct     int      `yaml:"correct"`
		Explanation string   `yaml:"explanation"`
	} `yaml:"questions"`
}

// NewSeedCmd bulk imports a question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import questions from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logging.SetBase(config.NewLogger(cfg.Log))
			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			services, err := newServices(cfg, b)
			if err != nil {
				return err
			}
			return seedQuestions(ctx, services.Questions, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/questions.yaml", "question bank YAML")
	return cmd
}

func seedQuestions(ctx context.Context, bank *app.QuestionBank, path string) error {
	questions, err := readSeedFile(path)
	if err != nil {
		return err
	}
	n, err := bank.Import(ctx, questions, "seed")
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	logging.FromContext(ctx).WithField("count", n).WithField("file", path).Info("questions imported")
	return nil
}

func readSeedFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	questions := make([]domain.Question, len(file.Questions))
	for i, q := range file.Questions {
		questions[i] = domain.Question{
			Type:        domain.QuestionType(q.Type),
			Level:       domain.Level(q.Level),
			Text:        q.Question,
			Kanji:       q.Kanji,
			Options:     q.Options,
			Correct:     q.Correct,
			Explanation: q.Explanation,
		}
	}
	return questions, nil
}
