package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/edugen/internal/logging"
	"github.com/abhisek/edugen/internal/questiongen"
	"github.com/abhisek/edugen/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate <document-id>",
	Short: "Generate questions for a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		documentID, err := parseID(args[0])
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		types, _ := cmd.Flags().GetStringSlice("types")
		language, _ := cmd.Flags().GetString("language")
		noAnswers, _ := cmd.Flags().GetBool("no-answers")
		asJSON, _ := cmd.Flags().GetBool("json")

		includeAnswers := !noAnswers
		req := questiongen.GenerationRequest{
			QuestionCount:   count,
			DifficultyLevel: difficulty,
			QuestionTypes:   types,
			IncludeAnswers:  &includeAnswers,
			Language:        language,
		}
		if err := req.Validate(); err != nil {
			return err
		}

		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()

		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if _, err := st.DocumentRepo().Get(ctx, documentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("document %d not found", documentID)
			}
			return err
		}

		gen, closeGen, err := newGenerator(ctx, cfg, st, logger, nil)
		if err != nil {
			return err
		}
		defer closeGen()

		res, err := gen.Run(ctx, documentID, req)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(res.Questions)
		}
		printQuestions(res.Questions)
		printReport(res.Report)
		return nil
	},
}

func printReport(r questiongen.Report) {
	fmt.Println(rule(60))
	summary := fmt.Sprintf("%s: %d stored, %d skipped of %d parsed in %s",
		r.Result, r.Persisted(), r.Skipped(), r.Drafts, r.Duration.Round(time.Millisecond))
	switch r.Result {
	case questiongen.RunCompleted:
		fmt.Println(correctStyle.Render(summary))
	case questiongen.RunPartial, questiongen.RunDuplicate:
		fmt.Println(dimStyle.Render(summary))
	default:
		fmt.Println(errorStyle.Render(summary))
	}
	for _, o := range r.Outcomes {
		if o.Status == questiongen.OutcomePersisted && o.AnswersSkipped == 0 {
			continue
		}
		if o.Status == questiongen.OutcomePersisted {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  item %d: %d answers not stored", o.Index, o.AnswersSkipped)))
			continue
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("  item %d: %s (%s)", o.Index, o.Status, o.Reason)))
	}
}

func init() {
	generateCmd.Flags().IntP("count", "c", 5, "Number of questions to request")
	generateCmd.Flags().StringP("difficulty", "d", questiongen.DefaultDifficulty, "Difficulty level (easy, medium, hard)")
	generateCmd.Flags().StringSliceP("types", "t", []string{string(questiongen.MultipleChoice)}, "Question types (MULTIPLE_CHOICE, TRUE_FALSE, FILL_IN_THE_BLANK, ...)")
	generateCmd.Flags().StringP("language", "l", questiongen.DefaultLanguage, "Language of the questions")
	generateCmd.Flags().Bool("no-answers", false, "Do not ask for answer options")
	generateCmd.Flags().Bool("json", false, "Print stored questions as JSON")
}
