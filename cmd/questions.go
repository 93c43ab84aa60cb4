package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/edugen/internal/questiongen"
	"github.com/abhisek/edugen/internal/store"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect generated questions",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		documentID, _ := cmd.Flags().GetInt64("document")
		qtype, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		repo := st.QuestionRepo()
		var questions []store.Question
		switch {
		case documentID > 0:
			questions, err = repo.ListByDocument(ctx, documentID)
		case qtype != "":
			t, ok := questiongen.ParseType(qtype)
			if !ok {
				return fmt.Errorf("unknown question type %q", qtype)
			}
			questions, err = repo.ListByType(ctx, string(t))
		default:
			questions, err = repo.List(ctx, store.QueryOpts{Limit: limit})
		}
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		if asJSON {
			return printJSON(questions)
		}
		if len(questions) == 0 {
			fmt.Println("No questions found.")
			return nil
		}

		fmt.Println(headingStyle.Render(fmt.Sprintf("%-5s  %-5s  %-18s  %-7s  %s", "ID", "Doc", "Type", "Answers", "Text")))
		fmt.Println(rule(90))
		for _, q := range questions {
			fmt.Printf("%-5d  %-5d  %-18s  %-7d  %s\n",
				q.ID, q.DocumentID, q.Type, len(q.Answers), truncate(q.Text, 48))
		}
		return nil
	},
}

var questionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a question with its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := st.QuestionRepo().Get(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("question %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get question: %w", err)
		}

		if asJSON {
			return printJSON(q)
		}
		printQuestions([]store.Question{*q})
		return nil
	},
}

var questionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a question and its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		err = st.QuestionRepo().Delete(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("question %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		fmt.Println(correctStyle.Render("Deleted question " + strconv.FormatInt(id, 10)))
		return nil
	},
}

// printQuestions renders questions with their answers, marking correct
// ones.
func printQuestions(questions []store.Question) {
	for i, q := range questions {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(headingStyle.Render(fmt.Sprintf("#%d", q.ID)), dimStyle.Render(q.Type))
		fmt.Println(q.Text)
		for _, a := range q.Answers {
			if a.IsCorrect {
				fmt.Println(correctStyle.Render("  ✓ " + a.Text))
				continue
			}
			fmt.Println("  · " + a.Text)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	questionsListCmd.Flags().Int64("document", 0, "Only questions of this document")
	questionsListCmd.Flags().String("type", "", "Only questions of this type")
	questionsListCmd.Flags().IntP("limit", "n", 50, "Number of questions to show")
	questionsListCmd.Flags().Bool("json", false, "Print as JSON")

	questionsShowCmd.Flags().Bool("json", false, "Print as JSON")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsShowCmd)
	questionsCmd.AddCommand(questionsDeleteCmd)
}
