package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/edugen/internal/store"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage source documents",
}

var documentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new document",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		language, _ := cmd.Flags().GetString("language")
		file, _ := cmd.Flags().GetString("file")
		text, _ := cmd.Flags().GetString("text")

		if strings.TrimSpace(title) == "" {
			return errors.New("--title is required")
		}
		body, err := readDocumentBody(cmd, file, text)
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

		doc, err := st.DocumentRepo().Create(cmd.Context(), title, language, body)
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		fmt.Println(correctStyle.Render(fmt.Sprintf("Stored document %d", doc.ID)), dimStyle.Render(fmt.Sprintf("(%d characters)", len([]rune(body)))))
		return nil
	},
}

// readDocumentBody takes the document text from --text, or from --file
// where "-" means stdin.
func readDocumentBody(cmd *cobra.Command, file, text string) (string, error) {
	switch {
	case file != "" && text != "":
		return "", errors.New("use either --file or --text, not both")
	case text != "":
		return text, nil
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(b), nil
	default:
		return "", errors.New("one of --file or --text is required")
	}
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.DocumentRepo().List(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents found.")
			return nil
		}

		fmt.Println(headingStyle.Render(fmt.Sprintf("%-5s  %-19s  %-10s  %s", "ID", "Created", "Language", "Title")))
		fmt.Println(rule(80))
		for _, d := range docs {
			fmt.Printf("%-5d  %-19s  %-10s  %s\n",
				d.ID,
				d.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(d.Language, 10),
				truncate(d.Title, 40),
			)
		}
		return nil
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a document and its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		maxChars, _ := cmd.Flags().GetInt("max-chars")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.DocumentRepo().Get(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("document %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}

		fmt.Println(field("ID:", strconv.FormatInt(doc.ID, 10)))
		fmt.Println(field("Title:", doc.Title))
		fmt.Println(field("Language:", doc.Language))
		fmt.Println(field("Created:", doc.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Println(rule(60))
		body := doc.Content
		if maxChars > 0 && len([]rune(body)) > maxChars {
			body = truncate(body, maxChars) + dimStyle.Render(" …")
		}
		fmt.Println(body)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

func init() {
	documentsAddCmd.Flags().String("title", "", "Document title")
	documentsAddCmd.Flags().String("language", "English", "Document language")
	documentsAddCmd.Flags().StringP("file", "f", "", "Read content from file (- for stdin)")
	documentsAddCmd.Flags().String("text", "", "Document content")

	documentsListCmd.Flags().IntP("limit", "n", 20, "Number of documents to show")

	documentsShowCmd.Flags().Int("max-chars", 2000, "Truncate content to this many characters (0 shows everything)")

	documentsCmd.AddCommand(documentsAddCmd)
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
}
