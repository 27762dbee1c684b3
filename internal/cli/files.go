package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quiz-studio/internal/domain"
	"quiz-studio/internal/export"
)

func newImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the question list with a .json or .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
			qs, err := readQuestionsFile(args[0])
			if err != nil {
				return err
			}
			service := e.service(cmd.Context())
			view, err := service.ImportQuestions(cmd.Context(), qs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions\n", view.Total)
			return nil
		}),
	}
}

func readQuestionsFile(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return export.ReadXLSX(f)
	}
	return export.ReadQuestions(f)
}

func newExportCmd(configPath *string) *cobra.Command {
	var (
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the question list as JSON or a spreadsheet",
		RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
			if format == "" {
				format = "json"
				if strings.EqualFold(filepath.Ext(out), ".xlsx") {
					format = "xlsx"
				}
			}
			qs := e.service(cmd.Context()).Questions()
			return writeOutput(cmd, out, func(w io.Writer) error {
				switch format {
				case "json":
					return export.WriteQuestions(w, qs)
				case "xlsx":
					return export.WriteXLSX(w, qs)
				default:
					return fmt.Errorf("unknown format %q", format)
				}
			})
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", export.QuestionsFileName, `output file, "-" for stdout`)
	cmd.Flags().StringVar(&format, "format", "", "json or xlsx (default from the file extension)")
	return cmd
}

func newExportHTMLCmd(configPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-html",
		Short: "Write the self-contained student document",
		RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
			service := e.service(cmd.Context())
			static := e.static()
			return writeOutput(cmd, out, func(w io.Writer) error {
				return static.Render(cmd.Context(), w, service.State(), service.Config())
			})
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", export.StaticFileName, `output file, "-" for stdout`)
	return cmd
}

func newResetCmd(configPath *string) *cobra.Command {
	var questions bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored progress, or everything with --questions",
		RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
			service := e.service(cmd.Context())
			if questions {
				service.ResetQuestions(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "questions and settings cleared")
				return nil
			}
			service.ResetProgress(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "progress cleared")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&questions, "questions", false, "also delete every question and the quiz settings")
	return cmd
}

// writeOutput renders into path atomically, or to stdout for "-". A
// failed render leaves no partial file behind.
func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "-" {
		return render(cmd.OutOrStdout())
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".quiz-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := render(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
