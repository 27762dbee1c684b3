package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quiz-studio/internal/domain"
	"quiz-studio/internal/media"
)

func newQuestionCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Edit the question list",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List questions",
			Args:  cobra.NoArgs,
			RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for i, q := range e.service(cmd.Context()).Questions() {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", i, q.Kind(), preview(q.Base().Question.Text))
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "show INDEX",
			Short: "Print one question as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				qs := e.service(cmd.Context()).Questions()
				if i >= len(qs) {
					return domain.ErrQuestionNotFound
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(qs[i])
			}),
		},
		newQuestionAddCmd(configPath),
		&cobra.Command{
			Use:   "dup INDEX",
			Short: "Duplicate a question after itself",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				idx, _, err := e.service(cmd.Context()).DuplicateQuestion(cmd.Context(), i)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "duplicated %d as %d\n", i, idx)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rm INDEX",
			Short: "Delete a question",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				v, err := e.service(cmd.Context()).DeleteQuestion(cmd.Context(), i)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d questions left\n", v.Total)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "move FROM TO",
			Short: "Move a question",
			Args:  cobra.ExactArgs(2),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				from, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				to, err := parseIndex(args[1])
				if err != nil {
					return err
				}
				_, err = e.service(cmd.Context()).MoveQuestion(cmd.Context(), from, to)
				return err
			}),
		},
		&cobra.Command{
			Use:   "set INDEX PATH VALUE",
			Short: `Set a field, e.g. "question.text", "options.2.image" or "correct"`,
			Long: "VALUE is parsed as JSON when it is valid JSON and taken as a plain string otherwise.\n" +
				"Values starting with @ name an image or audio file to embed.",
			Args: cobra.ExactArgs(3),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				value, err := parseValue(args[2])
				if err != nil {
					return err
				}
				_, err = e.service(cmd.Context()).SetField(cmd.Context(), i, args[1], value)
				return err
			}),
		},
		&cobra.Command{
			Use:   "type INDEX TYPE",
			Short: "Change a question's type, keeping the fields the new type allows",
			Args:  cobra.ExactArgs(2),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				_, err = e.service(cmd.Context()).ChangeType(cmd.Context(), i, domain.ParseQuestionType(args[1]))
				return err
			}),
		},
		&cobra.Command{
			Use:   "check INDEX",
			Short: "Validate a question and drop its empty rows",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(configPath, func(cmd *cobra.Command, args []string, e *env) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				service := e.service(cmd.Context())
				qs := service.Questions()
				if i >= len(qs) {
					return domain.ErrQuestionNotFound
				}
				if _, err := service.CommitQuestion(cmd.Context(), i, qs[i]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}),
		},
	)
	return cmd
}

func newQuestionAddCmd(configPath *string) *cobra.Command {
	var (
		kind string
		at   int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert a blank question",
		Args:  cobra.NoArgs,
		RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
			idx, _, err := e.service(cmd.Context()).AddQuestion(cmd.Context(), at, domain.ParseQuestionType(kind))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added question %d\n", idx)
			return nil
		}),
	}
	cmd.Flags().StringVar(&kind, "type", string(domain.TypeMultipleChoice), "question type")
	cmd.Flags().IntVar(&at, "at", -1, "insert position, negative to append")
	return cmd
}

func newSettingsCmd(configPath *string) *cobra.Command {
	var (
		seconds  int
		numerals string
		layout   string
		clean    bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change the timer, numerals and option layout",
		Args:  cobra.NoArgs,
		RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
			ctx := cmd.Context()
			service := e.service(ctx)
			if cmd.Flags().Changed("time") {
				if _, err := service.SetQuestionTime(ctx, seconds); err != nil {
					return err
				}
			}
			if numerals != "" {
				if _, err := service.SetNumeralType(ctx, domain.NumeralSystem(numerals)); err != nil {
					return err
				}
			}
			if layout != "" {
				if _, err := service.SetOptionsLayout(ctx, domain.OptionsLayout(layout)); err != nil {
					return err
				}
			}
			if clean {
				n, _, err := service.CleanEasternNumerals(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "converted digits in %d questions\n", n)
			}
			v := service.View()
			fmt.Fprintf(cmd.OutOrStdout(), "time=%ds numerals=%s layout=%s\n", v.QuestionTime, v.NumeralType, v.Layout)
			return nil
		}),
	}
	cmd.Flags().IntVar(&seconds, "time", 0, "seconds per question (5-180)")
	cmd.Flags().StringVar(&numerals, "numerals", "", "arabic or eastern")
	cmd.Flags().StringVar(&layout, "layout", "", "2x2 or 4x1")
	cmd.Flags().BoolVar(&clean, "clean-numerals", false, "rewrite Eastern Arabic digits in all questions as 0-9")
	return cmd
}

// clipboard is where --logo-from-clipboard reads from. A terminal has no
// image clipboard, so it reports ErrClipboardUnsupported.
var clipboard media.Clipboard = media.NoClipboard{}

func newConfigCmd(configPath *string) *cobra.Command {
	var (
		title, instructions, logo, logoAlt, footer string
		clearLogo, logoClipboard                   bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Change the quiz title, instructions, logo and footer",
		Args:  cobra.NoArgs,
		RunE: withEnv(configPath, func(cmd *cobra.Command, _ []string, e *env) error {
			ctx := cmd.Context()
			service := e.service(ctx)
			cfg := service.Config()
			flags := cmd.Flags()
			if flags.Changed("title") {
				cfg.Title = title
			}
			if flags.Changed("instructions") {
				cfg.Instructions = instructions
			}
			if flags.Changed("logo-alt") {
				cfg.LogoAlt = logoAlt
			}
			if flags.Changed("footer") {
				cfg.TeacherFooterHTML = footer
			}
			switch {
			case clearLogo:
				cfg.Logo = ""
			case logoClipboard:
				m, err := media.FromClipboard(ctx, clipboard)
				if err != nil {
					return fmt.Errorf("read clipboard: %w", err)
				}
				cfg.Logo = m
			case logo != "":
				m, err := media.FromFile(logo)
				if err != nil {
					return err
				}
				if !media.IsImage(m) {
					return fmt.Errorf("%s: %w", logo, media.ErrUnsupportedMedia)
				}
				cfg.Logo = m
			}
			cfg = service.UpdateConfig(ctx, cfg)
			head, sub, _ := service.Header()
			fmt.Fprintf(cmd.OutOrStdout(), "title: %s\ninstructions: %s\nlogo: %t\n", head, sub, cfg.Logo != "")
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "quiz title")
	cmd.Flags().StringVar(&instructions, "instructions", "", "instructions shown under the title")
	cmd.Flags().StringVar(&logo, "logo", "", "image file for the certificate logo")
	cmd.Flags().BoolVar(&clearLogo, "clear-logo", false, "remove the logo")
	cmd.Flags().BoolVar(&logoClipboard, "logo-from-clipboard", false, "paste the logo from the clipboard")
	cmd.Flags().StringVar(&logoAlt, "logo-alt", "", "logo alt text")
	cmd.Flags().StringVar(&footer, "footer", "", "teacher footer HTML")
	return cmd
}

func parseIndex(raw string) (int, error) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return i, nil
}

// parseValue reads a field value from the command line: @path embeds a
// media file, valid JSON is decoded, anything else is a string.
func parseValue(raw string) (any, error) {
	if path, ok := strings.CutPrefix(raw, "@"); ok && path != "" {
		m, err := media.FromFile(path)
		if err != nil {
			return nil, err
		}
		return string(m), nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, nil
	}
	return raw, nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	if s == "" {
		return "-"
	}
	return s
}
