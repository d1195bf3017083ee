// Command qbctl validates and submits question drafts from JSON files using
// the same editor workflow as the dashboard.
//
//	qbctl validate -file q.json
//	qbctl submit -file q.json -mode edit -add st-9 -remove st-2
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/editor"
	"github.com/gokatarajesh/quiz-admin/internal/logging"
	"github.com/gokatarajesh/quiz-admin/internal/question"
	"github.com/gokatarajesh/quiz-admin/internal/upstream"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	_ = godotenv.Load("configs/.env")

	logger := logging.New("qbctl", envOr("APP_ENV", "development"), envOr("LOG_LEVEL", "warn"))

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "submit":
		err = runSubmit(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "qbctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: qbctl validate|submit -file FILE [flags]")
}

type draftFlags struct {
	file   string
	mode   string
	add    string
	remove string
}

func (f *draftFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "file", "", "question JSON file (upstream shape)")
	fs.StringVar(&f.mode, "mode", string(question.ModeCreate), "create, edit or duplicate")
	fs.StringVar(&f.add, "add", "", "comma separated subtopic ids to link")
	fs.StringVar(&f.remove, "remove", "", "comma separated subtopic ids to unlink")
}

func (f *draftFlags) load(s *editor.Session) error {
	if f.file == "" {
		return errors.New("-file is required")
	}
	mode := question.Mode(f.mode)
	switch mode {
	case question.ModeCreate, question.ModeEdit, question.ModeDuplicate:
	default:
		return fmt.Errorf("unknown mode %q", f.mode)
	}

	data, err := os.ReadFile(f.file)
	if err != nil {
		return err
	}
	var q question.Question
	if err := json.Unmarshal(data, &q); err != nil {
		return fmt.Errorf("parse %s: %w", f.file, err)
	}
	if mode == question.ModeEdit && q.ID == "" {
		return errors.New("edit mode needs a question id in the file")
	}

	s.Load(q, mode)
	for _, id := range splitIDs(f.add) {
		s.Links().Add(id)
	}
	for _, id := range splitIDs(f.remove) {
		s.Links().Remove(id)
	}
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var df draftFlags
	df.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	s := editor.NewSession(nil, editor.Options{}, zerolog.Nop())
	if err := df.load(s); err != nil {
		return err
	}
	if err := s.Draft().Validate(s.Links().Pending()); err != nil {
		return err
	}
	plan := s.Links().Plan(s.Mode())
	fmt.Printf("ok: %d link, %d unlink\n", len(plan.ToLink), len(plan.ToUnlink))
	return nil
}

func runSubmit(args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	var df draftFlags
	df.register(fs)
	baseURL := fs.String("base-url", os.Getenv("UPSTREAM_BASE_URL"), "upstream base URL")
	token := fs.String("token", os.Getenv("QBCTL_TOKEN"), "bearer token")
	timeout := fs.Duration("timeout", 30*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *baseURL == "" {
		return errors.New("-base-url or UPSTREAM_BASE_URL is required")
	}
	if *token == "" {
		return errors.New("-token or QBCTL_TOKEN is required")
	}

	client := upstream.NewClient(upstream.Options{BaseURL: *baseURL}, logger).WithToken(*token)
	s := editor.NewSession(client, editor.Options{}, logger)
	if err := df.load(s); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mode := s.Mode()
	res, err := s.Submit(ctx)
	if err != nil {
		if hint := failureHint(mode, res.Question.ID, err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		return err
	}

	out := map[string]any{
		"id":      res.Question.ID,
		"applied": opStrings(res.Links.Applied),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// failureHint tells the operator how to recover from a failed submit.
func failureHint(mode question.Mode, id string, err error) string {
	var pf *question.PartialFailureError
	switch {
	case errors.As(err, &pf):
		return fmt.Sprintf("saved %s but links are incomplete; rerun in edit mode", id)
	case mode == question.ModeEdit && upstream.IsNotFound(err):
		return "the question no longer exists upstream; submit with -mode create"
	default:
		return ""
	}
}

func opStrings(ops []question.Op) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.String())
	}
	return out
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
