// Command xliffd is the CLI for SDLXLIFF segment editing.
// It lists and edits segments, validates proposals against inline tag
// sets, reports statistics and QA findings, and serves the REST API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lingtools/xliffd/core/qa"
	"github.com/lingtools/xliffd/core/sdlxliff"
	"github.com/lingtools/xliffd/internal/api"
	"github.com/lingtools/xliffd/internal/history"
	"github.com/lingtools/xliffd/internal/languages"
	"github.com/lingtools/xliffd/internal/logging"
	"github.com/lingtools/xliffd/internal/validation"
)

const version = "0.3.0"

// CLI defines the command-line interface for xliffd.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"json,text" help:"Log format (json, text)"`

	Segments SegmentsGroup `cmd:"" help:"Segment operations (list, get, update, validate)"`
	Status   StatusGroup   `cmd:"" help:"Confirmation level operations"`
	Save     SaveCmd       `cmd:"" help:"Re-serialize a document, in place or to a new path"`
	Stats    StatsCmd      `cmd:"" help:"Per-status segment counts for a document"`
	QA       QACmd         `cmd:"" help:"Run quality checks on a document"`
	History  HistoryCmd    `cmd:"" help:"Query the edit journal"`
	Serve    ServeCmd      `cmd:"" help:"Start REST API server"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// SegmentsGroup contains segment read and edit operations.
type SegmentsGroup struct {
	List     SegmentsListCmd `cmd:"" help:"List segments with pagination"`
	Get      SegmentGetCmd   `cmd:"" help:"Show a single segment"`
	Update   UpdateCmd       `cmd:"" help:"Edit a segment's target text and save"`
	Validate ValidateCmd     `cmd:"" help:"Check a proposal against a segment's tag set"`
}

// StatusGroup contains confirmation level operations.
type StatusGroup struct {
	Set StatusSetCmd `cmd:"" help:"Set a segment's confirmation level and save"`
}

func openDocument(path string) (*sdlxliff.Document, error) {
	if err := validation.ValidateDocumentPath(path); err != nil {
		return nil, fmt.Errorf("invalid document path: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		if err := validation.CheckDocumentSize(info.Size()); err != nil {
			return nil, err
		}
	}
	return sdlxliff.Open(path)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// SegmentsListCmd lists segments with pagination.
type SegmentsListCmd struct {
	Path   string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	Offset int    `help:"First segment index" default:"0"`
	Limit  int    `help:"Page size (max 50)" default:"50"`
	Tags   bool   `help:"Include placeholder-tagged text"`
	JSON   bool   `help:"Output as JSON"`
}

func (c *SegmentsListCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	page := doc.List(c.Offset, c.Limit, c.Tags)
	if c.JSON {
		return printJSON(page)
	}

	fmt.Printf("%s (%s -> %s): %d segments, showing %d from offset %d\n",
		c.Path, doc.SourceLanguage(), doc.TargetLanguage(),
		page.Total, page.Count, page.Offset)
	for _, seg := range page.Segments {
		locked := ""
		if seg.Locked {
			locked = " [locked]"
		}
		fmt.Printf("  %s (%s)%s\n", seg.SegmentID, seg.Status, locked)
		fmt.Printf("    source: %s\n", seg.Source)
		fmt.Printf("    target: %s\n", seg.Target)
	}
	if page.HasMore {
		fmt.Printf("  ... more segments, continue with --offset %d\n", page.Offset+page.Count)
	}
	return nil
}

// SegmentGetCmd shows a single segment.
type SegmentGetCmd struct {
	Path string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	ID   string `arg:"" help:"Segment ID"`
}

func (c *SegmentGetCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	view, err := doc.Get(c.ID)
	if err != nil {
		return err
	}
	return printJSON(view)
}

// UpdateCmd edits a segment's target text and saves the document.
type UpdateCmd struct {
	Path      string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	ID        string `arg:"" help:"Segment ID"`
	Text      string `arg:"" help:"New target text (placeholder form for tagged segments)"`
	StripTags bool   `name:"strip-tags" help:"Accept plain text for a tagged segment, discarding its formatting"`
	Out       string `help:"Write to this path instead of saving in place" type:"path"`
	Backup    bool   `help:"Write an xz-compressed backup before overwriting in place"`
	DryRun    bool   `name:"dry-run" help:"Validate and show the result without saving"`
	Journal   string `help:"Record the edit in this SQLite journal" type:"path"`
}

func (c *UpdateCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	var oldTarget string
	if before, err := doc.Get(c.ID); err == nil {
		oldTarget = before.Target
	}

	view, result, err := doc.ProposeEdit(c.ID, c.Text, sdlxliff.EditOptions{StripTags: c.StripTags})
	if err != nil {
		if len(result.Errors) > 0 {
			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "error: %s\n", msg)
			}
			if len(result.MissingTagIDs) > 0 {
				fmt.Fprintf(os.Stderr, "missing tags: %s\n", strings.Join(result.MissingTagIDs, ", "))
			}
		}
		return err
	}
	for _, msg := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	if c.DryRun {
		fmt.Println("Dry run, not saved.")
		return printJSON(view)
	}

	written, err := doc.Save(c.Out, sdlxliff.SaveOptions{Backup: c.Backup})
	if err != nil {
		return err
	}

	if c.Journal != "" {
		journal, err := history.Open(c.Journal)
		if err != nil {
			return fmt.Errorf("failed to open edit journal: %w", err)
		}
		defer journal.Close()
		if _, err := journal.Record(context.Background(), history.Entry{
			DocumentPath: doc.Path(),
			SegmentID:    c.ID,
			OldTarget:    oldTarget,
			NewTarget:    view.Target,
			Status:       view.Status,
			Warnings:     len(result.Warnings),
		}); err != nil {
			return fmt.Errorf("failed to record edit: %w", err)
		}
	}

	saved := c.Out
	if saved == "" {
		saved = c.Path
	}
	fmt.Printf("Updated segment %s (%s)\n", c.ID, view.Status)
	fmt.Printf("Saved: %s (%d bytes)\n", saved, written)
	return nil
}

// ValidateCmd checks a proposal without changing anything.
type ValidateCmd struct {
	Path string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	ID   string `arg:"" help:"Segment ID"`
	Text string `arg:"" help:"Proposed target text"`
}

func (c *ValidateCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	result, err := doc.Validate(c.ID, c.Text)
	if err != nil {
		return err
	}
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

// StatusSetCmd sets a segment's confirmation level and saves the document.
type StatusSetCmd struct {
	Path   string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	ID     string `arg:"" help:"Segment ID"`
	Status string `arg:"" help:"Confirmation level (Draft, Translated, RejectedTranslation, ApprovedTranslation, RejectedSignOff, ApprovedSignOff)"`
	Out    string `help:"Write to this path instead of saving in place" type:"path"`
	Backup bool   `help:"Write an xz-compressed backup before overwriting in place"`
}

func (c *StatusSetCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	status, err := sdlxliff.ParseStatus(c.Status)
	if err != nil {
		return err
	}
	view, err := doc.SetStatus(c.ID, status)
	if err != nil {
		return err
	}

	written, err := doc.Save(c.Out, sdlxliff.SaveOptions{Backup: c.Backup})
	if err != nil {
		return err
	}

	saved := c.Out
	if saved == "" {
		saved = c.Path
	}
	fmt.Printf("Segment %s: %s\n", c.ID, view.Status)
	fmt.Printf("Saved: %s (%d bytes)\n", saved, written)
	return nil
}

// SaveCmd re-serializes a document. With --out it writes a copy;
// without, it rewrites the file in place. Useful for verifying that a
// document round-trips and for producing a normalized copy.
type SaveCmd struct {
	Path   string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	Out    string `help:"Write to this path instead of saving in place" type:"path"`
	Backup bool   `help:"Write an xz-compressed backup before overwriting in place"`
}

func (c *SaveCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	written, err := doc.Save(c.Out, sdlxliff.SaveOptions{Backup: c.Backup})
	if err != nil {
		return err
	}

	saved := c.Out
	if saved == "" {
		saved = c.Path
	}
	fmt.Printf("Saved: %s (%d bytes)\n", saved, written)
	return nil
}

// StatsCmd prints per-status segment counts.
type StatsCmd struct {
	Path string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	JSON bool   `help:"Output as JSON"`
}

func (c *StatsCmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	stats := doc.Stats()
	if c.JSON {
		return printJSON(stats)
	}

	fmt.Printf("Document: %s\n", c.Path)
	fmt.Printf("  Languages: %s (%s) -> %s (%s)\n",
		stats.SourceLanguage, languages.Name(stats.SourceLanguage),
		stats.TargetLanguage, languages.Name(stats.TargetLanguage))
	fmt.Printf("  Segments: %d\n", stats.TotalSegments)
	for _, status := range []sdlxliff.Status{
		sdlxliff.StatusDraft,
		sdlxliff.StatusTranslated,
		sdlxliff.StatusRejectedTranslation,
		sdlxliff.StatusApprovedTranslation,
		sdlxliff.StatusRejectedSignOff,
		sdlxliff.StatusApprovedSignOff,
	} {
		if n := stats.StatusCounts[string(status)]; n > 0 {
			fmt.Printf("    %-20s %d\n", status, n)
		}
	}
	for status, n := range stats.StatusCounts {
		if !sdlxliff.Status(status).Known() {
			fmt.Printf("    %-20s %d\n", status, n)
		}
	}
	if stats.LockedCount > 0 {
		fmt.Printf("  Locked: %d\n", stats.LockedCount)
	}
	return nil
}

// QACmd runs quality checks over the whole document.
type QACmd struct {
	Path   string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	Checks string `help:"Comma-separated check names (default: all)"`
	JSON   bool   `help:"Output as JSON"`
}

func (c *QACmd) Run() error {
	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	var checks []string
	if c.Checks != "" {
		checks = strings.Split(c.Checks, ",")
	}

	segments := make([]sdlxliff.SegmentView, 0, doc.Len())
	for offset := 0; ; {
		page := doc.List(offset, sdlxliff.MaxPageSize, false)
		segments = append(segments, page.Segments...)
		if !page.HasMore {
			break
		}
		offset += page.Count
	}

	report := qa.Run(segments, qa.Options{
		Checks:         checks,
		SourceLanguage: doc.SourceLanguage(),
		TargetLanguage: doc.TargetLanguage(),
	})
	if c.JSON {
		return printJSON(report)
	}

	fmt.Printf("QA: %s -> %s (%s), %d segments checked\n",
		report.SourceLanguage, report.TargetLanguage,
		report.TargetLanguageName, report.SegmentsChecked)
	if len(report.Issues) == 0 {
		fmt.Println("  No issues found.")
		return nil
	}
	for _, issue := range report.Issues {
		fmt.Printf("  [%s] segment %s: %s\n", issue.Check, issue.SegmentID, issue.Message)
	}
	fmt.Printf("%d issues in %d segments\n", len(report.Issues), report.SegmentsWithIssues)
	return nil
}

// HistoryCmd queries the edit journal.
type HistoryCmd struct {
	Path    string `arg:"" help:"Path to SDLXLIFF file" type:"existingfile"`
	Journal string `required:"" help:"SQLite journal path" type:"existingfile"`
	Segment string `help:"Only entries for this segment ID"`
	Limit   int    `help:"Maximum entries" default:"20"`
}

func (c *HistoryCmd) Run() error {
	journal, err := history.Open(c.Journal)
	if err != nil {
		return fmt.Errorf("failed to open edit journal: %w", err)
	}
	defer journal.Close()

	doc, err := openDocument(c.Path)
	if err != nil {
		return err
	}

	var entries []history.Entry
	if c.Segment != "" {
		entries, err = journal.BySegment(context.Background(), doc.Path(), c.Segment)
	} else {
		entries, err = journal.ByDocument(context.Background(), doc.Path(), c.Limit)
	}
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return printJSON(entries)
}

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Port           int      `help:"HTTP server port" default:"8080"`
	Documents      string   `help:"Directory containing SDLXLIFF documents" default:"./documents" type:"path"`
	Journal        string   `help:"SQLite edit journal path (empty disables history)" type:"path"`
	APIKey         string   `name:"api-key" help:"Require this API key via X-API-Key header" env:"XLIFFD_API_KEY"`
	RateLimit      int      `name:"rate-limit" help:"Requests per minute per IP (0 disables)" default:"0"`
	RateLimitBurst int      `name:"rate-limit-burst" help:"Burst size for rate limiting" default:"10"`
	TLSCert        string   `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey         string   `name:"tls-key" help:"TLS private key file" type:"path"`
	Origins        []string `help:"Allowed CORS origins (empty allows all)"`
}

func (c *ServeCmd) Run() error {
	cfg := api.Config{
		Port:              c.Port,
		DocumentsDir:      c.Documents,
		HistoryPath:       c.Journal,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateLimitBurst,
		AllowedOrigins:    c.Origins,
		Auth: api.AuthConfig{
			Enabled: c.APIKey != "",
			APIKey:  c.APIKey,
		},
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}
	return api.Start(cfg)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("xliffd version %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelWarn
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "info":
		level = logging.LevelInfo
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("xliffd"),
		kong.Description("SDLXLIFF segment editing with tag-safe validation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
