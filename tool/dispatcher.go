// Package tool executes the counsellor's action vocabulary against the record
// store. Every dispatch consults the policy guard first and converts any
// failure (guard rejection, store error, malformed arguments) into a short
// human-readable outcome string inside an ActionRecord; the orchestration
// loop feeds that back to the model as a normal tool result.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/logging"
	"github.com/unipath-ai/unipath/store"
)

// Store is the mutation and lookup surface the dispatcher needs.
type Store interface {
	GetUniversity(ctx context.Context, id string) (*core.University, error)
	SearchUniversities(ctx context.Context, filter store.SearchFilter) ([]core.University, error)
	UpsertShortlistEntry(ctx context.Context, entry *core.ShortlistEntry) error
	SetShortlistLocked(ctx context.Context, userID, universityID string, locked bool) error
	CreateTask(ctx context.Context, task *core.Task) error
}

// Guard gates every state-changing action.
type Guard interface {
	Shortlist(ctx context.Context, userID, universityID string) error
	Lock(ctx context.Context, userID, universityID string) error
	CreateTask(ctx context.Context, userID, universityID string) error
}

// Options configure the Dispatcher.
type Options struct {
	Logger logging.Logger
}

// Dispatcher maps named actions to guarded store mutations.
type Dispatcher struct {
	store  Store
	guard  Guard
	logger logging.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(s Store, g Guard, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{store: s, guard: g, logger: opts.Logger}
}

// Dispatch executes one tool invocation on behalf of userID and returns the
// audit record. It never returns an error: failures become the record's
// outcome text so the model can read and react to them.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, call core.FunctionCall) core.ActionRecord {
	start := time.Now()
	record := core.ActionRecord{
		Name:      call.Name,
		Arguments: json.RawMessage(call.Arguments),
	}

	args, err := ParseArgs(call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		record.Outcome = "Error: " + err.Error()
		d.logger.Warn("tool dispatch rejected", "action", call.Name, "error", err)
		return record
	}

	var outcome string
	switch a := args.(type) {
	case ShortlistArgs:
		outcome = d.shortlist(ctx, userID, a)
	case LockArgs:
		outcome = d.lock(ctx, userID, a)
	case CreateTaskArgs:
		outcome = d.createTask(ctx, userID, a)
	case SearchArgs:
		outcome = d.search(ctx, a)
	}
	record.Outcome = outcome

	d.logger.Debug("tool dispatched",
		"action", call.Name,
		"duration", time.Since(start),
		"outcome", outcome)
	return record
}

// failure renders an error as an outcome string. Guard rejections keep their
// stable reason so the model sees exactly why the action was refused.
func failure(err error) string {
	if ge, ok := guard.IsRejection(err); ok {
		return fmt.Sprintf("Action not allowed (%s): %s", ge.Reason, ge.Message)
	}
	return "Error: " + err.Error()
}

func (d *Dispatcher) shortlist(ctx context.Context, userID string, args ShortlistArgs) string {
	if err := d.guard.Shortlist(ctx, userID, args.UniversityID); err != nil {
		return failure(err)
	}
	entry := &core.ShortlistEntry{
		UserID:       userID,
		UniversityID: args.UniversityID,
		Category:     args.Category,
		Reasoning:    args.Reasoning,
	}
	if err := d.store.UpsertShortlistEntry(ctx, entry); err != nil {
		return failure(err)
	}
	return "Added to shortlist as " + args.Category
}

func (d *Dispatcher) lock(ctx context.Context, userID string, args LockArgs) string {
	if err := d.guard.Lock(ctx, userID, args.UniversityID); err != nil {
		return failure(err)
	}
	if err := d.store.SetShortlistLocked(ctx, userID, args.UniversityID, true); err != nil {
		return failure(err)
	}

	uniName := "University"
	if uni, err := d.store.GetUniversity(ctx, args.UniversityID); err == nil {
		uniName = uni.Name
	}

	// Locking commits the user to applying; seed the standard workload.
	bundle := standardTasks(userID, args.UniversityID, uniName)
	for i := range bundle {
		if err := d.store.CreateTask(ctx, &bundle[i]); err != nil {
			return failure(err)
		}
	}
	return fmt.Sprintf("University locked for application. Created %d application tasks for %s.", len(bundle), uniName)
}

func (d *Dispatcher) createTask(ctx context.Context, userID string, args CreateTaskArgs) string {
	if err := d.guard.CreateTask(ctx, userID, args.UniversityID); err != nil {
		return failure(err)
	}
	category := args.Category
	if category == "" {
		category = "Other"
	}
	task := &core.Task{
		UserID:       userID,
		UniversityID: args.UniversityID,
		Title:        args.Title,
		Description:  args.Description,
		Category:     category,
	}
	if err := d.store.CreateTask(ctx, task); err != nil {
		return failure(err)
	}
	return "Created task: " + args.Title
}

// universitySummary is the search hit shape returned to the model.
type universitySummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Country        string  `json:"country"`
	Ranking        int     `json:"ranking"`
	TuitionMax     int     `json:"tuition_max"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// search distinguishes three outcomes: matches found, nothing matched, and
// the query itself failing. The model behaves differently for the latter two,
// so an empty result is reported explicitly rather than as an empty list.
func (d *Dispatcher) search(ctx context.Context, args SearchArgs) string {
	results, err := d.store.SearchUniversities(ctx, store.SearchFilter{
		Name:       args.Name,
		Country:    args.Country,
		MaxTuition: args.MaxTuition,
		Limit:      5,
	})
	if err != nil {
		return "Error: university search failed: " + err.Error()
	}
	if len(results) == 0 {
		return "No universities found matching criteria. The university may not be in our database yet."
	}

	summaries := make([]universitySummary, len(results))
	for i, u := range results {
		summaries[i] = universitySummary{
			ID:             u.ID,
			Name:           u.Name,
			Country:        u.Country,
			Ranking:        u.Ranking,
			TuitionMax:     u.TuitionMax,
			AcceptanceRate: u.AcceptanceRate,
		}
	}
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "Error: university search failed: " + err.Error()
	}
	return string(data)
}

// standardTasks is the fixed bundle created when a university is locked.
func standardTasks(userID, universityID, uniName string) []core.Task {
	return []core.Task{
		{
			UserID:       userID,
			UniversityID: universityID,
			Title:        "Complete application for " + uniName,
			Description:  fmt.Sprintf("Fill out and submit the online application form for %s. Check their official admissions portal for deadlines.", uniName),
			Category:     "Applications",
		},
		{
			UserID:       userID,
			UniversityID: universityID,
			Title:        "Gather documents for " + uniName,
			Description:  "Collect all required documents: transcripts, test scores, passport copy, financial documents, etc.",
			Category:     "Documents",
		},
		{
			UserID:       userID,
			UniversityID: universityID,
			Title:        "Write SOP for " + uniName,
			Description:  fmt.Sprintf("Draft and finalize your Statement of Purpose tailored to %s's program requirements.", uniName),
			Category:     "Documents",
		},
		{
			UserID:       userID,
			UniversityID: universityID,
			Title:        "Request recommendation letters for " + uniName,
			Description:  fmt.Sprintf("Contact your recommenders and provide them with the submission details for %s.", uniName),
			Category:     "Documents",
		},
	}
}
