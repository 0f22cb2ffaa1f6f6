package tool

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unipath-ai/unipath/internal/util"
)

// Action names recognized by the dispatcher. The vocabulary is closed; any
// other name is an explicit error, never a silent no-op.
const (
	ActionShortlist  = "shortlist_university"
	ActionLock       = "lock_university"
	ActionCreateTask = "create_task"
	ActionSearch     = "search_universities"
)

// ErrUnknownAction is returned for action names outside the vocabulary.
var ErrUnknownAction = errors.New("tool: unknown action")

// Args is the closed set of per-action argument structures. Arguments are
// validated structurally before any guard evaluation.
type Args interface {
	isArgs()
}

// ShortlistArgs adds a university to the user's shortlist.
type ShortlistArgs struct {
	UniversityID string `json:"university_id" description:"UUID of the university"`
	Category     string `json:"category" enum:"dream,target,safe" description:"Fit category for this university"`
	Reasoning    string `json:"reasoning" description:"Why this category fits"`
}

func (ShortlistArgs) isArgs() {}

// LockArgs locks a shortlisted university for application.
type LockArgs struct {
	UniversityID string `json:"university_id" description:"UUID of the university"`
}

func (LockArgs) isArgs() {}

// CreateTaskArgs creates one to-do task, optionally tied to a university.
type CreateTaskArgs struct {
	Title        string `json:"title" description:"Short task title"`
	Description  string `json:"description,omitempty" description:"Optional details"`
	Category     string `json:"category,omitempty" enum:"Exams,Documents,Applications,Other" description:"Task category"`
	UniversityID string `json:"university_id,omitempty" description:"Optional: link to a specific university"`
}

func (CreateTaskArgs) isArgs() {}

// SearchArgs filters the university catalog. All fields are optional. Program
// is accepted so the model can express intent, but the catalog carries no
// per-program data to filter on.
type SearchArgs struct {
	Name       string `json:"name,omitempty" description:"University name to search for (partial match)"`
	Country    string `json:"country,omitempty" description:"Country filter"`
	Program    string `json:"program,omitempty" description:"Program or field of study of interest"`
	MaxTuition int    `json:"max_tuition,omitempty" description:"Upper bound on yearly tuition"`
}

func (SearchArgs) isArgs() {}

// ParseArgs validates the raw payload against the action's schema and decodes
// it into the matching variant. Unknown action names fail with
// ErrUnknownAction.
func ParseArgs(action string, raw json.RawMessage) (Args, error) {
	var template Args
	switch action {
	case ActionShortlist:
		template = ShortlistArgs{}
	case ActionLock:
		template = LockArgs{}
	case ActionCreateTask:
		template = CreateTaskArgs{}
	case ActionSearch:
		template = SearchArgs{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	payload := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", action, err)
		}
	}
	if err := util.ValidateParameters(payload, util.CreateSchema(template)); err != nil {
		return nil, fmt.Errorf("invalid %s arguments: %w", action, err)
	}

	switch action {
	case ActionShortlist:
		var args ShortlistArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", action, err)
		}
		return args, nil
	case ActionLock:
		var args LockArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", action, err)
		}
		return args, nil
	case ActionCreateTask:
		var args CreateTaskArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", action, err)
		}
		return args, nil
	default:
		var args SearchArgs
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode %s arguments: %w", action, err)
			}
		}
		return args, nil
	}
}
