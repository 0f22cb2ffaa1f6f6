package tool

import (
	"github.com/unipath-ai/unipath/internal/util"
	"github.com/unipath-ai/unipath/model"
)

// Definitions returns the tool vocabulary offered to the model. Schemas are
// derived from the argument structs, so the validated shapes and the
// advertised shapes can never drift apart.
func Definitions() []model.ToolDefinition {
	return []model.ToolDefinition{
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ActionShortlist,
				Description: "Add a university to the user's shortlist with a category",
				Parameters:  util.CreateSchema(ShortlistArgs{}),
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ActionLock,
				Description: "Lock a shortlisted university for application",
				Parameters:  util.CreateSchema(LockArgs{}),
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ActionCreateTask,
				Description: "Create a to-do task for the user",
				Parameters:  util.CreateSchema(CreateTaskArgs{}),
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ActionSearch,
				Description: "Search for universities matching criteria. Use this to find university UUIDs before shortlisting or locking.",
				Parameters:  util.CreateSchema(SearchArgs{}),
			},
		},
	}
}
