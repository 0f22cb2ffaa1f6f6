// Package core defines the shared domain contracts for Unipath: the role-based
// content model exchanged with model providers (Content, Part, FunctionCall),
// the persisted records (Profile, University, ShortlistEntry, Task,
// Conversation) and the ephemeral ActionRecord audit triple.
//
// Centralizing these contracts keeps the higher level packages (guard, tool,
// prompt, counsellor, server) free of dependencies on each other: they all
// speak in core types and receive their collaborators by injection.
package core
