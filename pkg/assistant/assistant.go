// Package assistant provides the public API for embedding the chat
// client. This is the stable API for external consumers.
package assistant

import (
	"github.com/gd03champ/swiggy-ai-agent/internal/conversation"
)

// Client drives conversation turns against the agent backend.
// See internal/conversation.Client for full documentation.
type Client = conversation.Client

// Option is a functional option for configuring a Client.
type Option = conversation.Option

// SendOptions carries per-turn extras such as attached media.
type SendOptions = conversation.SendOptions

// TurnTrace carries optional callbacks invoked while a turn streams.
type TurnTrace = conversation.TurnTrace

// Message is one immutable entry in a conversation.
type Message = conversation.Message

// ReasoningStep is one entry in the agent's visible reasoning trace.
type ReasoningStep = conversation.ReasoningStep

// Role identifies a message author.
type Role = conversation.Role

const (
	RoleUser      = conversation.RoleUser
	RoleAssistant = conversation.RoleAssistant
)

// DefaultUserID is the user attributed to turns when no identity is
// configured.
const DefaultUserID = conversation.DefaultUserID

// ErrTurnInFlight is returned by Send when a turn is already streaming.
var ErrTurnInFlight = conversation.ErrTurnInFlight

// NewClient creates a new Client with the given options.
// Example:
//
//	c := assistant.NewClient(
//	    assistant.WithUserID("user_42"),
//	    assistant.WithLocation(12.9716, 77.5946),
//	)
var NewClient = conversation.NewClient

// Configuration options
var (
	// Backend clients
	WithAgentClient   = conversation.WithAgentClient
	WithHistoryClient = conversation.WithHistoryClient

	// Identity
	WithUserID   = conversation.WithUserID
	WithLocation = conversation.WithLocation

	// Observability
	WithLogger       = conversation.WithLogger
	WithTrace        = conversation.WithTrace
	WithTokenCounter = conversation.WithTokenCounter
	WithTracker      = conversation.WithTracker
)
