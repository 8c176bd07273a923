package protocol

import "encoding/json"

// Commands understood by the language-service backend.
const (
	CommandConfigure  = "configure"
	CommandOpen       = "open"
	CommandReferences = "references"
	CommandClose      = "close"
	CommandShutdown   = "shutdown"
)

// Request is one framed message sent to the backend. Seq values are
// allocated by the client, strictly increasing, and never reused.
type Request struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"` // always "request"
	Command   string `json:"command"`
	Arguments any    `json:"arguments,omitempty"`
}

// Response is one framed message received from the backend. Messages
// whose type is not "response" are notifications and carry no
// RequestSeq; the client ignores them.
type Response struct {
	Seq        int64           `json:"seq"`
	Type       string          `json:"type"`
	RequestSeq int64           `json:"request_seq"`
	Success    bool            `json:"success"`
	Command    string          `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// ConfigureArgs identifies this client to the backend before any file
// is opened.
type ConfigureArgs struct {
	HostInfo    string      `json:"hostInfo"`
	Preferences Preferences `json:"preferences"`
}

// Preferences tunes backend behavior for batch scanning.
type Preferences struct {
	DisableSuggestions bool `json:"disableSuggestions"`
}

// OpenArgs registers a file with the backend's project model, the way
// an interactive editor would when the file gains focus.
type OpenArgs struct {
	File           string `json:"file"`
	FileContent    string `json:"fileContent"`
	ScriptKindName string `json:"scriptKindName"`
}

// ReferencesArgs asks for every reference to the symbol at a 1-based
// (line, offset) position.
type ReferencesArgs struct {
	File               string `json:"file"`
	Line               int    `json:"line"`
	Offset             int    `json:"offset"`
	IncludeDeclaration bool   `json:"includeDeclaration"`
}

// CloseArgs releases a previously opened file.
type CloseArgs struct {
	File string `json:"file"`
}

// ReferencesBody is the body of a successful references response.
type ReferencesBody struct {
	Refs       []ReferenceItem `json:"refs"`
	SymbolName string          `json:"symbolName,omitempty"`
}

// ReferenceItem is one reported occurrence of a symbol. The declaring
// occurrence itself appears with IsDefinition set.
type ReferenceItem struct {
	File         string `json:"file"`
	Line         int    `json:"line"`
	Offset       int    `json:"offset"`
	IsDefinition bool   `json:"isDefinition"`
}
