package ir

// Version constants for the journal schema and engine.
const (
	// IRVersion is the journal record schema version.
	IRVersion = "1"

	// EngineVersion is the slotform engine version.
	EngineVersion = "0.1.0"

	// SupportedProtocolVersion is the dialogue-manager protocol version the
	// action executor was written against. Only major.minor are compared.
	SupportedProtocolVersion = "1.4.0"
)
