package models

import "strings"

// Provider tags which service hosts a model.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderLocal     Provider = "local"
	ProviderUnknown   Provider = "unknown"
)

// Descriptor captures the static capabilities of one model.
type Descriptor struct {
	Name string

	// ContextWindow is the model's approximate input context window size
	ContextWindow int

	// Think indicates whether the model emits reasoning/thinking tokens
	Think bool

	// Tool indicates whether the model supports native tool calling
	Tool bool

	// Local indicates the model is served by a local inference host
	Local bool

	Provider Provider
}

// DefaultDescriptor is returned for identifiers not in the table. Tool
// calling is assumed since every backend we ship supports it.
var DefaultDescriptor = Descriptor{
	ContextWindow: 4096,
	Think:         false,
	Tool:          true,
	Local:         false,
	Provider:      ProviderUnknown,
}

// Known models. The list must be kept in sync with provider catalogs by
// human. Local entries are the models typically loaded into a desktop host
// such as LM Studio.
var descriptors = []Descriptor{
	// Local inference hosts
	{Name: "qwen2.5-coder", ContextWindow: 32768, Think: false, Tool: true, Local: true, Provider: ProviderLocal},
	{Name: "qwen3-coder", ContextWindow: 262144, Think: false, Tool: true, Local: true, Provider: ProviderLocal},
	{Name: "qwen3", ContextWindow: 40960, Think: true, Tool: true, Local: true, Provider: ProviderLocal},
	{Name: "gpt-oss", ContextWindow: 128000, Think: true, Tool: true, Local: true, Provider: ProviderLocal},
	{Name: "llama-3.1", ContextWindow: 131072, Think: false, Tool: true, Local: true, Provider: ProviderLocal},
	{Name: "devstral", ContextWindow: 131072, Think: false, Tool: true, Local: true, Provider: ProviderLocal},

	// Gemini
	{Name: "gemini-2.5-pro", ContextWindow: 1048576, Think: true, Tool: true, Provider: ProviderGoogle},
	{Name: "gemini-2.5-flash-lite", ContextWindow: 1048576, Think: false, Tool: true, Provider: ProviderGoogle},
	{Name: "gemini-2.5-flash", ContextWindow: 1048576, Think: true, Tool: true, Provider: ProviderGoogle},

	// OpenAI
	{Name: "gpt-5-mini", ContextWindow: 400000, Think: true, Tool: true, Provider: ProviderOpenAI},
	{Name: "gpt-5-nano", ContextWindow: 400000, Think: true, Tool: true, Provider: ProviderOpenAI},
	{Name: "gpt-5", ContextWindow: 400000, Think: true, Tool: true, Provider: ProviderOpenAI},
	{Name: "gpt-4o-mini", ContextWindow: 128000, Think: false, Tool: true, Provider: ProviderOpenAI},
	{Name: "gpt-4o", ContextWindow: 128000, Think: false, Tool: true, Provider: ProviderOpenAI},

	// Anthropic
	{Name: "claude-opus-4", ContextWindow: 200000, Think: true, Tool: true, Provider: ProviderAnthropic},
	{Name: "claude-sonnet-4", ContextWindow: 200000, Think: true, Tool: true, Provider: ProviderAnthropic},
	{Name: "claude-haiku-4", ContextWindow: 200000, Think: false, Tool: true, Provider: ProviderAnthropic},
}

// Capabilities returns the descriptor for the given model identifier. The
// lookup is total: unknown identifiers yield DefaultDescriptor with the
// queried name filled in.
func Capabilities(model string) Descriptor {
	modelLower := strings.ToLower(model)
	for _, d := range descriptors {
		if strings.Contains(modelLower, d.Name) {
			return d
		}
	}
	def := DefaultDescriptor
	def.Name = model
	return def
}

// IsLocal reports whether the model identifier resolves to a locally hosted
// model. Unknown identifiers are never local.
func IsLocal(model string) bool {
	return Capabilities(model).Local
}
