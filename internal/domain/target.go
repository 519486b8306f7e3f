package domain

// Target identifies a single model endpoint under monitoring.
// A Target is immutable for the lifetime of any session that references it.
type Target struct {
	// ID uniquely identifies the monitored endpoint, e.g. "openai/gpt-4o".
	ID string

	// Provider is the name of the company serving the endpoint.
	Provider string

	// Endpoint is the URL probes are issued against.
	Endpoint string

	// Model is the model identifier sent with completion-style probe requests.
	Model string
}
