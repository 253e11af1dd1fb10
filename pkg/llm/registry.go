package llm

import "cclaw/pkg/httpclient"

// Factory builds a provider Client from its hand-rolled HTTP client plus
// credentials/model. Each provider package registers one via
// RegisterProvider from its own init().
type Factory func(http *httpclient.Client, apiKey, model string) Client

var providerRegistry = make(map[string]Factory)

// RegisterProvider adds a Factory to the global registry under name
// ("anthropic", "openai").
func RegisterProvider(name string, factory Factory) {
	providerRegistry[name] = factory
}

// GetProviderFactory looks up a registered Factory by provider name.
func GetProviderFactory(name string) (Factory, bool) {
	f, ok := providerRegistry[name]
	return f, ok
}
