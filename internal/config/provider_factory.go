package config

import (
	"fmt"

	"github.com/openagents/harness/internal/chatprovider"
	"github.com/openagents/harness/internal/chatprovider/fmbridge"
)

// BuildProvider resolves the named provider entry into a concrete
// chatprovider.Provider. Callers identify providers by the key they're
// registered under in Config.Providers (e.g. "local", "claude").
func (c *Config) BuildProvider(name string) (chatprovider.Provider, error) {
	pc, ok := c.Providers[name]
	if !ok {
		return nil, fmt.Errorf("config: no provider named %q", name)
	}
	if pc.Disabled {
		return nil, fmt.Errorf("config: provider %q is disabled", name)
	}

	switch pc.Kind {
	case ProviderKindFMBridge:
		return chatprovider.NewBridgeClient(fmbridge.Config{BaseURL: pc.BaseURL}, chatprovider.DefaultRetryConfig), nil
	case ProviderKindOpenAIShape:
		return chatprovider.NewOpenAIShapeClient(chatprovider.DefaultRetryConfig, apiKeyEnvFor(name)), nil
	case ProviderKindAnthropic:
		return chatprovider.NewAnthropicClient(pc.APIKey.String(), pc.BaseURL), nil
	default:
		return nil, fmt.Errorf("config: provider %q has unknown kind %q", name, pc.Kind)
	}
}

// BuildProviderForRole resolves the provider bound to an agent role, and
// returns the model name the caller should pass on each request (the
// AgentConfig override if set, else the provider's own default).
func (c *Config) BuildProviderForRole(role AgentRole) (chatprovider.Provider, string, error) {
	agent, ok := c.Agents[role]
	if !ok {
		return nil, "", fmt.Errorf("config: no agent configured for role %q", role)
	}
	provider, err := c.BuildProvider(agent.Provider)
	if err != nil {
		return nil, "", err
	}
	model := agent.Model
	if model == "" {
		model = c.Providers[agent.Provider].Model
	}
	return provider, model, nil
}

// apiKeyEnvFor guesses the environment variable an OpenAI-shape provider's
// key should fall back to from its config key, e.g. "openai" ->
// "OPENAI_API_KEY". Providers that need a different variable should set
// api_key explicitly in config instead of relying on the fallback.
func apiKeyEnvFor(name string) string {
	upper := make([]byte, 0, len(name)+8)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = append(upper, c)
	}
	return string(upper) + "_API_KEY"
}
