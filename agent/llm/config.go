package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	openaix "github.com/parlaplate/parlaplate/pkg/openaix"
)

// Role selects per-call-shape model overrides.
type Role string

const (
	RoleClassifier Role = "classifier"
	RoleResponder  Role = "responder"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	ChatModel          string        `envconfig:"CHAT_MODEL" split_words:"true" required:"true"`
	EmbedModel         string        `envconfig:"EMBED_MODEL" split_words:"true" default:"text-embedding-3-small"`
	EmbedDimensions    int           `envconfig:"EMBED_DIMENSIONS" split_words:"true" default:"1536"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	ClassifierModel       string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	ResponderModel        string  `envconfig:"RESPONDER_MODEL" split_words:"true"`
	ClassifierTemperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	ResponderTemperature  float32 `envconfig:"RESPONDER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.ChatModel) == "" {
		return fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if c.EmbedDimensions <= 0 {
		return fmt.Errorf("%w: embed dimensions must be > 0", contractx.ErrValidation)
	}
	return nil
}

// OpenAIFor resolves the endpoint config for one role, applying per-role
// model and temperature overrides. The classifier runs cooler by default.
func (c Config) OpenAIFor(role Role) openaix.Config {
	modelName := strings.TrimSpace(c.ChatModel)
	temp := c.Temperature

	switch role {
	case RoleClassifier:
		if v := strings.TrimSpace(c.ClassifierModel); v != "" {
			modelName = v
		}
		if c.ClassifierTemperature >= 0 {
			temp = c.ClassifierTemperature
		} else {
			temp = 0.1
		}
	case RoleResponder:
		if v := strings.TrimSpace(c.ResponderModel); v != "" {
			modelName = v
		}
		if c.ResponderTemperature >= 0 {
			temp = c.ResponderTemperature
		}
	}

	maxToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
