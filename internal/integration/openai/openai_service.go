package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Commands the agent may pick
const (
	CommandListOrphanages  = "ListOrphanages"
	CommandShowOrphanage   = "ShowOrphanage"
	CommandCreateOrphanage = "CreateOrphanage"
	CommandGeneralQuery    = "GeneralQuery"
)

// ErrNotConfigured is returned by NewOpenAIService when no API key is set
var ErrNotConfigured = errors.New("openai api key not set")

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName   string `json:"command_name" jsonschema_description:"One of ListOrphanages, ShowOrphanage, CreateOrphanage or GeneralQuery"`
	OrphanageName string `json:"orphanage_name" jsonschema_description:"Exact name of the orphanage from the known list, when ShowOrphanage is chosen"`
	UserMessage   string `json:"user_message" jsonschema_description:"A short message to show back to the user in their original language"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretUserQuery(ctx context.Context, userMessage string, knownOrphanages []string) (*AgentResponse, error)
}

type openAIServiceImpl struct {
	client openai.Client
	schema interface{}
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// NewOpenAIService creates the agent client for apiKey.
func NewOpenAIService(apiKey string) (OpenAIService, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &openAIServiceImpl{
		client: client,
		schema: GenerateSchema[AgentResponse](),
	}, nil
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *openAIServiceImpl) InterpretUserQuery(ctx context.Context, userMessage string, knownOrphanages []string) (*AgentResponse, error) {
	systemPrompt := fmt.Sprintf(`You are the assistant of a bot that lists orphanages on a map and lets people register new ones.

Known orphanages: %s

Behavior:
1. The user wants to see all orphanages or the map: command_name = "ListOrphanages".
2. The user asks about one orphanage from the list: command_name = "ShowOrphanage",
   orphanage_name = its exact name from the list. If none matches, leave orphanage_name empty.
3. The user wants to register a new orphanage: command_name = "CreateOrphanage".
4. Anything else: command_name = "GeneralQuery" with a short helpful reply.

Always reply in the language the user wrote in, in user_message.
Output strictly in JSON.`, strings.Join(knownOrphanages, ", "))

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, orphanage name, and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &agentResp); err != nil {
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}

	return &agentResp, nil
}
