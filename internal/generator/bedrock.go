package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	DefaultBedrockModel  = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	DefaultBedrockRegion = "us-east-1"

	bedrockAnthropicVersion = "bedrock-2023-05-31"
)

// bedrockInvoker is the part of the Bedrock runtime client used here.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock calls Anthropic models hosted on AWS Bedrock with the messages
// request body.
type Bedrock struct {
	client  bedrockInvoker
	modelID string
}

// NewBedrock loads AWS credentials from the default chain.
func NewBedrock(ctx context.Context, region, modelID string) (*Bedrock, error) {
	if region == "" {
		region = DefaultBedrockRegion
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newBedrockWithClient(bedrockruntime.NewFromConfig(cfg), modelID), nil
}

func newBedrockWithClient(client bedrockInvoker, modelID string) *Bedrock {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	return &Bedrock{client: client, modelID: modelID}
}

func (b *Bedrock) Name() string {
	return "bedrock"
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float32            `json:"temperature"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (b *Bedrock) Generate(ctx context.Context, req Request) (string, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", &GenerationError{Backend: b.Name(), Err: err}
	}

	// Images go before the text block.
	blocks := make([]anthropicBlock, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropicBlock{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	blocks = append(blocks, anthropicBlock{Type: "text", Text: req.Prompt})

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.TemperatureValue(),
		System:           req.System,
		Messages:         []anthropicMessage{{Role: "user", Content: blocks}},
	})
	if err != nil {
		return "", fail(b.Name(), "failed to marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fail(b.Name(), "invoke %s: %w", b.modelID, err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fail(b.Name(), "failed to decode response: %w", err)
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}
