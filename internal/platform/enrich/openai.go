package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const systemPrompt = `You are a medical assistant that processes plain text medical reports and returns structured data.

CRITICAL: Return ONLY a valid JSON object in this exact format:

{
  "patientDetails": {
    "nhsNumber": "123-456-789",
    "name": "John Doe",
    "dateOfBirth": "15/08/1985",
    "gp": "Dr. Smith",
    "sampleId": "SAMPLE123"
  },
  "testResults": [
    {
      "testName": "Haemoglobin (Hb)",
      "value": "14.2",
      "unit": "g/dL",
      "referenceRange": "13.0 - 17.0 g/dL",
      "status": "NORMAL",
      "meaning": "Haemoglobin level is within normal range, indicating good oxygen-carrying capacity and no signs of anemia."
    }
  ],
  "doctorsLetter": "HTML content here"
}

Instructions:
- Use the provided patient details exactly as given
- For each test result, determine the proper status: NORMAL, HIGH, LOW, or CRITICAL (uppercase)
- Meaning should explain clinical significance in 1-2 lines, patient-friendly language
- For the doctorsLetter field, generate a complete HTML letter addressed to the patient
  summarising the results in a table, with an overall assessment and recommendations`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIEnricher calls a chat-completions endpoint and recovers the
// structured bundle from the model's reply.
type OpenAIEnricher struct {
	client *resty.Client
	model  string
	log    zerolog.Logger
}

func NewOpenAIEnricher(baseURL, apiKey, model string, log zerolog.Logger) *OpenAIEnricher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &OpenAIEnricher{client: client, model: model, log: log.With().Str("component", "enrich").Logger()}
}

func (e *OpenAIEnricher) Enrich(ctx context.Context, in Input) (*Bundle, error) {
	req := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(in)},
		},
		Temperature: 0.3,
	}

	var out chatResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("enrich: model call: %w", ctx.Err())
		}
		return nil, fmt.Errorf("enrich: model call: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("enrich: model call failed (%d): %s", resp.StatusCode(), out.Error.Message)
		}
		return nil, fmt.Errorf("enrich: model call failed (%d)", resp.StatusCode())
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	bundle, err := decodeBundle(out.Choices[0].Message.Content)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not decode model response")
		return nil, err
	}
	if err := ValidateBundle(bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return bundle, nil
}

func buildUserPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("Process this medical report text and enhance it with proper status and meaning for each test result. Use these patient details:\n\n")
	b.WriteString("Patient Details:\n")
	fmt.Fprintf(&b, "- NHS Number: %s\n", in.PatientDetails.NHSNumber)
	fmt.Fprintf(&b, "- Name: %s\n", in.PatientDetails.Name)
	fmt.Fprintf(&b, "- Date of Birth: %s\n", in.PatientDetails.DateOfBirth)
	fmt.Fprintf(&b, "- GP: %s\n", in.PatientDetails.GPName)
	fmt.Fprintf(&b, "- Sample ID: %s\n", in.PatientDetails.SampleID)
	b.WriteString("\nMedical Report Text:\n")
	b.WriteString(in.PlainText)
	b.WriteString("\n\nPlease analyze each test result, determine the correct status (NORMAL/HIGH/LOW/CRITICAL), and provide meaningful clinical explanations.")
	return b.String()
}

// decodeBundle recovers the JSON bundle from raw model output. Models
// wrap JSON in markdown fences, lead with prose, or emit stray control
// characters; everything outside the outermost braces is discarded.
func decodeBundle(raw string) (*Bundle, error) {
	text := strings.TrimSpace(raw)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, ErrMalformedResponse
	}
	text = stripControl(text[start : end+1])

	var b Bundle
	if err := json.Unmarshal([]byte(text), &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &b, nil
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}
