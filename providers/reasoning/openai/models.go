package openai

// chatRequest is the subset of the chat completions request body this
// package sends.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

// chatResponse mirrors the fields consumed by this package: the first
// choice's message content and the finish reason.
type chatResponse struct {
	Id      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// decision is the structured output the model is instructed to produce:
// the thought plus exactly one of a tool invocation or a final answer.
type decision struct {
	Thought     string         `json:"thought"`
	Confidence  float64        `json:"confidence"`
	ActionType  string         `json:"action_type"`
	ToolName    string         `json:"tool_name,omitempty"`
	ToolParams  map[string]any `json:"tool_params,omitempty"`
	FinalAnswer map[string]any `json:"final_answer,omitempty"`
}

const (
	actionUseTool = "use_tool"
	actionFinish  = "finish"
)
