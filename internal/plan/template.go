package plan

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Iron-Ham/mindnode/internal/model"
)

// PromptData holds the values rendered into the planning prompt.
type PromptData struct {
	Objective string
	NodeTypes []model.NodeType
}

// promptTemplate asks a chat model for a plan in the shape Parse accepts.
const promptTemplate = `You are a Project Planning Assistant. Create a structured project plan for the user's request.
{{if .Objective}}
## Request

{{.Objective}}
{{end}}
Output strictly valid JSON with the following structure:

{
  "title": "Project Name",
  "description": "Short summary",
  "nodes": [
    {
      "id": "1",
      "type": "task",
      "label": "Brief Title",
      "details": "Description or HTML content (required for 'detailed' nodes)",
      "date": "YYYY-MM-DD",
      "status": "todo"
    }
  ],
  "connections": [
    { "from": "1", "to": "2", "label": "optional label" }
  ]
}

"type" is one of: {{join .NodeTypes}}.
"status" is one of: todo, in-progress, complete.

Types Guide:
- 'heading': Large text for zones/phases.
- 'section': A container-like visual grouping.
- 'detailed': A large card with rich HTML content.
- 'task': Standard actionable item.
- 'decision': Diamond shape for choices.
- 'milestone': Rounded shape for key dates.
- 'note': Yellow sticky note.

Ensure logical flow. Connect phases to their tasks. Use 'detailed' type for nodes needing long descriptions.
`

var prompt = template.Must(template.New("plan-prompt").Funcs(template.FuncMap{
	"join": func(ts []model.NodeType) string {
		parts := make([]string, len(ts))
		for i, t := range ts {
			parts[i] = string(t)
		}
		return strings.Join(parts, ", ")
	},
}).Parse(promptTemplate))

// Prompt renders the planning prompt for objective. An empty objective
// renders the generic prompt.
func Prompt(objective string) (string, error) {
	var buf bytes.Buffer
	data := PromptData{
		Objective: strings.TrimSpace(objective),
		NodeTypes: model.NodeTypes(),
	}
	if err := prompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render planning prompt: %w", err)
	}
	return buf.String(), nil
}
