package agent

import (
	"context"
	"errors"
	"strings"

	"flowplan/bizerror"
	"flowplan/common"
	"flowplan/credential"
	"flowplan/domain"
	"flowplan/domain/run"
	"flowplan/domain/tree"
	"flowplan/event"
	"flowplan/persistence"
	"flowplan/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	ParseWorkflowFunc    = ParseWorkflow
	CreateFromParsedFunc = CreateFromParsed
)

// defaultAnchorOffsetDays is the anchor used when the reply asks to start a
// run without supplying a due date.
const defaultAnchorOffsetDays = 14

type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
}

type ParseResult struct {
	Parsed ParsedWorkflow `json:"parsed"`
	Usage  Usage          `json:"usage"`
}

type CreationResult struct {
	TemplateID types.ID `json:"templateId"`
	WorkflowID types.ID `json:"workflowId,omitempty"`
}

// ParseWorkflow turns free text into a validated template candidate:
// compose, invoke, extract, normalize, price. No database state is touched
// and nothing is retried here.
func ParseWorkflow(ctx context.Context, prompt, model string, sec *session.Session) (*ParseResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("prompt is required")}
	}
	if model == "" {
		model = DefaultModel
	}

	apiKey, err := credential.GetDecryptedKeyFunc(sec.Identity.ID)
	if err != nil {
		return nil, err
	}

	response, err := InvokeChatFunc(ctx, apiKey, &ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	content := ""
	if len(response.Choices) > 0 {
		content = response.Choices[0].Message.Content
	}
	object, ok := ExtractObject(content)
	if !ok {
		return nil, &bizerror.ErrMalformedReply{Raw: content}
	}
	templateRaw, ok := object["template"].(map[string]interface{})
	if !ok {
		return nil, &bizerror.ErrMalformedReply{Raw: content}
	}
	nodesRaw, ok := templateRaw["nodes"].([]interface{})
	if !ok {
		return nil, &bizerror.ErrMalformedReply{Raw: content}
	}

	parsed := ParsedWorkflow{
		Template: ParsedTemplate{
			Title:       looseString(templateRaw["title"]),
			Description: looseString(templateRaw["description"]),
			Nodes:       NormalizeTree(nodesRaw),
		},
	}
	if workflowRaw, ok := object["workflow"].(map[string]interface{}); ok {
		parsed.Workflow = &ParsedRun{
			Title:   looseString(workflowRaw["title"]),
			DueDate: looseString(workflowRaw["due_date"]),
			Start:   looseBool(workflowRaw["start"]),
		}
	}

	usage := Usage{
		Model:        model,
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}
	usage.CostUSD = Cost(model, usage.InputTokens, usage.OutputTokens)

	return &ParseResult{Parsed: parsed, Usage: usage}, nil
}

// CreateFromParsed materializes a previously parsed candidate: one
// transaction creating the template tree and, when the candidate requests
// it, instantiating a run from it.
func CreateFromParsed(parsed *ParsedWorkflow, sec *session.Session) (*CreationResult, error) {
	if parsed == nil {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("parsed.template is required")}
	}

	title := strings.TrimSpace(parsed.Template.Title)
	if title == "" {
		title = "New Template"
	}

	result := CreationResult{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	txErr := db.Transaction(func(tx *gorm.DB) error {
		t := domain.Template{
			ID:          common.NextId(idWorker),
			UserID:      sec.Identity.ID,
			Title:       title,
			Description: parsed.Template.Description,
			CreateTime:  types.CurrentTimestamp(),
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}

		var createNodes func(nodes []ParsedNode, parentID types.ID, depth int) error
		createNodes = func(nodes []ParsedNode, parentID types.ID, depth int) error {
			if len(nodes) > 0 && depth > tree.MaxDepth {
				return bizerror.ErrTooDeep
			}
			for idx, n := range nodes {
				nodeTitle := strings.TrimSpace(n.Title)
				if nodeTitle == "" {
					nodeTitle = DefaultNodeTitle
				}
				node := domain.TemplateNode{
					ID:            common.NextId(idWorker),
					TemplateID:    t.ID,
					Title:         nodeTitle,
					ParentID:      parentID,
					Order:         idx,
					DueOffsetDays: n.DueOffsetDays,
				}
				if err := tx.Create(&node).Error; err != nil {
					return err
				}
				if err := createNodes(n.Children, node.ID, depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		if err := createNodes(parsed.Template.Nodes, 0, 1); err != nil {
			return err
		}

		if _, err := event.CreateEvent("TEMPLATE", t.ID, t.Title, event.EventCategoryCreated,
			nil, &sec.Identity, tx); err != nil {
			return err
		}
		result.TemplateID = t.ID

		candidate := parsed.Workflow
		if candidate == nil || (!candidate.Start && candidate.DueDate == "") {
			return nil
		}

		anchor := domain.Today().AddDays(defaultAnchorOffsetDays)
		if candidate.DueDate != "" {
			parsedDate, err := domain.ParseDate(candidate.DueDate)
			if err != nil {
				return &bizerror.ErrBadParam{Cause: errors.New("invalid due_date, expected format " + domain.DateLayout)}
			}
			anchor = parsedDate
		}
		runTitle := candidate.Title
		if runTitle == "" {
			runTitle = title
		}

		created, err := run.CreateRunInTx(tx, &run.RunCreation{
			TemplateID: t.ID, DueDate: &anchor, Title: runTitle}, sec)
		if err != nil {
			return err
		}
		result.WorkflowID = created.ID
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return &result, nil
}
