package function

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/util"
)

// Metadata keys set on prompt Results.
const (
	MetaModel            = "model"
	MetaPromptTokens     = "prompt_tokens"
	MetaCompletionTokens = "completion_tokens"
	MetaRenderedPrompt   = "rendered_prompt"
)

// Render substitutes {{name}} placeholders (whitespace and a leading $ are
// allowed) with the string form of the matching variable. Missing variables
// render as the empty string.
func Render(template string, vars *core.Variables) string {
	return util.RenderTemplate(template, func(name string) (string, bool) {
		if vars == nil {
			return "", false
		}
		v, ok := vars.Get(name)
		if !ok {
			return "", false
		}
		return core.Stringify(v), true
	})
}

func (f *Function) invokePrompt(ctx context.Context, vars *core.Variables, host Host) *core.Result {
	var svc core.ChatService
	if host != nil {
		svc = host.ChatService()
	}
	if svc == nil {
		return core.NewFailureResult(core.CodeConfiguration,
			fmt.Sprintf("prompt function %s cannot run: %v", f.QualifiedName(), core.ErrNoChatService))
	}

	prompt := Render(f.template, vars)

	if cs, ok := svc.(core.CompletionService); ok {
		completion, err := cs.Complete(ctx, prompt, vars)
		if err != nil {
			return core.NewErrorResult(core.CodeExecution, err)
		}
		res := core.NewSuccessResult(completion.Text).WithUsage(float64(completion.Usage.TotalTokens))
		res.Metadata[MetaRenderedPrompt] = prompt
		res.Metadata[MetaPromptTokens] = completion.Usage.PromptTokens
		res.Metadata[MetaCompletionTokens] = completion.Usage.CompletionTokens
		if completion.Model != "" {
			res.Metadata[MetaModel] = completion.Model
		}
		return res
	}

	text, err := svc.GenerateText(ctx, prompt, vars)
	if err != nil {
		return core.NewErrorResult(core.CodeExecution, err)
	}

	res := core.NewSuccessResult(text)
	res.Metadata[MetaRenderedPrompt] = prompt
	return res
}
