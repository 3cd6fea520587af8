package rag

import "strings"

// ContextPlaceholder marks where retrieved context goes in a system template.
const ContextPlaceholder = "{context}"

const DefaultSystemTemplate = "You are an assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer " +
	"the question. If you don't know the answer, say that you " +
	"don't know. Use three sentences maximum and keep the answer concise." +
	"\n\n" + ContextPlaceholder

const contextSeparator = "\n\n"

// AssemblePrompt joins the document texts in the order received.
// Nothing is dropped, de-duplicated or truncated; an empty docs slice gives an empty context.
func AssemblePrompt(systemTemplate string, docs []RetrievedDocument, question string) Prompt {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	return Prompt{
		SystemInstruction: systemTemplate,
		Context:           strings.Join(texts, contextSeparator),
		Question:          question,
	}
}

// System renders the system instruction with the context in place.
func (p Prompt) System() string {
	if strings.Contains(p.SystemInstruction, ContextPlaceholder) {
		return strings.ReplaceAll(p.SystemInstruction, ContextPlaceholder, p.Context)
	}
	if p.Context == "" {
		return p.SystemInstruction
	}
	return p.SystemInstruction + contextSeparator + p.Context
}

// Messages renders the prompt as [system, user].
func (p Prompt) Messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: p.System()},
		{Role: RoleUser, Content: p.Question},
	}
}
