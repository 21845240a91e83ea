package service

import (
	"fmt"
	"strings"

	"aura/internal/assembler"
	"aura/internal/domain"
)

const persona = "You are AURA - Artificial Understanding of Research Articles, an Agentic AI and a smart research paper Q&A assistant."

// InsufficientContext is the sentence the model is told to use when the
// context does not answer the question.
const InsufficientContext = "The context does not provide enough information to answer this question."

const groundedTemplate = `%s

Begin your response with 'RAG Route:' and answer based **only** on the [Context] and [Previous conversation]. Do not use any external knowledge.

IMPORTANT GUIDELINES:
1. If the question is not clearly answered in the context, say: "%s"
2. If you reference mathematical equations in your answer, include them naturally in your response
3. Always end your response with a section titled "📚 **Sources Referenced:**" listing each paper (title + authors) and section (heading) you used, each only once
4. Be precise and detailed in your explanations
5. Maintain conversation flow by referencing previous context when relevant

[Available sources]
%s

[Previous conversation]
%s

[Context]
%s

[User query]
%s
`

const openTemplate = `%s

Begin your response with 'Normal Route:' and continue the conversation naturally using only the [Previous conversation] and [User query].

You are knowledgeable about research papers and AI/ML topics, but for this query, you're responding as a general conversational AI since it doesn't require specific paper retrieval.

[Previous conversation]
%s

[User query]
%s
`

func historyOrNone(history string) string {
	if strings.TrimSpace(history) == "" {
		return "None"
	}
	return history
}

func groundedPrompt(query, history, context string, sources []domain.Source) string {
	return fmt.Sprintf(groundedTemplate, persona, InsufficientContext,
		assembler.FormatSources(sources), historyOrNone(history), context, query)
}

func openPrompt(query, history string) string {
	return fmt.Sprintf(openTemplate, persona, historyOrNone(history), query)
}
