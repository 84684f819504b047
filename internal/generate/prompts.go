package generate

import (
	"fmt"
	"strings"
)

const questionPrompt = `Task: You are an AI assistant tasked with generating only the top 10 most important questions from the following text. Do not include answers.

Instructions:

- Read the text carefully.
- Identify and extract the most important facts or concepts.
- For each, generate a concise and natural-sounding question that can be fully answered using the text.
- Focus on main ideas, not minor details or trivia.
- Do not include more than 10 questions.
- Do not generate a question if the information is unclear or not directly supported by the text.
- Questions should be fact-based, clear, and context-specific.
- Do not reference "this text" or "the paragraph" or "the chapter"; keep questions self-contained.

Text:
------------
%s
------------
Questions:`

const answerPrompt = `Answer the following question based only on the text below.

Text:
%s

Question: %s
Answer:`

const summaryPrompt = `Task: You are an AI assistant tasked with summarizing the following text in a clear, concise, and formal academic tone.

Instructions:

- Identify the most important facts, arguments, and conclusions.
- Write a well-structured summary covering the key ideas.
- Keep it factual and objective.
- Length: 1-7 paragraphs depending on input size.

Text:
------------
%s
------------
Summary:`

const combinePrompt = `You are an academic assistant. Combine the following section summaries into one coherent summary for the entire document. Avoid repetition and ensure a logical flow.

Summaries:
%s

Final Summary:`

func buildQuestionPrompt(chunkText string) string {
	return fmt.Sprintf(questionPrompt, chunkText)
}

func buildAnswerPrompt(chunkText, question string) string {
	return fmt.Sprintf(answerPrompt, chunkText, question)
}

func buildSummaryPrompt(chunkText string) string {
	return fmt.Sprintf(summaryPrompt, chunkText)
}

func buildCombinePrompt(summaries []string) string {
	return fmt.Sprintf(combinePrompt, strings.Join(summaries, "\n\n"))
}
