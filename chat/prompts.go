// Copyright 2025 PedanticGeek
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chat

import (
	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
)

// systemMessageChatConversation grounds the answering model in the retrieved
// sources. The %s slot carries the follow-up instruction when follow-up
// suggestions are requested, and is left empty otherwise.
const systemMessageChatConversation = `Assistant helps the PedanticGeek employees with their questions about company documents. Be brief in your answers.
Answer ONLY with the facts listed in the list of sources below. If there isn't enough information below, say you don't know. Do not generate answers that don't use the sources below. If asking a clarifying question to the user would help, ask the question.
For tabular information return it as an html table. Do not return markdown format. If the question is not in English, answer in the language used in the question.
Each source has a name followed by colon and the actual information, always include the source name for each fact you use in the response. Use square brackets to reference the source, for example [info1.txt]. Don't combine sources, list each source separately, for example [info1.txt][info2.pdf].
%s
`

// followUpQuestionsPrompt asks the model to append follow-up suggestions in
// the << >> wrapping the stream splitter diverts out of the visible answer.
const followUpQuestionsPrompt = `Generate 3 very brief follow-up questions that the user would likely ask next.
Enclose the follow-up questions in double angle brackets. Example:
<<What are the company policies?>>
<<How many incidents were recorded in September this year?>>
<<What are our current partnerships?>>
Do no repeat questions that have already been asked.
Make sure the last question ends with ">>".`

// queryPromptTemplate turns the conversation's last question into a search
// query. The sentinel "0" means no query could be generated.
const queryPromptTemplate = `Below is a history of the conversation so far, and a new question asked by the user that needs to be answered by searching in the documentation knowledge base.
You have access to a search index with 100's of documents.
Generate a search query based on the conversation and the new question.
Do not include cited source filenames and document names e.g info.txt or doc.pdf in the search query terms.
Do not include any text inside [] or <<>> in the search query terms.
Do not include any special characters like '+'.
If the question is not in English, translate the question to English before generating the search query.
If you cannot generate a search query, return just the number 0.
`

// queryPromptFewShots demonstrate the question-to-query transformation.
var queryPromptFewShots = []core.ConversationMessage{
	{Role: core.RoleUser, Content: "What were the highest sales this year?"},
	{Role: core.RoleAssistant, Content: "Show all sales figures for this year"},
	{Role: core.RoleUser, Content: "What are the most common Health and Safety incidents?"},
	{Role: core.RoleAssistant, Content: "Show all Health and Safety incidents"},
}

// searchSourcesTool lets the rewrite model hand back the search query as a
// structured call instead of free text.
var searchSourcesTool = ai.ToolSpec{
	Name:        "search_sources",
	Description: "Retrieve sources from the document search index",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"search_query": map[string]any{
				"type":        "string",
				"description": "Query string to retrieve documents from the search index eg: 'Show company policies'",
			},
		},
		"required": []string{"search_query"},
	},
}
