// Copyright 2025 Poiesic Systems
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


package query

import (
	"fmt"
	"strings"

	"github.com/poiesic/docbot/core"
)

// noContextMarker tells the model that retrieval found nothing, so it
// answers from the system prompt alone instead of inventing sources.
const noContextMarker = "No relevant documents were found for this question."

// buildPrompt assembles the user prompt sent to the generation service:
// retrieved chunks tagged with their source, the trailing conversation
// history, and the current question.
func buildPrompt(chunks []core.ScoredChunk, history []core.Turn, question string, historyLimit int) string {
	var sb strings.Builder

	if len(chunks) == 0 {
		sb.WriteString(noContextMarker)
		sb.WriteString("\n")
	} else {
		sb.WriteString("Use the following documents to answer the question.\n\n")
		for i, c := range chunks {
			fmt.Fprintf(&sb, "[Document %d - %s]\n%s\n\n", i+1, c.Record.Filename, c.Record.Text)
		}
	}

	// Keep only the trailing turns, oldest dropped first.
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			switch turn.Role {
			case core.RoleAssistant:
				sb.WriteString("Assistant: ")
			default:
				sb.WriteString("User: ")
			}
			sb.WriteString(turn.Content)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nUser question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer based on the documents above. If the documents do not contain the answer, say so.")
	return sb.String()
}
