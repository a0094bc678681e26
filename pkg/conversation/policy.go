// Package conversation implements the dialogue policy and the engine that
// turns a subject's history plus a new utterance into a model reply.
package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sanahealth/sana/pkg/llm"
)

const (
	physicianInstruction = "You are a doctor and a patient asks for your opinion."
	brevityInstruction   = "Answer in less than 150 characters. You can ask questions."
	diagnosisInstruction = "This is your final response. Give a diagnosis."
)

// SystemPreamble returns the ordered system instructions that must precede
// the conversation turns sent to the model.
//
// turnsBefore is the number of turns persisted for the subject before the
// current user utterance is appended. Rules, applied in order:
//
//  1. The base physician instructions are always emitted.
//  2. When medicalContext is non-empty and this is the first turn of the
//     window (turnsBefore == 0), one instruction embeds the payload. A nil
//     map and an empty map are equivalent.
//  3. When the post-append turn count (turnsBefore + 1) reaches
//     2*maxWindow - 1, a terminal instruction directs the model to give a
//     definitive diagnosis instead of asking further questions.
//
// The output is deterministic: identical inputs yield an identical list.
func SystemPreamble(turnsBefore int, medicalContext map[string]string, maxWindow int) []llm.Message {
	preamble := []llm.Message{
		llm.NewSystemMessage(physicianInstruction),
		llm.NewSystemMessage(brevityInstruction),
	}

	if turnsBefore == 0 && len(medicalContext) > 0 {
		preamble = append(preamble, llm.NewSystemMessage(
			fmt.Sprintf("The patient medical history is %s", renderMedicalContext(medicalContext)),
		))
	}

	if turnsBefore+1 >= 2*maxWindow-1 {
		preamble = append(preamble, llm.NewSystemMessage(diagnosisInstruction))
	}

	return preamble
}

// renderMedicalContext flattens the payload into a stable "key: value"
// listing. Keys are sorted so the instruction is byte-identical across calls.
func renderMedicalContext(medicalContext map[string]string) string {
	keys := make([]string, 0, len(medicalContext))
	for k := range medicalContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %s", k, medicalContext[k]))
	}

	return "{" + strings.Join(pairs, ", ") + "}"
}
