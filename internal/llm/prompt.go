package llm

import (
	"fmt"
	"strings"
)

// OCRInstruction is sent with page images to the vision model.
const OCRInstruction = "Извлеки текст с изображений документа. Верни только распознанный текст без комментариев. Сохрани структуру абзацев и нумерацию."

// BuildAnalysisSystemPrompt is the fixed system message for matter analysis.
func BuildAnalysisSystemPrompt() string {
	return strings.Join([]string{
		"Ты senior legal operations analyst для российского малого и среднего бизнеса.",
		"Учитывай практический стиль: меньше теории, больше конкретных шагов на 24/72 часа.",
		"Приоритет: досудебное урегулирование, фиксация доказательств, соблюдение процессуальных сроков.",
		"Если уместно, ссылайся на российский правовой контекст: ГК РФ, АПК РФ, 152-ФЗ.",
		"Верни только валидный JSON без markdown и комментариев.",
		"Формат ответа: { riskScore:number, urgency:'LOW'|'MEDIUM'|'HIGH', tags:string[], risks:{severity:'LOW'|'MEDIUM'|'HIGH',category:string,excerpt:string}[], timeline:string[], obligations:string[], actions:string[], confidence:number, legalReferences:string[] }",
		"riskScore: 0..100, confidence: 0..1.",
		"Не выдумывай факты, используй только входные данные и контекст.",
	}, " ")
}

// BuildAnalysisUserPrompt renders the matter and its retrieved context.
func BuildAnalysisUserPrompt(m MatterInput, docs []ContextDoc) string {
	contextBlock := "Контекст судебной практики не найден."
	if len(docs) > 0 {
		parts := make([]string, 0, len(docs))
		for i, d := range docs {
			parts = append(parts, fmt.Sprintf("%d) %s\nTags: %s\nSnippet: %s", i+1, d.Title, strings.Join(d.Tags, ", "), d.Snippet))
		}
		contextBlock = strings.Join(parts, "\n\n")
	}
	return strings.Join([]string{
		"Company: " + m.Company,
		"Industry: " + m.Industry,
		"SourceType: " + m.SourceType,
		"Summary: " + m.Summary,
		"RawText:\n" + m.RawText,
		"RAG Context:\n" + contextBlock,
	}, "\n\n")
}
