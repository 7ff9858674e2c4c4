package assemblecontext

import (
	"fmt"
	"strings"

	"health-assistant/internal/models"
)

const Stage = "assemble-context"

// NoSourcesPlaceholder stands in for the context block when retrieval
// found nothing.
const NoSourcesPlaceholder = "Nenhuma fonte encontrada."

type Output struct {
	ContextBlock string
	Links        []string
}

// Assemble renders sources as numbered "[Fonte i]" blocks separated by a
// blank line. Links keeps the same order, duplicates included, so that
// Links[i-1] is the target of "[Fonte i]".
func Assemble(sources []models.SourceRecord) Output {
	links := make([]string, len(sources))
	if len(sources) == 0 {
		return Output{ContextBlock: NoSourcesPlaceholder, Links: links}
	}

	blocks := make([]string, len(sources))
	for i, src := range sources {
		blocks[i] = fmt.Sprintf("[Fonte %d] Título: %s\nConteúdo: %s\nLink: %s", i+1, src.Title, src.Snippet, src.Link)
		links[i] = src.Link
	}

	return Output{
		ContextBlock: strings.Join(blocks, "\n\n"),
		Links:        links,
	}
}
