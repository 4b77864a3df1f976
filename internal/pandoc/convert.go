// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"context"

	"github.com/pdiddy/officeconv/internal/engine"
)

// Converter adapts one pandoc direction to engine.Converter.
type Converter struct {
	backend      Backend
	from         string
	to           string
	ext          string
	useReference bool
}

// DocxToMarkdown converts .docx to pandoc Markdown.
func DocxToMarkdown(b Backend) *Converter {
	return &Converter{backend: b, from: "docx", to: "markdown", ext: ".md"}
}

// MarkdownToDocx converts Markdown to .docx, honouring a reference document.
func MarkdownToDocx(b Backend) *Converter {
	return &Converter{backend: b, from: "markdown", to: "docx", ext: ".docx", useReference: true}
}

// PptxToMarkdown converts .pptx to pandoc Markdown.
func PptxToMarkdown(b Backend) *Converter {
	return &Converter{backend: b, from: "pptx", to: "markdown", ext: ".md"}
}

// MarkdownToPptx converts Markdown to .pptx, honouring a reference document.
func MarkdownToPptx(b Backend) *Converter {
	return &Converter{backend: b, from: "markdown", to: "pptx", ext: ".pptx", useReference: true}
}

// Convert validates the input (and the reference document, when this
// direction uses one) and runs pandoc. The output defaults to the input path
// with the target extension.
func (c *Converter) Convert(ctx context.Context, req engine.Request) (string, error) {
	if err := engine.CheckReadable(req.Input); err != nil {
		return "", err
	}
	out := req.Output
	if out == "" {
		out = engine.ReplaceExt(req.Input, c.ext)
	}

	job := Job{From: c.from, To: c.to, Input: req.Input, Output: out}
	if c.useReference && req.ReferenceDoc != "" {
		if err := engine.CheckReadable(req.ReferenceDoc); err != nil {
			return "", err
		}
		job.ReferenceDoc = req.ReferenceDoc
	}

	if err := c.backend.Run(ctx, job); err != nil {
		return "", &engine.EngineError{Engine: c.backend.Name(), Err: err}
	}
	return out, nil
}
