// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the officeconv
// packages and CLI: conversion modes, configuration, and run history.
package types

import (
	"fmt"
	"sort"
)

// Mode selects one conversion direction. The set is closed: ParseMode
// rejects anything not listed in the mode table.
type Mode string

const (
	ModeXlsxToCsv Mode = "xlsx-to-csv"
	ModeCsvToXlsx Mode = "csv-to-xlsx"
	ModeDocxToMd  Mode = "docx-to-md"
	ModeMdToDocx  Mode = "md-to-docx"
	ModePptxToMd  Mode = "pptx-to-md"
	ModeMdToPptx  Mode = "md-to-pptx"
)

// ModeInfo is one row of the mode table.
type ModeInfo struct {
	Mode Mode `json:"mode" yaml:"mode"`

	// SourceExt and TargetExt are lower-case and include the leading dot.
	SourceExt string `json:"source_ext" yaml:"source_ext"`
	TargetExt string `json:"target_ext" yaml:"target_ext"`

	// ForwardsReferenceDoc reports whether a reference (style) document is
	// passed through to the converter. Only the docx and pptx writers use one.
	ForwardsReferenceDoc bool `json:"forwards_reference_doc" yaml:"forwards_reference_doc"`

	// Label names the direction in error messages, e.g. "DOCX to Markdown".
	Label string `json:"label" yaml:"label"`
}

var modeTable = map[Mode]ModeInfo{
	ModeXlsxToCsv: {Mode: ModeXlsxToCsv, SourceExt: ".xlsx", TargetExt: ".csv", Label: "XLSX to CSV"},
	ModeCsvToXlsx: {Mode: ModeCsvToXlsx, SourceExt: ".csv", TargetExt: ".xlsx", Label: "CSV to XLSX"},
	ModeDocxToMd:  {Mode: ModeDocxToMd, SourceExt: ".docx", TargetExt: ".md", Label: "DOCX to Markdown"},
	ModeMdToDocx:  {Mode: ModeMdToDocx, SourceExt: ".md", TargetExt: ".docx", ForwardsReferenceDoc: true, Label: "Markdown to DOCX"},
	ModePptxToMd:  {Mode: ModePptxToMd, SourceExt: ".pptx", TargetExt: ".md", Label: "PPTX to Markdown"},
	ModeMdToPptx:  {Mode: ModeMdToPptx, SourceExt: ".md", TargetExt: ".pptx", ForwardsReferenceDoc: true, Label: "Markdown to PPTX"},
}

// Info returns the table row for m. ok is false for unknown modes.
func (m Mode) Info() (info ModeInfo, ok bool) {
	info, ok = modeTable[m]
	return info, ok
}

// Valid reports whether m is one of the six supported modes.
func (m Mode) Valid() bool {
	_, ok := modeTable[m]
	return ok
}

// ParseMode converts s into a Mode, failing for unknown values.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown conversion mode %q (valid: %v)", s, Modes())
	}
	return m, nil
}

// Modes returns every supported mode in a stable order.
func Modes() []Mode {
	modes := make([]Mode, 0, len(modeTable))
	for m := range modeTable {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
