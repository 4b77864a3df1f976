// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"strings"
)

// FormatReport renders r as:
//
//	Converted {n} files, failed {m}.
//
//	success:
//	{output path per line}
//
//	failed:
//	{input path}: {message} per line
func FormatReport(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Converted %d files, failed %d.\n\n", r.SuccessCount, r.FailCount)

	b.WriteString("success:\n")
	for _, path := range r.ConvertedFiles {
		b.WriteString(path)
		b.WriteByte('\n')
	}

	b.WriteString("\nfailed:\n")
	for _, f := range r.Failed() {
		fmt.Fprintf(&b, "%s: %s\n", f.Input, f.Message)
	}
	return b.String()
}
