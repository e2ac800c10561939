// Package sanitizer cleans user input.
//
// Struct fields opt in with a `sanitize` tag listing registered cleaners:
//
//	type ContactRequest struct {
//		Name    string `sanitize:"name,max:120"`
//		Email   string `sanitize:"email"`
//		Message string `sanitize:"text"`
//	}
//	err := sanitizer.SanitizeStruct(&req)
//
// Whole JSON bodies are cleaned with JSON, which applies SanitizeUserInput to
// every string value. SanitizeUserInput removes NUL and control characters and
// script-capable markup while keeping ordinary HTML used by CMS content.
package sanitizer
