package service

import "reportgen/internal/domain"

// Input errors. domain.UserMessage gives the sentence each surface shows.
var (
	ErrPromptRequired   error = &domain.UserError{Reason: "prompt required", Message: "Please enter a prompt."}
	ErrDocumentRequired error = &domain.UserError{Reason: "document required", Message: "Please attach a PDF file."}
	ErrNoReport         error = &domain.UserError{Reason: "no report available", Message: "No report available. Please generate a report first."}
)
