package models

import "go-passport-scanner/document/mrz"

const (
	MessageTryAgain = "Try Again!"
	MessageGotIt    = "Got it!"
)

type StartScanResponse struct {
	SessionId string `json:"session_id"`
}

// ScanFrameRequest carries the recognized text of one camera frame, either as
// a raw text block or already split into lines.
type ScanFrameRequest struct {
	SessionId string   `json:"session_id" validate:"required,hexadecimal,len=32"`
	Text      string   `json:"text,omitempty" validate:"required_without=Lines,max=8192"`
	Lines     []string `json:"lines,omitempty" validate:"required_without=Text,max=200,dive,max=512"`
}

type ScanFrameResponse struct {
	Verdict mrz.Verdict `json:"verdict"`
	Latched bool        `json:"latched"`
	Message string      `json:"message"`
}

type IssuePassportRequest struct {
	SessionId string `json:"session_id" validate:"required,hexadecimal,len=32"`
}

type IssuanceResponse struct {
	Jwt           string `json:"jwt"`
	IrmaServerURL string `json:"irma_server_url"`
}

// NewScanFrameResponse pairs a verdict with the feedback shown to the user.
func NewScanFrameResponse(verdict mrz.Verdict, latched bool) ScanFrameResponse {
	message := MessageTryAgain
	if verdict.Accepted() {
		message = MessageGotIt
	}
	return ScanFrameResponse{Verdict: verdict, Latched: latched, Message: message}
}
