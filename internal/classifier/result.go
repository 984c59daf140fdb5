package classifier

import (
	"errors"
	"fmt"
)

// Status is the terminal state of one recognition call.
type Status string

const (
	StatusRecognized Status = "recognized"
	StatusRejected   Status = "unrecognized"
	StatusFailed     Status = "failed"
)

// Reasons attached to Rejected results and to Unknown-label fallbacks.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonNoInk         = "no_ink"
	ReasonTooMuchInk    = "too_much_ink"
	ReasonLowContrast   = "low_contrast"
	ReasonUnknownLabel  = "unknown_label"
)

// UnknownLaTeX is reported when a class index has no label entry.
const UnknownLaTeX = "Unknown"

// RejectedMessage is shown when no symbol met the threshold.
const RejectedMessage = "No math symbol recognised."

var (
	ErrInitialization = errors.New("classifier initialization failed")
	ErrNotInitialized = errors.New("classifier is not initialized")
	ErrInvalidInput   = errors.New("invalid input image")
	ErrInference      = errors.New("inference failed")
)

// Result is the outcome of one recognition call. It is returned by value and
// never modified by the classifier after it is built.
type Result struct {
	Status     Status  `json:"status" yaml:"status"`
	Symbol     string  `json:"symbol" yaml:"symbol"`
	LaTeX      string  `json:"latex" yaml:"latex"`
	Confidence float32 `json:"confidence" yaml:"confidence"`
	ClassIndex int     `json:"class_index" yaml:"class_index"`
	LabelID    int     `json:"label_id" yaml:"label_id"`
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	Reason     string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message    string  `json:"message,omitempty" yaml:"message,omitempty"`
	Err        error   `json:"-" yaml:"-"`
}

func (r Result) Recognized() bool {
	return r.Status == StatusRecognized
}

func (r Result) Rejected() bool {
	return r.Status == StatusRejected
}

func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

func recognized(index, labelID int, latex, symbol string, confidence float32, reason string, width, height int) Result {
	return Result{
		Status:     StatusRecognized,
		Symbol:     symbol,
		LaTeX:      latex,
		Confidence: confidence,
		ClassIndex: index,
		LabelID:    labelID,
		Width:      width,
		Height:     height,
		Reason:     reason,
	}
}

func rejected(index int, confidence float32, reason string, width, height int) Result {
	return Result{
		Status:     StatusRejected,
		Confidence: confidence,
		ClassIndex: index,
		LabelID:    -1,
		Width:      width,
		Height:     height,
		Reason:     reason,
		Message:    RejectedMessage,
	}
}

// FailedResult wraps an error raised outside the classifier, such as a decode
// failure, into a Failed result.
func FailedResult(err error) Result {
	return failed(err, 0, 0)
}

func failed(err error, width, height int) Result {
	return Result{
		Status:     StatusFailed,
		LaTeX:      fmt.Sprintf("Error: %v", err),
		ClassIndex: -1,
		LabelID:    -1,
		Width:      width,
		Height:     height,
		Message:    err.Error(),
		Err:        err,
	}
}
