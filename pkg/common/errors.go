//  Copyright 2019 Marius Ackerman
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package common

// ErrorCode classifies an AnalysisError
type ErrorCode string

// Error codes
const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeInsufficientData   ErrorCode = "INSUFFICIENT_DATA"
	CodeDegenerateEstimate ErrorCode = "DEGENERATE_ESTIMATE"
)

// Sentinels for errors.Is. Any AnalysisError with the same code matches.
var (
	ErrInvalidInput       = &AnalysisError{Code: CodeInvalidInput, Message: "invalid input"}
	ErrInsufficientData   = &AnalysisError{Code: CodeInsufficientData, Message: "insufficient data"}
	ErrDegenerateEstimate = &AnalysisError{Code: CodeDegenerateEstimate, Message: "degenerate estimate"}
)

// AnalysisError is returned when a precondition of the beat tracking
// pipeline does not hold.
type AnalysisError struct {
	Code    ErrorCode `json:"code"`
	Op      string    `json:"op"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AnalysisError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code only
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new analysis error
func NewError(code ErrorCode, op, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// InvalidInput returns a CodeInvalidInput error for op
func InvalidInput(op, message string) *AnalysisError {
	return NewError(CodeInvalidInput, op, message, nil)
}

// InsufficientData returns a CodeInsufficientData error for op
func InsufficientData(op, message string) *AnalysisError {
	return NewError(CodeInsufficientData, op, message, nil)
}

// DegenerateEstimate returns a CodeDegenerateEstimate error for op
func DegenerateEstimate(op, message string) *AnalysisError {
	return NewError(CodeDegenerateEstimate, op, message, nil)
}
