// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package commons

// Structured API payloads. Errors always carry a machine-readable kind plus
// a human-readable detail, success payloads wrap their data.

type ErrorDetail struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func NewErrorResponse(kind, detail string) ErrorResponse {
	return ErrorResponse{Success: false, Error: ErrorDetail{Kind: kind, Detail: detail}}
}

func NewSuccessResponse(data interface{}) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}
