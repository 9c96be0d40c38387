// Package ipc carries host commands and events over a unix socket as JSON lines.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandSubscribe turns a connection into a one-way event stream.
const CommandSubscribe = "subscribe"

type Request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest encodes params into a request; nil params are omitted.
func NewRequest(command string, params any) (Request, error) {
	req := Request{Command: command}
	if params == nil {
		return req, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s params: %w", command, err)
	}
	req.Params = data
	return req, nil
}

// Decode unmarshals the request params into v; absent params leave v as is.
func (r Request) Decode(v any) error {
	if len(r.Params) == 0 || string(r.Params) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return fmt.Errorf("decode %s params: %w", r.Command, err)
	}
	return nil
}

type Response struct {
	OK       bool            `json:"ok"`
	State    string          `json:"state,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Canceled bool            `json:"canceled,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Success builds an OK response carrying data.
func Success(message string, data any) Response {
	resp := Response{OK: true, Message: message}
	if data == nil {
		return resp
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return Failure(fmt.Errorf("encode response: %w", err))
	}
	resp.Data = encoded
	return resp
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Decode unmarshals the response data into v.
func (r Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Event is one host-to-client notification on a subscription.
type Event struct {
	Event   string `json:"event"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}
