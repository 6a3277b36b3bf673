package xhttp

import (
	"bytes"
	"encoding/json"
)

const contentTypeJSON = "application/json; charset=utf-8"
const contentTypeHTML = "text/html; charset=utf-8"

type ErrorBody struct {
	Error string `json:"error"`
}

func WriteJSON(ctx *RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeJSON)
	ctx.SetBody(body)
}

func WriteError(ctx *RequestCtx, status int, msg string) {
	WriteJSON(ctx, status, ErrorBody{Error: msg})
}

func WriteHTML(ctx *RequestCtx, status int, body []byte) {
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeHTML)
	ctx.SetBody(body)
}

// ReadJSON decodes the request body into v. Unknown fields are rejected.
func ReadJSON(ctx *RequestCtx, v any) error {
	dec := json.NewDecoder(bytes.NewReader(ctx.PostBody()))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
