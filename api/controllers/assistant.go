package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/mathmindlabs/mathmind-backend/api/responses"
	"github.com/mathmindlabs/mathmind-backend/api/validators"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
)

type chatCompleter interface {
	Complete(ctx context.Context, userMessage string) (string, error)
}

type resultComputer interface {
	Result(ctx context.Context, query string) (string, error)
}

type chatRequest struct {
	UserMessage string `json:"userMessage"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type computeRequest struct {
	Query string `json:"query"`
}

type computeResponse struct {
	Result string `json:"result"`
}

// AssistantChat proxies a math question to the chat model. An empty
// message is rejected before anything leaves the process.
func AssistantChat(client chatCompleter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assistant unavailable"))
			return
		}

		var body chatRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := client.Complete(r.Context(), body.UserMessage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, chatResponse{Reply: reply})
	}
}

// AssistantCompute evaluates a query against the computational engine.
// The query may arrive as a JSON body or as the ?query= parameter, so
// both GET and POST are served by the same handler.
func AssistantCompute(client resultComputer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "compute engine unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" && r.Body != nil && r.ContentLength != 0 {
			var body computeRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			query = strings.TrimSpace(body.Query)
		}

		result, err := client.Result(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, computeResponse{Result: result})
	}
}
