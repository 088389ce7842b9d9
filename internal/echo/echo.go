// Package echo is a restful resource reflecting each request back to the
// caller. It backs the sample lambda and the dev server.
package echo

import (
	"net/http"

	"github.com/prognoshealth/lambdarest/handler"
	"github.com/prognoshealth/lambdarest/validation"
)

// searchSchema lists the query string parameters a search accepts.
var searchSchema = validation.Schema{
	"q":     "omitempty,max=64",
	"limit": "omitempty,numeric",
}

// Message is the payload accepted by Create.
type Message struct {
	Text string `json:"text" validate:"required,max=280"`
	Tag  string `json:"tag" validate:"omitempty,alphanum"`
}

// Reply is what every operation sends back.
type Reply struct {
	Operation string            `json:"operation"`
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	ID        string            `json:"id,omitempty"`
	Query     map[string]string `json:"query"`
	User      User              `json:"user"`
	Body      interface{}       `json:"body,omitempty"`
}

// User describes the caller in a Reply.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Anonymous bool   `json:"anonymous"`
}

// Resource addresses a single item when an id path parameter is set.
type Resource struct{}

// IsSingleResource implements handler.Resource.
func (Resource) IsSingleResource(inv *handler.Invocation) bool {
	return inv.Request.ResourceID() != ""
}

// RetrieveSingle echoes the request. Replies may be cached for a minute.
func (r Resource) RetrieveSingle(inv *handler.Invocation) error {
	inv.Response.SetMaxAge(60)
	return r.reply(inv, handler.RetrieveSingle, http.StatusOK, nil)
}

// Search echoes the request once its query string is valid.
func (r Resource) Search(inv *handler.Invocation) error {
	if err := inv.Request.ValidateQueryString(searchSchema); err != nil {
		return err
	}
	return r.reply(inv, handler.Search, http.StatusOK, nil)
}

// Create echoes a valid Message.
func (r Resource) Create(inv *handler.Invocation) error {
	var msg Message
	if err := inv.Request.BindJSON(&msg); err != nil {
		return err
	}
	return r.reply(inv, handler.Create, http.StatusCreated, msg)
}

// Update echoes the request body parsed according to its content type.
func (r Resource) Update(inv *handler.Invocation) error {
	body, err := inv.Request.ParsedBody("")
	if err != nil {
		return err
	}
	return r.reply(inv, handler.Update, http.StatusOK, body)
}

// Delete echoes the request.
func (r Resource) Delete(inv *handler.Invocation) error {
	return r.reply(inv, handler.Delete, http.StatusOK, nil)
}

func (Resource) reply(inv *handler.Invocation, op handler.Operation, status int, body interface{}) error {
	reply := Reply{
		Operation: op.String(),
		Method:    inv.Request.Method(),
		Path:      inv.Request.Path(),
		ID:        inv.Request.ResourceID(),
		Query:     inv.Request.QueryParams(),
		User: User{
			ID:        inv.User.ID,
			Name:      inv.User.Name,
			Anonymous: inv.User.Anonymous,
		},
		Body: body,
	}

	if err := inv.Response.SetStatus(status).SetJSON(reply); err != nil {
		return err
	}

	inv.Response.Send()
	return nil
}
