// Package router is the router (C7): resolves a Request to one command,
// enforces authentication ahead of dispatch, and always returns a
// Response rather than letting an error escape to the caller.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/op/go-logging"

	"github.com/nikshvein/personhub/internal/command"
	"github.com/nikshvein/personhub/internal/domain"
)

var log = logging.MustGetLogger("router")

// Authenticator resolves credentials to a User. Implemented by
// auth.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (domain.User, error)
}

// Router dispatches an authenticated Request to the command registry.
type Router struct {
	reg   *command.Registry
	creds Authenticator
}

// New returns a Router dispatching against reg, authenticating through
// creds.
func New(reg *command.Registry, creds Authenticator) *Router {
	return &Router{reg: reg, creds: creds}
}

// Route implements the six-step algorithm: empty command short-circuits,
// credentials gate dispatch, "help" is composed directly, unknown
// commands and arity failures get uniform messages, and a panicking
// command is recovered into an error Response instead of propagating.
func (rt *Router) Route(ctx context.Context, req domain.Request) domain.Response {
	if req.Command == "" {
		return domain.Response{}
	}

	user, err := rt.creds.Authenticate(ctx, req.Credentials)
	if err != nil {
		return domain.Response{Message: "Authorization failed."}
	}

	if strings.EqualFold(req.Command, "help") {
		return domain.Response{Message: rt.reg.HelpText()}
	}

	desc, ok := rt.reg.Lookup(req.Command)
	if !ok {
		return domain.Response{Message: fmt.Sprintf("command '%s' not found, type 'help' for help", req.Command)}
	}
	if desc.RequiredPersons > len(req.Persons) {
		return domain.Response{Message: "insufficient payload"}
	}

	return rt.execute(ctx, desc, req, command.Session{User: user})
}

func (rt *Router) execute(ctx context.Context, desc command.Descriptor, req domain.Request, sess command.Session) (resp domain.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Warningf("recovered panic executing %q: %v", desc.Name, r)
			resp = domain.Response{Message: fmt.Sprintf("command %q failed: %v", desc.Name, r)}
		}
	}()
	return desc.Execute(ctx, req, sess)
}
