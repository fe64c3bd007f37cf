package auth

import (
	"errors"
	"fmt"

	"github.com/casbin/casbin"
)

var ErrForbidden = errors.New("forbidden")

// ACL objects and actions checked by the HTTP layer and the CLI.
const (
	ObjectTransfers = "transfers"

	ActionCreate  = "create"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionListAny = "list_any"
)

// Authorizer checks role/object/action triples against a casbin model and
// policy. NewAuthorizer panics if either file cannot be loaded.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizer(modelFile, policyFile string) *Authorizer {
	return &Authorizer{enforcer: casbin.NewEnforcer(modelFile, policyFile)}
}

func (a *Authorizer) Authorize(subject, object, action string) error {
	if !a.enforcer.Enforce(subject, object, action) {
		return fmt.Errorf("%w: %s not permitted to %s %s", ErrForbidden, subject, action, object)
	}
	return nil
}
