package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// rbacModel matches a role against a route pattern and an HTTP method
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// defaultPolicies grants route access per role. Routes not listed here are
// open to any authenticated user.
var defaultPolicies = [][]string{
	{RoleCreditAdmin, "/api/v1/temp-credit/settings", "^(GET|PUT)$"},
	{RoleCreditAdmin, "/api/v1/temp-credit/customer-policies/:id", "^(GET|PUT|DELETE)$"},
	{RoleCreditAdmin, "/api/v1/temp-credit/salesman-policies/:id", "^(GET|PUT|DELETE)$"},
	{RoleCreditAdmin, "/api/v1/temp-credit/reports/*", "^GET$"},
	{RoleSalesManager, "/api/v1/temp-credit/reports/*", "^GET$"},
	{RoleSalesManager, "/api/v1/temp-credit/settings", "^GET$"},
}

// Authorizer decides role-based access to API routes
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds an authorizer with the built-in policy set
func NewAuthorizer() (*Authorizer, error) {
	return NewAuthorizerWithPolicies(defaultPolicies)
}

// NewAuthorizerWithPolicies builds an authorizer from explicit (role, route, methods) rules
func NewAuthorizerWithPolicies(policies [][]string) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize enforcer: %w", err)
	}
	if len(policies) > 0 {
		if _, err := e.AddPolicies(policies); err != nil {
			return nil, fmt.Errorf("failed to load policies: %w", err)
		}
	}
	return &Authorizer{enforcer: e}, nil
}

// Allowed reports whether any of roles may perform method on path
func (a *Authorizer) Allowed(roles []string, path, method string) (bool, error) {
	for _, role := range roles {
		ok, err := a.enforcer.Enforce(role, path, method)
		if err != nil {
			return false, fmt.Errorf("permission check failed: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
