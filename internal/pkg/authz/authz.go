// Package authz builds the role based access policy consulted by admin
// endpoints.
package authz

import (
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

const RoleAdmin = "role:admin"

// Objects and actions guarded by the policy.
const (
	ObjectOTPLogs         = "auth:otp-logs"
	ObjectFreightRequests = "freight:requests"

	ActRead  = "read"
	ActWrite = "write"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

var adminPolicies = [][]string{
	{RoleAdmin, ObjectOTPLogs, ActRead},
	{RoleAdmin, ObjectFreightRequests, ActRead},
	{RoleAdmin, ObjectFreightRequests, ActWrite},
}

// NewEnforcer returns an in-memory enforcer granting RoleAdmin to every
// subject in admins. Subjects are phone numbers; blanks are ignored.
func NewEnforcer(admins []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range adminPolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}

	for _, sub := range admins {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		if _, err := e.AddGroupingPolicy(sub, RoleAdmin); err != nil {
			return nil, err
		}
	}

	return e, nil
}
