package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

type routeKey struct {
	method string
	route  string
}

// Routes whose verb does not follow from the HTTP method.
var routeOverrides = map[routeKey]ActionResource{
	{http.MethodPost, "/api/boards/:boardId/cards/order"}: {Action: "move", Resource: "card"},
	{http.MethodPost, "/api/boards/:boardId/reconcile"}:   {Action: "reconcile", Resource: "board"},
	{http.MethodPost, "/api/teams/:teamId/members"}:       {Action: "member_added", Resource: "team"},
	{http.MethodPatch, "/api/invitations/:inviteId"}:      {Action: "respond", Resource: "invite"},
}

// ParseRoute returns action and resource for an HTTP method and route template
// (e.g. PUT /api/cards/:cardId -> update card). The resource is the last static path
// segment in singular form; the action follows from the method.
func ParseRoute(method, route string) ActionResource {
	if ar, ok := routeOverrides[routeKey{method, route}]; ok {
		return ar
	}
	return ActionResource{Action: methodToAction(method), Resource: routeToResource(route)}
}

func routeToResource(route string) string {
	segments := strings.Split(strings.Trim(route, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || seg == "api" || strings.HasPrefix(seg, ":") {
			continue
		}
		switch seg {
		case "invitations":
			return "invite"
		case "audit":
			return "audit"
		case "policies":
			return "policy"
		}
		return strings.TrimSuffix(seg, "s")
	}
	return "unknown"
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
