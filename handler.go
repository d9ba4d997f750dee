package resourceschema

import "fmt"

// Lifecycle actions a resource type may declare handlers for. Absence of an
// action in the handler map means the action is unsupported.
const (
	HandlerCreate = "create"
	HandlerRead   = "read"
	HandlerUpdate = "update"
	HandlerDelete = "delete"
	HandlerList   = "list"
)

// DefaultHandlerTimeoutMinutes applies when a handler declares no timeout.
const DefaultHandlerTimeoutMinutes = 120

// Handler carries the metadata of a single lifecycle handler.
type Handler struct {
	Permissions      []string
	TimeoutInMinutes int
}

func parseHandlers(v any) (map[string]Handler, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &SemanticError{
			Message: "handlers must be an object",
			Key:     "handlers",
			Pointer: "/handlers",
		}
	}
	handlers := make(map[string]Handler, len(m))
	for action, raw := range m {
		h, err := parseHandler(action, raw)
		if err != nil {
			return nil, err
		}
		handlers[action] = h
	}
	return handlers, nil
}

func parseHandler(action string, v any) (Handler, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Handler{}, &SemanticError{
			Message: fmt.Sprintf("handler %s must be an object", action),
			Key:     "handlers",
			Pointer: "/handlers/" + action,
		}
	}
	h := Handler{TimeoutInMinutes: DefaultHandlerTimeoutMinutes}
	if raw, ok := m["permissions"]; ok {
		perms, err := asStringList(raw)
		if err != nil {
			return Handler{}, &SemanticError{
				Message: fmt.Sprintf("handler %s permissions: %v", action, err),
				Key:     "handlers",
				Pointer: "/handlers/" + action + "/permissions",
			}
		}
		h.Permissions = perms
	}
	if raw, ok := m["timeoutInMinutes"]; ok {
		timeout, err := asInt(raw)
		if err != nil {
			return Handler{}, &SemanticError{
				Message: fmt.Sprintf("handler %s timeoutInMinutes: %v", action, err),
				Key:     "handlers",
				Pointer: "/handlers/" + action + "/timeoutInMinutes",
			}
		}
		h.TimeoutInMinutes = timeout
	}
	return h, nil
}
