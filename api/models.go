package api

import "github.com/jmcleod/marketplace/storage"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HomeResponse is returned from GET /.
type HomeResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// PageResponse is returned from the public entry pages (/login, /signup,
// /forgot-password). From echoes the path the gate bounced the visitor from.
type PageResponse struct {
	Page string `json:"page"`
	From string `json:"from,omitempty"`
}

// DashboardResponse is returned from GET /dashboard. User is omitted when
// the forwarded id does not resolve to a stored account.
type DashboardResponse struct {
	UserID string        `json:"user_id"`
	Role   string        `json:"role"`
	User   *storage.User `json:"user,omitempty"`
}

// ListLocationsResponse is returned from GET /api/locations.
type ListLocationsResponse struct {
	Locations []storage.Location `json:"locations"`
	Count     int                `json:"count"`
}

// ListCategoriesResponse is returned from GET /api/categories.
type ListCategoriesResponse struct {
	Categories []storage.Category `json:"categories"`
	Count      int                `json:"count"`
}

// ListConditionsResponse is returned from GET /api/conditions.
type ListConditionsResponse struct {
	Conditions []storage.Condition `json:"conditions"`
	Count      int                 `json:"count"`
}
