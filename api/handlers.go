package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/marketplace/auth"
	"github.com/jmcleod/marketplace/storage"
)

const appName = "marketplace"

func (a *API) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HomeResponse{
		Name:    appName,
		Message: "Buy and sell locally",
	})
}

// EntryPage serves one of the public account pages. The gate sends
// unauthenticated visitors here with ?from=<original path>, which is echoed
// back so a client can return there after signing in.
func (a *API) EntryPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PageResponse{
			Page: name,
			From: r.URL.Query().Get(auth.FromParam),
		})
	}
}

// Dashboard is a protected page. It trusts only the identity headers the
// gate forwarded; client copies are stripped before the request gets here.
func (a *API) Dashboard(w http.ResponseWriter, r *http.Request) {
	resp := DashboardResponse{
		UserID: r.Header.Get(auth.HeaderUserID),
		Role:   r.Header.Get(auth.HeaderUserRole),
	}
	if resp.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if id, err := strconv.ParseInt(resp.UserID, 10, 64); err == nil {
		user, err := a.catalog.UserByID(r.Context(), id)
		switch {
		case err == nil:
			resp.User = user
		case errors.Is(err, storage.ErrNotFound):
		default:
			a.mapError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := a.catalog.ActiveLocations(r.Context(), parseLimit(r, defaultListLimit, maxListLimit))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	if locations == nil {
		locations = []storage.Location{}
	}
	writeJSON(w, http.StatusOK, ListLocationsResponse{Locations: locations, Count: len(locations)})
}

func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.catalog.ActiveCategories(r.Context(), parseLimit(r, defaultListLimit, maxListLimit))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	if categories == nil {
		categories = []storage.Category{}
	}
	writeJSON(w, http.StatusOK, ListCategoriesResponse{Categories: categories, Count: len(categories)})
}

func (a *API) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := a.catalog.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (a *API) ListConditions(w http.ResponseWriter, r *http.Request) {
	conditions, err := a.catalog.ActiveConditions(r.Context())
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	if conditions == nil {
		conditions = []storage.Condition{}
	}
	writeJSON(w, http.StatusOK, ListConditionsResponse{Conditions: conditions, Count: len(conditions)})
}
