package chi

import (
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	resourceuc "github.com/kailas-cloud/searchdeck/internal/usecase/resource"
)

const defaultDocBoostLimit = 100

type fetchErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Info    string `json:"info,omitempty"`
}

type resourceResponse[T any] struct {
	Data         T                   `json:"data"`
	Error        *fetchErrorResponse `json:"error"`
	IsLoading    bool                `json:"is_loading"`
	IsValidating bool                `json:"is_validating"`
}

// Credentials handles GET /api/admin/credentials and POST .../refresh.
func (s *Server) Credentials(w http.ResponseWriter, r *http.Request) {
	serveResource(w, r, s.hooks.Credentials())
}

// DocumentBoosts handles GET /api/admin/doc-boosts and POST .../refresh.
func (s *Server) DocumentBoosts(w http.ResponseWriter, r *http.Request) {
	ascending := false
	if err := runtime.BindQueryParameter("form", true, false, "ascending", r.URL.Query(), &ascending); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter ascending")
		return
	}
	limit := defaultDocBoostLimit
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter limit")
		return
	}

	res, err := s.hooks.DocumentBoosts(ascending, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	serveResource(w, r, res)
}

// IndexingStatus handles GET /api/admin/indexing-status and POST .../refresh.
func (s *Server) IndexingStatus(w http.ResponseWriter, r *http.Request) {
	serveResource(w, r, s.hooks.IndexingStatus())
}

// Users handles GET /api/users and POST .../refresh.
func (s *Server) Users(w http.ResponseWriter, r *http.Request) {
	serveResource(w, r, s.hooks.Users())
}

// UserGroups handles GET /api/admin/user-groups and POST .../refresh.
// Without enterprise features the list is always empty.
func (s *Server) UserGroups(w http.ResponseWriter, r *http.Request) {
	serveResource(w, r, s.hooks.UserGroups())
}

// serveResource writes the cached state; POST .../refresh revalidates first.
func serveResource[T any](w http.ResponseWriter, r *http.Request, res *resourceuc.Resource[T]) {
	var st resourceuc.State[T]
	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/refresh") {
		st = res.Refresh(r.Context())
	} else {
		st = res.Load(r.Context())
	}
	writeJSON(w, http.StatusOK, resourceResponse[T]{
		Data:         st.Data,
		Error:        fetchErrorBody(st.Err),
		IsLoading:    st.IsLoading,
		IsValidating: st.IsValidating,
	})
}

func fetchErrorBody(fe *domain.FetchError) *fetchErrorResponse {
	if fe == nil {
		return nil
	}
	return &fetchErrorResponse{
		Status:  fe.Status,
		Message: fe.Message,
		Info:    string(fe.Info),
	}
}
